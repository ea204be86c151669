package poller

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrTimeout is returned when a job does not finish within the attempt
// budget.
var ErrTimeout = eris.New("timed out, please try again")

// DefaultFailureMessage is used when a failed job carries no message.
const DefaultFailureMessage = "job failed"

// JobFailedError reports a job the backend marked as failed.
type JobFailedError struct {
	JobID   string
	Status  string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s %s: %s", e.JobID, e.Status, e.Message)
}
