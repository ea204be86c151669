package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/voc-cli/internal/poller"
	"github.com/sells-group/voc-cli/pkg/voc"
)

// Errors returned by step methods.
var (
	ErrInvalidURL        = eris.New("please enter a valid URL")
	ErrNoCompetitors     = eris.New("add at least one company")
	ErrNoDimensions      = eris.New("add at least one dimension")
	ErrDiscoveryInFlight = eris.New("wait for location discovery to finish")
	ErrWrongStep         = eris.New("action is not available on this step")
	ErrUnknownCompany    = eris.New("unknown company")
	ErrNoScrapeResult    = eris.New("scraping has not completed yet")
	ErrNoCompaniesFound  = eris.New("no companies were found for this website")
	ErrClosed            = eris.New("wizard is closed")
)

var validationErrors = []error{
	ErrInvalidURL,
	ErrNoCompetitors,
	ErrNoDimensions,
	ErrDiscoveryInFlight,
	ErrWrongStep,
	ErrUnknownCompany,
	ErrNoScrapeResult,
	ErrNoCompaniesFound,
	ErrClosed,
}

// UserMessage maps an error to the text shown next to the step it came
// from.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return v.Error()
		}
	}

	var failed *poller.JobFailedError
	if errors.As(err, &failed) {
		return failed.Message
	}
	if errors.Is(err, poller.ErrTimeout) {
		return poller.ErrTimeout.Error()
	}

	var apiErr *voc.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("the server returned an error (%d), please try again", apiErr.StatusCode)
	}

	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "the server took too long to answer, please try again"
	}
	return "could not reach the server, please try again"
}
