package ingest

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrIngest matches every failure to load or parse a review CSV.
var ErrIngest = eris.New("ingest: could not load reviews")

// Error describes a failed load.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingest: load %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIngest) true for any *Error.
func (e *Error) Is(target error) bool { return target == ErrIngest }
