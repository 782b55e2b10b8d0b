package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the analytics pipeline. Callers match them with
// errors.Is; the wrapping message carries the detail.
var (
	// ErrDataUnavailable - provider returned no usable rows for a required query
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrSampleExhausted - the exclusion list covers every index constituent
	ErrSampleExhausted = errors.New("sample exhausted")
	// ErrRegressionInputInsufficient - too few joined months, or a month without factor data
	ErrRegressionInputInsufficient = errors.New("regression input insufficient")
	// ErrRenderFailure - chart or document could not be written
	ErrRenderFailure = errors.New("render failure")
)

// StageError names the pipeline stage that aborted a report run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Kind returns the error kind wrapped by err, or nil when err is not one
// of the pipeline kinds.
func Kind(err error) error {
	for _, kind := range []error{
		ErrDataUnavailable,
		ErrSampleExhausted,
		ErrRegressionInputInsufficient,
		ErrRenderFailure,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
