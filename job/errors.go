package job

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorKind tells subscribers which part of the lifecycle failed.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindSubmission ErrorKind = "submission"
	KindTransport  ErrorKind = "transport"
	KindJobFailed  ErrorKind = "job_failed"
	KindTimeout    ErrorKind = "timeout"
)

// Sentinels returned by Submit and Wait; match with errors.Is.
var (
	ErrValidation    = errors.New("invalid URL")
	ErrSubmission    = errors.New("job submission failed")
	ErrPollTransport = errors.New("job status check failed")
	ErrJobFailed     = errors.New("job failed")
	ErrPollTimeout   = errors.New("job did not finish in time")
	ErrSuperseded    = errors.New("submission superseded")
)

// Generic user-facing messages, used when the backend gave none.
const (
	msgInvalidURL   = "invalid URL"
	msgSubmitFailed = "could not reach the processing service"
	msgStatusFailed = "could not check the job status"
	msgResultFailed = "could not fetch the job results"
	msgJobFailed    = "job processing failed"
	msgPollTimedOut = "job did not finish in time"
)

// UserMessage returns the hints attached to err, or fallback when there are none.
// The backend client attaches the server's {error} payload as a hint.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if hint := strings.TrimSpace(errors.FlattenHints(err)); hint != "" {
		return hint
	}
	return fallback
}

// failure marks err, or a new error carrying msg, with sentinel.
func failure(err error, msg string, sentinel error) error {
	if err == nil {
		if msg == "" {
			return errors.WithStack(sentinel)
		}
		err = errors.WithHint(errors.New(msg), msg)
	}
	return errors.Mark(err, sentinel)
}
