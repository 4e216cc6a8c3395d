package analytics

import "fmt"

// Code classifies analytics errors
type Code string

const (
	CodeInvalidRefreshInterval Code = "INVALID_REFRESH_INTERVAL"
	CodeInvalidMaxTools        Code = "INVALID_MAX_TOOLS"
	CodeInvalidTimeRange       Code = "INVALID_TIME_RANGE"
	CodeInvalidSubject         Code = "INVALID_SUBJECT"
	CodeFetchFailed            Code = "FETCH_FAILED"
	CodeAggregationFailed      Code = "AGGREGATION_FAILED"
)

// Error is returned by every analytics operation. Use errors.As to inspect
// the Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}
