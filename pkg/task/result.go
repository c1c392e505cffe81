package task

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	NotFound         ErrorKind = "not_found"
	TransferFailed   ErrorKind = "transfer_failed"
	Timeout          ErrorKind = "timeout"
	Internal         ErrorKind = "internal"
	CapacityExceeded ErrorKind = "capacity_exceeded"
	DuplicateResult  ErrorKind = "duplicate_result"
	InvalidArgument  ErrorKind = "invalid_argument"
	Cancelled        ErrorKind = "cancelled"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to a lower level error.
func Wrap(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: NotFound})
// works against wrapped errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return Internal
}

type UploadAck struct {
	Success bool
	Message string
}

// Result is the immutable outcome of a task. Exactly one of Files, Ack and Err
// is set; Files may be an empty (non-nil) slice.
type Result struct {
	TaskID string
	Files  []string
	Ack    *UploadAck
	Err    *Error
}

func FileList(id string, files []string) Result {
	if files == nil {
		files = []string{}
	}
	return Result{TaskID: id, Files: files}
}

func Ack(id string, msg string) Result {
	return Result{TaskID: id, Ack: &UploadAck{Success: true, Message: msg}}
}

func Failure(id string, err *Error) Result {
	return Result{TaskID: id, Err: err}
}

// Status is the terminal task status this result implies.
func (r Result) Status() Status {
	switch {
	case r.Err == nil:
		return StatusSucceeded
	case r.Err.Kind == Cancelled:
		return StatusCancelled
	default:
		return StatusFailed
	}
}
