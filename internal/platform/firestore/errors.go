package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error categorizes Firestore failures into the repository error contract.
type Error struct {
	op   string
	code codes.Code
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *Error) IsNotFound() bool {
	return e != nil && e.code == codes.NotFound
}

func (e *Error) IsConflict() bool {
	if e == nil {
		return false
	}
	switch e.code {
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return true
	}
	return false
}

func (e *Error) IsUnavailable() bool {
	if e == nil {
		return false
	}
	switch e.code {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded:
		return true
	}
	return false
}

// wrap annotates a Firestore error with the operation name. Context
// cancellations pass through untouched so errors.Is keeps working upstream.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var fe *Error
	if errors.As(err, &fe) {
		return err
	}

	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	}
	return &Error{op: op, code: status.Code(err), err: err}
}

// NotFound builds a not-found repository error without a gRPC status behind it.
func NotFound(op string, format string, args ...any) error {
	return &Error{op: op, code: codes.NotFound, err: fmt.Errorf(format, args...)}
}
