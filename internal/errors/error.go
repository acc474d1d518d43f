package errors

import (
	"errors"
	"fmt"

	"chessboard/internal/domain/board"
)

var (
	ErrTransportFailure   = errors.New("rules authority unavailable")
	ErrRuleRejection      = errors.New("move rejected by rules authority")
	ErrReplayRejected     = errors.New("path does not replay")
	ErrInvariantViolation = errors.New("controller invariant violated")
	ErrBookmarkNotFound   = errors.New("bookmark was not found")
	ErrSessionNotFound    = errors.New("session was not found")
	ErrInternal           = errors.New("internal error")
)

// RejectionError carries the authority's reason code. Err is ErrRuleRejection or ErrReplayRejected.
type RejectionError struct {
	Reason board.Reason
	Err    error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func NewRuleRejection(reason board.Reason) error {
	return &RejectionError{Reason: reason, Err: ErrRuleRejection}
}

func NewReplayRejection(reason board.Reason) error {
	return &RejectionError{Reason: reason, Err: ErrReplayRejected}
}

// ReasonOf extracts the reason code from a RejectionError anywhere in err's chain.
func ReasonOf(err error) (board.Reason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return board.ReasonNone, false
}
