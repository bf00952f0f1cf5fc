package export

import (
	"errors"

	"github.com/yungbote/playbook-backend/internal/generation"
)

// ErrExportInProgress is returned when another export holds the coordinator.
var ErrExportInProgress = errors.New("export already in progress")

// PreconditionError reports missing inputs. It is raised before any state change or network call.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func precondition(msg string) error { return &PreconditionError{Message: msg} }

// Error is a failed export. Message is the user-facing text: a per-operation prefix followed by
// the cause's message.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

const (
	prefixSection = "PDF Generation Failed: "
	prefixAsset   = "Asset Generation Failed: "
	prefixBundle  = "Asset Bundle Generation Failed: "
	prefixKit     = "Asset Processing Failed: "
)

func failure(op, prefix string, err error) error {
	msg := err.Error()
	if ge, ok := generation.AsGenerationError(err); ok {
		msg = ge.Message
	}
	return &Error{Op: op, Message: prefix + msg, Err: err}
}

func AsPreconditionError(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
