package generation

import "errors"

// GenerationError is returned for every failed call to the content service. Message is the text
// shown to the user; Err keeps the underlying cause for logs and errors.Is.
type GenerationError struct {
	Op      string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

const (
	invalidJSONPrefix = "Failed to generate valid JSON for the requested content: "
	contentPrefix     = "Failed to generate content: "
)

func jsonFailure(op string, err error) error {
	return &GenerationError{Op: op, Message: invalidJSONPrefix + err.Error(), Err: err}
}

func contentFailure(op string, err error) error {
	return &GenerationError{Op: op, Message: contentPrefix + err.Error(), Err: err}
}

// AsGenerationError unwraps err to a *GenerationError when there is one.
func AsGenerationError(err error) (*GenerationError, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
