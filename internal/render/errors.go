package render

// RenderError is a failure to lay out or encode a document or archive.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }
