package emission

import "errors"

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrMissingWeight    = errors.New("weight is missing")
	ErrInvalidWeight    = errors.New("invalid weight")
)

// InternalError marks a failure the client could not have caused, such as
// a failed forward pass or an unusable model output.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func internal(err error) error {
	return &InternalError{Err: err}
}
