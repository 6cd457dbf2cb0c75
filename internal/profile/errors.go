package profile

import "errors"

// ValidationError reports an answer that blocks progress or cannot be
// turned into a recommendation request.
type ValidationError struct {
	Field string
	Issue string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Issue
}

// AsValidation unwraps err into a *ValidationError when it carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
