package server

import (
	"fmt"
	"net/http"
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBadUpload indicates the multipart request could not be read.
type ErrBadUpload struct {
	Message string
}

func (e *ErrBadUpload) Error() string {
	return fmt.Sprintf("upload error: %s", e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrValidation, *ErrBadUpload:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
