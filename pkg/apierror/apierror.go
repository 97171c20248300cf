// Package apierror defines an error type that carries the HTTP status a
// failure should surface with, so services can classify failures without
// importing net/http handler code.
package apierror

type APIError struct {
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func New(status int, message string) *APIError {
	return &APIError{Message: message, HTTPStatus: status}
}
