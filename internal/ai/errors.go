package ai

import (
	"errors"
	"fmt"
)

// APIError is a failed completion call. StatusCode is 0 when the request
// never got an HTTP response.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s API Error: %d - %s", e.Provider, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Render turns a completion failure into the text shown to the user.
func Render(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return fmt.Sprintf("Completion Error: %v", err)
}
