package panel

import "fmt"

// UnexpectedStatusError represents a non-retryable response from the panel
// API. Callers treat it as "no data this cycle".
type UnexpectedStatusError struct {
	StatusCode int
	Detail     string
}

func (e *UnexpectedStatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Detail)
}

func newUnexpectedStatusError(statusCode int, detail string) *UnexpectedStatusError {
	return &UnexpectedStatusError{
		StatusCode: statusCode,
		Detail:     detail,
	}
}
