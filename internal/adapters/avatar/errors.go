package avatar

import "fmt"

var (
	ErrNotFound = fmt.Errorf("avatar not found")
	ErrTooLarge = fmt.Errorf("avatar too large")
)

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("avatar cdn status %d: %s", e.Status, e.Body)
}
