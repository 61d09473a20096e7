package lookup

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no page or extract exists for a topic.
	ErrNotFound = errors.New("lookup: topic not found")

	// ErrEmptyTopic is returned when the topic is blank.
	ErrEmptyTopic = errors.New("lookup: empty topic")
)

// StatusError is returned for unexpected HTTP statuses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup returned status %d: %s", e.StatusCode, e.Body)
}
