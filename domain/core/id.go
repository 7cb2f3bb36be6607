package core

import (
	"strings"

	"github.com/google/uuid"
)

// NewResultID creates a time-ordered UUID v7 so stored results sort by
// creation, falling back to a random v4.
func NewResultID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// ParseResultID parses a result ID. Only UUIDs are accepted.
func ParseResultID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, NewInvalidInputError("result ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, NewInvalidInputError("result ID %q is not a UUID", s)
	}
	return id, nil
}
