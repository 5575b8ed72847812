package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RunID identifies one persisted analysis run. Generated IDs are UUID v7,
// so they sort by creation time.
type RunID string

// NewRunID returns a fresh time-ordered run ID
func NewRunID() RunID {
	id, err := uuid.NewV7()
	if err != nil {
		// clock or entropy failure; a random ID is still unique
		id = uuid.New()
	}
	return RunID(id.String())
}

func (id RunID) String() string { return string(id) }

func (id RunID) IsEmpty() bool { return id == "" }

// ParseRunID accepts any UUID, trimming surrounding whitespace
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: run ID cannot be empty", ErrInvalidInput)
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("%w: run ID %q is not a UUID", ErrInvalidInput, s)
	}
	return RunID(s), nil
}
