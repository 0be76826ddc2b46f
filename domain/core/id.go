package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// v7 sorts by creation time, which the registry relies on for "latest"
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ModelID   ID
	RequestID ID
)

func (id ModelID) String() string   { return ID(id).String() }
func (id RequestID) String() string { return ID(id).String() }

// NewModelID creates a time-ordered model identifier
func NewModelID() ModelID { return ModelID(NewID()) }

// NewRequestID creates a request identifier for prediction logs
func NewRequestID() RequestID { return RequestID(NewID()) }

// ParseModelID parses a string into ModelID
func ParseModelID(s string) (ModelID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("model ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid model ID %q: %w", s, err)
	}
	return ModelID(s), nil
}
