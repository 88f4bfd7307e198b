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
	BatchID   ID
	RequestID ID
)

func (id BatchID) String() string   { return ID(id).String() }
func (id RequestID) String() string { return ID(id).String() }

// NewBatchID identifies one ingest run.
func NewBatchID() BatchID { return BatchID(NewID()) }

// NewRequestID identifies one API or tool request in logs.
func NewRequestID() RequestID { return RequestID(NewID()) }

// ParseBatchID parses a string into BatchID
func ParseBatchID(s string) (BatchID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("batch ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("batch ID %q is not a UUID: %w", s, err)
	}
	return BatchID(s), nil
}

// ParseRequestID accepts a caller-supplied request ID when it is a UUID
func ParseRequestID(s string) (RequestID, error) {
	if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
		return "", fmt.Errorf("request ID %q is not a UUID: %w", s, err)
	}
	return RequestID(strings.TrimSpace(s)), nil
}
