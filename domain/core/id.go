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
	ModelID ID
	RunID   ID
)

func NewModelID() ModelID { return ModelID(NewID()) }
func NewRunID() RunID     { return RunID(NewID()) }

func (id ModelID) String() string { return ID(id).String() }
func (id RunID) String() string   { return ID(id).String() }

func (id ModelID) IsEmpty() bool { return ID(id).IsEmpty() }
func (id RunID) IsEmpty() bool   { return ID(id).IsEmpty() }

// ParseModelID validates a model identifier read from storage or the command line
func ParseModelID(s string) (ModelID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("model ID cannot be empty")
	}
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return "", fmt.Errorf("model ID %q must not contain path elements", s)
	}
	return ModelID(s), nil
}
