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
	RunID      ID
	GroupLabel ID
	CaseLabel  ID
)

func (id RunID) String() string      { return ID(id).String() }
func (id GroupLabel) String() string { return ID(id).String() }
func (id CaseLabel) String() string  { return ID(id).String() }

// NewRunID identifies one conversion run.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseGroupLabel parses a string into GroupLabel
func ParseGroupLabel(s string) (GroupLabel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("group label cannot be empty")
	}
	return GroupLabel(s), nil
}

// ParseCaseLabel parses a string into CaseLabel
func ParseCaseLabel(s string) (CaseLabel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("case label cannot be empty")
	}
	return CaseLabel(s), nil
}
