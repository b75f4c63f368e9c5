package types

import "fmt"

// ChangeType is the kind of a realtime change notification
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// IsValid checks if the change type is valid
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
		return true
	default:
		return false
	}
}

// String returns the string representation of the change type
func (t ChangeType) String() string {
	return string(t)
}

// ParseChangeType parses a string into a ChangeType
func ParseChangeType(s string) (ChangeType, error) {
	t := ChangeType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid change type: %s", s)
	}
	return t, nil
}
