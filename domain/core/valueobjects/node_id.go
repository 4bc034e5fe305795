package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"
)

// NodeID identifies a knowledge item. Store ids and filenames are free-form, so any
// non-empty string is accepted.
type NodeID struct {
	value string
}

// NewNodeID creates a NodeID from an existing string
func NewNodeID(id string) (NodeID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// MustNodeID panics on an empty id. Intended for tests and constants.
func MustNodeID(id string) NodeID {
	n, err := NewNodeID(id)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// Less orders ids lexically; used for canonical pair keys
func (id NodeID) Less(other NodeID) bool {
	return id.value < other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("NodeID must be a string")
	}
	id.value = s
	return nil
}
