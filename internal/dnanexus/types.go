package dnanexus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ObjectRef identifies a data object inside a project.
type ObjectRef struct {
	Project string `json:"project"`
	ID      string `json:"id"`
}

// RecordQuery selects records of a type created in [CreatedAfter, CreatedBefore).
type RecordQuery struct {
	Project       string
	Folder        string
	TypeName      string
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

// FileQuery selects files whose name matches a glob, anywhere under Folder.
type FileQuery struct {
	Project  string
	Folder   string
	NameGlob string
}

// RecordDescription is the describe output of a record, with its details
// and properties.
type RecordDescription struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Project    string                     `json:"project"`
	Details    map[string]json.RawMessage `json:"details"`
	Properties map[string]string          `json:"properties"`
}

// Flag is the state of a boolean property.
type Flag int

const (
	FlagAbsent Flag = iota
	FlagFalse
	FlagTrue
)

func (f Flag) String() string {
	switch f {
	case FlagFalse:
		return "false"
	case FlagTrue:
		return "true"
	}
	return "absent"
}

// Property returns a property value and whether it is set.
func (d RecordDescription) Property(key string) (string, bool) {
	value, ok := d.Properties[key]
	return value, ok
}

// Flag reads a boolean property. Properties are always strings on the
// platform, so "false" has to be parsed rather than tested for presence.
func (d RecordDescription) Flag(key string) (Flag, error) {
	value, ok := d.Properties[key]
	if !ok {
		return FlagAbsent, nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return FlagAbsent, fmt.Errorf("property %s: %w", key, err)
	}
	if parsed {
		return FlagTrue, nil
	}
	return FlagFalse, nil
}

// DetailString reads a string (or number, formatted) detail value.
func (d RecordDescription) DetailString(key string) (string, error) {
	raw, ok := d.Details[key]
	if !ok {
		return "", fmt.Errorf("detail %s is not set", key)
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), nil
	}
	return "", fmt.Errorf("detail %s is not a string: %s", key, string(raw))
}

// DetailInt reads an integer detail value stored either as a number or a string.
func (d RecordDescription) DetailInt(key string) (int, error) {
	str, err := d.DetailString(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return 0, fmt.Errorf("detail %s: %w", key, err)
	}
	return value, nil
}
