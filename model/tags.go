package model

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
)

// Tags represents a set of free-form labels stored as JSONB in PostgreSQL
type Tags []string

// Value implements the driver.Valuer interface for database storage
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(t))
}

// Scan implements the sql.Scanner interface for database retrieval
func (t *Tags) Scan(value interface{}) error {
	if value == nil {
		*t = Tags{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, t)
}

// Contains reports whether the tag set holds the given label
func (t Tags) Contains(label string) bool {
	for _, tag := range t {
		if tag == label {
			return true
		}
	}
	return false
}
