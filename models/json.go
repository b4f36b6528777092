// Package models contains domain entities and business models for the pricing platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice is a jsonb-backed list of strings (channels, segments).
type StringSlice []string

// Value implements the driver.Valuer interface for StringSlice
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for StringSlice
func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	return scanJSON(value, s, "StringSlice")
}

// Contains reports whether v is present in the slice.
func (s StringSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// UintSlice is a jsonb-backed list of entity IDs.
type UintSlice []uint

// Value implements the driver.Valuer interface for UintSlice
func (s UintSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]uint{})
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for UintSlice
func (s *UintSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	return scanJSON(value, s, "UintSlice")
}

// Contains reports whether id is present in the slice.
func (s UintSlice) Contains(id uint) bool {
	for _, item := range s {
		if item == id {
			return true
		}
	}
	return false
}

func scanJSON(value any, dst any, typeName string) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %s", value, typeName)
	}
	return json.Unmarshal(bytes, dst)
}
