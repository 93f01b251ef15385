package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a free-form JSON object stored in a jsonb column (meta, tax_rules).
// A nil map is stored as SQL NULL.
type JSONMap map[string]interface{}

// Scan implements sql.Scanner for reading jsonb columns.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case map[string]interface{}:
		*m = v
		return nil
	default:
		return fmt.Errorf("failed to scan JSONMap: unsupported type %T", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*m = nil
		return nil
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to unmarshal JSONMap: %w", err)
	}
	*m = out
	return nil
}

// Value implements driver.Valuer for writing jsonb columns.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap: %w", err)
	}
	return string(data), nil
}

// String returns the JSON text of m, or "" for a nil map.
func (m JSONMap) String() string {
	if m == nil {
		return ""
	}
	data, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return ""
	}
	return string(data)
}
