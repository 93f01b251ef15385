package models

import (
	"database/sql/driver"
	"encoding/json"
	"testing"
)

// TestJSONMapImplementsInterfaces verifies JSONMap works with database/sql.
func TestJSONMapImplementsInterfaces(t *testing.T) {
	var _ driver.Valuer = JSONMap{}

	var m JSONMap
	var scanner interface{} = &m
	if _, ok := scanner.(interface{ Scan(interface{}) error }); !ok {
		t.Error("JSONMap does not implement sql.Scanner interface")
	}
}

func TestJSONMapValue(t *testing.T) {
	tests := []struct {
		name    string
		input   JSONMap
		wantNil bool
	}{
		{name: "nil map is NULL", input: nil, wantNil: true},
		{name: "empty map is an object", input: JSONMap{}, wantNil: false},
		{name: "null members are kept", input: JSONMap{"office_name": nil, "circle": "Delhi"}, wantNil: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, err := tt.input.Value()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if val != nil {
					t.Errorf("expected nil value, got %v", val)
				}
				return
			}

			var decoded map[string]interface{}
			if err := json.Unmarshal([]byte(val.(string)), &decoded); err != nil {
				t.Fatalf("Value() did not return valid JSON: %v", err)
			}
			if len(decoded) != len(tt.input) {
				t.Errorf("expected %d keys, got %d", len(tt.input), len(decoded))
			}
		})
	}
}

func TestJSONMapScan(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantKeys  int
		wantNil   bool
		wantError bool
	}{
		{name: "bytes", input: []byte(`{"flag":"https://flagcdn.com/in.png","region":"Asia"}`), wantKeys: 2},
		{name: "string", input: `{"region":"Europe"}`, wantKeys: 1},
		{name: "decoded map", input: map[string]interface{}{"a": 1.0}, wantKeys: 1},
		{name: "nil", input: nil, wantNil: true},
		{name: "json null", input: []byte("null"), wantNil: true},
		{name: "invalid json", input: []byte("{oops"), wantError: true},
		{name: "unsupported type", input: 42, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m JSONMap
			err := m.Scan(tt.input)

			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if m != nil {
					t.Errorf("expected nil map, got %v", m)
				}
				return
			}
			if len(m) != tt.wantKeys {
				t.Errorf("expected %d keys, got %d", tt.wantKeys, len(m))
			}
		})
	}
}

func TestJSONMapString(t *testing.T) {
	if got := JSONMap(nil).String(); got != "" {
		t.Errorf("expected empty string for nil map, got %q", got)
	}
	if got := (JSONMap{"region": "Asia"}).String(); got != `{"region":"Asia"}` {
		t.Errorf("unexpected JSON text %q", got)
	}
}
