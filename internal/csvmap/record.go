package csvmap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one mapped line: one value per schema field, in schema order.
// Records are immutable; accessors return the zero value when the index holds
// a different kind.
type Record struct {
	schema *Schema
	values []any
}

func (r Record) Schema() *Schema { return r.schema }

func (r Record) Len() int { return len(r.values) }

// Value returns the converted value at i: int, int64, float64, bool, string,
// or nil for an absent text column.
func (r Record) Value(i int) any { return r.values[i] }

func (r Record) Int(i int) int {
	v, _ := r.values[i].(int)
	return v
}

func (r Record) Long(i int) int64 {
	v, _ := r.values[i].(int64)
	return v
}

func (r Record) Float(i int) float64 {
	v, _ := r.values[i].(float64)
	return v
}

func (r Record) Bool(i int) bool {
	v, _ := r.values[i].(bool)
	return v
}

// Text returns the text at i; absent columns read as "".
func (r Record) Text(i int) string {
	v, _ := r.values[i].(string)
	return v
}

// IsNull reports whether the value at i is absent (text fields only).
func (r Record) IsNull(i int) bool { return r.values[i] == nil }

// Get looks a value up by field name.
func (r Record) Get(name string) (any, bool) {
	if r.schema == nil {
		return nil, false
	}
	i, ok := r.schema.Index(name)
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Values returns a copy of the values in field order.
func (r Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the values keyed by field name.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, v := range r.values {
		m[r.schema.fields[i].Name] = v
	}
	return m
}

// MarshalJSON encodes the record as an object whose keys follow field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range r.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.schema.fields[i].Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", r.schema.fields[i].Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Record) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range r.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s=%v", r.schema.fields[i].Name, v)
	}
	buf.WriteByte('}')
	return buf.String()
}
