package csvmap

import (
	"fmt"
	"strings"
)

// Field describes one output column: its name and conversion kind.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered, immutable list of fields of one record shape.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates fields and fixes their order. Every field needs a
// unique, non-blank name; a field whose kind has no converter fails here
// rather than on the first row.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("csvmap: schema has no fields")
	}
	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, ok := converters[f.Kind]; !ok {
			return nil, &UnsupportedKindError{Field: f.Name, Kind: f.Kind.String()}
		}
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("csvmap: field %d has no name", i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("csvmap: duplicate field %q", f.Name)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema for package-level shapes; it panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSchema builds a schema from "name:kind" pairs separated by commas,
// e.g. "id:long,nome:text,preco:float". A pair without a kind is text.
func ParseSchema(def string) (*Schema, error) {
	parts := strings.Split(def, ",")
	fields := make([]Field, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, kindName, found := strings.Cut(p, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("csvmap: schema entry %q has no name", p)
		}
		if !found {
			fields = append(fields, Field{Name: name, Kind: Text})
			continue
		}
		k, ok := ParseKind(kindName)
		if !ok {
			kindName = strings.TrimSpace(kindName)
			return nil, &UnsupportedKindError{Field: name, Kind: kindName, Suggest: suggestKind(kindName)}
		}
		fields = append(fields, Field{Name: name, Kind: k})
	}
	return NewSchema(fields...)
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Index returns the position of the named field.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Schema) String() string {
	var b strings.Builder
	for i, f := range s.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Kind.String())
	}
	return b.String()
}

// Map converts one line's raw columns into a Record. Missing trailing columns
// take their kind's zero value; extra columns are ignored. A failed
// conversion is returned as *ConversionError naming the field.
func (s *Schema) Map(cols []string) (Record, error) {
	values := make([]any, len(s.fields))
	for i, f := range s.fields {
		var raw string
		present := i < len(cols)
		if present {
			raw = cols[i]
		}
		v, err := converters[f.Kind](raw, present)
		if err != nil {
			return Record{}, &ConversionError{Field: f.Name, Kind: f.Kind, Value: raw, Err: err}
		}
		values[i] = v
	}
	return Record{schema: s, values: values}, nil
}
