package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// shape is the immutable field layout of a Record. Copies share it.
type shape struct {
	names []string
	index map[string]int
}

// Record is a fixed-shape node with ordered named fields.
// Fields cannot be added after construction; Set on an unknown field fails.
type Record struct {
	shape  *shape
	values []any
}

// Field is a name/value pair used to build a Record.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for a Field literal.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// NewRecord builds a record from fields in order. Duplicate names panic.
func NewRecord(fields ...Field) *Record {
	s := &shape{
		names: make([]string, len(fields)),
		index: make(map[string]int, len(fields)),
	}
	values := make([]any, len(fields))
	for i, f := range fields {
		if _, dup := s.index[f.Name]; dup {
			panic(fmt.Sprintf("tree: duplicate record field %q", f.Name))
		}
		s.names[i] = f.Name
		s.index[f.Name] = i
		values[i] = f.Value
	}
	return &Record{shape: s, values: values}
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.values) }

// Names returns the field names in declaration order.
func (r *Record) Names() []string {
	out := make([]string, len(r.shape.names))
	copy(out, r.shape.names)
	return out
}

// Has reports whether the record declares the field.
func (r *Record) Has(name string) bool {
	_, ok := r.shape.index[name]
	return ok
}

// Get returns the field value.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.shape.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Set assigns a field in place. Unknown fields are an error.
func (r *Record) Set(name string, v any) error {
	i, ok := r.shape.index[name]
	if !ok {
		return fmt.Errorf("record has no field %q", name)
	}
	r.values[i] = v
	return nil
}

// With returns a copy of the record with one field replaced.
// The receiver is left untouched and every other field value is shared.
func (r *Record) With(name string, v any) (*Record, error) {
	i, ok := r.shape.index[name]
	if !ok {
		return nil, fmt.Errorf("record has no field %q", name)
	}
	values := make([]any, len(r.values))
	copy(values, r.values)
	values[i] = v
	return &Record{shape: r.shape, values: values}, nil
}

// Each calls fn for every field in order.
func (r *Record) Each(fn func(name string, v any)) {
	for i, name := range r.shape.names {
		fn(name, r.values[i])
	}
}

// Equal reports deep equality of field names, order and values.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.values) != len(o.values) {
		return false
	}
	for i, name := range r.shape.names {
		if o.shape.names[i] != name {
			return false
		}
		if !Equal(r.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as an object, preserving field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.shape.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<record: %v>", err)
	}
	return string(b)
}
