// Package fixedwidth parses fixed-width text records against a declarative
// column schema.
package fixedwidth

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type a column is parsed into.
type Kind int

const (
	String Kind = iota
	Float
	Int
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Float:
		return "float"
	case Int:
		return "int"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one field as a half-open byte range [Start, End) of a line.
// Optional columns that fail to parse are reported as absent instead of
// failing the record.
type Column struct {
	Name     string
	Start    int
	End      int
	Kind     Kind
	Optional bool
}

// Schema is an ordered list of columns. Columns may overlap.
type Schema []Column

// Validate checks column bounds and name uniqueness.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, c := range s {
		if c.Name == "" {
			return fmt.Errorf("column at [%d:%d] has no name", c.Start, c.End)
		}
		if c.Start < 0 || c.End <= c.Start {
			return fmt.Errorf("column %q has invalid range [%d:%d]", c.Name, c.Start, c.End)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("column %q declared twice", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Width returns the minimum line length that covers every column.
func (s Schema) Width() int {
	w := 0
	for _, c := range s {
		if c.End > w {
			w = c.End
		}
	}
	return w
}

// FieldError reports a required column that could not be parsed.
type FieldError struct {
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("column %s: parse %q: %v", e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Value is one parsed field. OK is false for empty strings and for optional
// numeric columns that failed to parse.
type Value struct {
	Raw   string
	Float float64
	Int   int
	OK    bool
}

// Record maps column names to parsed values.
type Record map[string]Value

// String returns the trimmed text of a column.
func (r Record) String(name string) string { return r[name].Raw }

// Float returns a float column and whether it was present.
func (r Record) Float(name string) (float64, bool) {
	v := r[name]
	return v.Float, v.OK
}

// Int returns an int column and whether it was present.
func (r Record) Int(name string) (int, bool) {
	v := r[name]
	return v.Int, v.OK
}

// Parse slices line according to the schema. Short lines yield empty fields;
// an empty required numeric field is a parse error.
func (s Schema) Parse(line string) (Record, error) {
	rec := make(Record, len(s))
	for _, c := range s {
		raw := strings.TrimSpace(slice(line, c.Start, c.End))
		v := Value{Raw: raw}

		switch c.Kind {
		case String:
			v.OK = raw != ""
		case Float:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				if !c.Optional {
					return nil, &FieldError{Column: c.Name, Value: raw, Err: err}
				}
				break
			}
			v.Float, v.OK = f, true
		case Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				if !c.Optional {
					return nil, &FieldError{Column: c.Name, Value: raw, Err: err}
				}
				break
			}
			v.Int, v.OK = n, true
		default:
			return nil, fmt.Errorf("column %s: unknown kind %s", c.Name, c.Kind)
		}

		rec[c.Name] = v
	}
	return rec, nil
}

func slice(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}
