package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Definition binds a database and layout to the set of fields the
// application works with. A Definition does not have to cover every
// field the layout exposes; unknown fields in a response are kept as
// raw strings.
type Definition struct {
	Database string
	Layout   string

	fields []*Field
	byName map[string]*Field
}

// canonicalName normalizes a field name for lookup. The server treats
// names case-insensitively and composed/decomposed Unicode forms as
// equal.
func canonicalName(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}

// NewDefinition builds a layout definition. Field names that collide
// after canonicalization are an error.
func NewDefinition(database, layout string, fields ...*Field) (*Definition, error) {
	if database == "" {
		return nil, fmt.Errorf("definition: database name is empty")
	}
	if layout == "" {
		return nil, fmt.Errorf("definition: layout name is empty")
	}

	d := &Definition{
		Database: database,
		Layout:   layout,
		fields:   fields,
		byName:   make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		key := canonicalName(f.Name())
		if _, dup := d.byName[key]; dup {
			return nil, fmt.Errorf("definition %s/%s: duplicate field %q", database, layout, f.Name())
		}
		d.byName[key] = f
	}
	return d, nil
}

// Field looks up a field by name, case-insensitively.
func (d *Definition) Field(name string) (*Field, bool) {
	f, ok := d.byName[canonicalName(name)]
	return f, ok
}

// Fields returns the fields in declaration order.
func (d *Definition) Fields() []*Field {
	return d.fields
}
