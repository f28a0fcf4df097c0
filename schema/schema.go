// Package schema loads layout definitions from CUE files, giving the
// CLI typed field descriptors without compiled-in models.
//
// A schema file names the database, the layout and the fields:
//
//	db:     "people"
//	layout: "Person"
//	fields: {
//		Name: "string"
//		Age: {kind: "int", lenient: true}
//		Total: {kind: "float", calc: true}
//	}
//
// A field is either a bare kind string or a struct with a kind and
// coercion options (notEmpty, lenient, calc).
package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/lariat-go/lariat/model"
)

// LoadError is a schema problem with the CUE position that caused it,
// when one is available.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var fieldKinds = map[string]func(string, ...model.FieldOption) *model.Field{
	"string":    model.StringField,
	"int":       model.IntField,
	"float":     model.FloatField,
	"bool":      model.BoolField,
	"date":      model.DateField,
	"time":      model.TimeField,
	"timestamp": model.TimestampField,
}

// Load reads one CUE schema file into a layout definition.
func Load(path string) (*model.Definition, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("cannot read schema: %v", err)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{path}, &load.Config{})
	if len(instances) == 0 {
		return nil, &LoadError{Path: path, Message: "no CUE instance loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("loading CUE file: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("building CUE value: %v", err), Pos: value.Pos()}
	}

	db, err := stringAt(value, "db")
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error(), Pos: value.Pos()}
	}
	layout, err := stringAt(value, "layout")
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error(), Pos: value.Pos()}
	}

	fieldsVal := value.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &LoadError{Path: path, Message: "schema has no fields", Pos: value.Pos()}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("iterating fields: %v", err), Pos: fieldsVal.Pos()}
	}

	var fields []*model.Field
	for iter.Next() {
		f, err := parseField(iter.Label(), iter.Value())
		if err != nil {
			return nil, &LoadError{Path: path, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		fields = append(fields, f)
	}

	def, err := model.NewDefinition(db, layout, fields...)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error(), Pos: value.Pos()}
	}
	return def, nil
}

func stringAt(v cue.Value, name string) (string, error) {
	field := v.LookupPath(cue.ParsePath(name))
	if !field.Exists() {
		return "", fmt.Errorf("schema has no %q", name)
	}
	s, err := field.String()
	if err != nil {
		return "", fmt.Errorf("%s: %v", name, err)
	}
	if s == "" {
		return "", fmt.Errorf("%s is empty", name)
	}
	return s, nil
}

// parseField handles both field forms: a bare kind string and a struct
// with a kind plus options.
func parseField(name string, v cue.Value) (*model.Field, error) {
	kind, err := v.String()
	var opts []model.FieldOption
	if err != nil {
		if kind, err = fieldKind(v); err != nil {
			return nil, fmt.Errorf("field %q: %v", name, err)
		}
		if opts, err = fieldOptions(v); err != nil {
			return nil, fmt.Errorf("field %q: %v", name, err)
		}
	}

	build, ok := fieldKinds[kind]
	if !ok {
		return nil, fmt.Errorf("field %q: unknown kind %q", name, kind)
	}
	return build(name, opts...), nil
}

func fieldKind(v cue.Value) (string, error) {
	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return "", fmt.Errorf("missing kind")
	}
	return kindVal.String()
}

func fieldOptions(v cue.Value) ([]model.FieldOption, error) {
	flags := []struct {
		name string
		opt  model.FieldOption
	}{
		{"notEmpty", model.NotEmpty()},
		{"lenient", model.Lenient()},
		{"calc", model.Calc()},
	}

	var opts []model.FieldOption
	for _, flag := range flags {
		fv := v.LookupPath(cue.ParsePath(flag.name))
		if !fv.Exists() {
			continue
		}
		on, err := fv.Bool()
		if err != nil {
			return nil, fmt.Errorf("%s: %v", flag.name, err)
		}
		if on {
			opts = append(opts, flag.opt)
		}
	}
	return opts, nil
}
