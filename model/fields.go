// Package model maps typed record definitions onto the wire protocol:
// field descriptors with native<->wire value coercion, layout
// definitions, records and a chainable record set for finds.
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lariat-go/lariat/expr"
)

// Kind is the native type of a field's values.
type Kind string

const (
	KindString    Kind = "string"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindBool      Kind = "bool"
	KindDate      Kind = "date"
	KindTime      Kind = "time"
	KindTimestamp Kind = "timestamp"
)

// Server-side value layouts. The server reports its formats in the
// datasource element but in practice they are the US defaults.
const (
	DateLayout      = "01/02/2006"
	TimeLayout      = "15:04:05"
	TimestampLayout = "01/02/2006 15:04:05"
)

// numericScrub strips currency symbols, thousands separators and other
// junk a lenient numeric field tolerates before parsing.
var numericScrub = regexp.MustCompile(`[^0-9.\-]`)

// Field describes one layout field: its name, native kind and coercion
// behavior. Fields are immutable after construction and are the handles
// application code uses to build find conditions and sort rules.
type Field struct {
	name     string
	kind     Kind
	notEmpty bool
	lenient  bool
	calc     bool
}

// FieldOption configures a field descriptor.
type FieldOption func(*Field)

// NotEmpty makes empty wire values a coercion error instead of a nil
// native value.
func NotEmpty() FieldOption {
	return func(f *Field) { f.notEmpty = true }
}

// Lenient makes numeric coercion scrub non-numeric characters before
// parsing, matching how the server itself indexes number fields.
func Lenient() FieldOption {
	return func(f *Field) { f.lenient = true }
}

// Calc marks a calculated field. Calculated fields are readable but
// rejected on write.
func Calc() FieldOption {
	return func(f *Field) { f.calc = true }
}

func newField(name string, kind Kind, opts []FieldOption) *Field {
	f := &Field{name: name, kind: kind}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StringField declares a text field.
func StringField(name string, opts ...FieldOption) *Field {
	return newField(name, KindString, opts)
}

// IntField declares an integer number field.
func IntField(name string, opts ...FieldOption) *Field {
	return newField(name, KindInt, opts)
}

// FloatField declares a decimal number field.
func FloatField(name string, opts ...FieldOption) *Field {
	return newField(name, KindFloat, opts)
}

// BoolField declares a number field holding 0 or 1.
func BoolField(name string, opts ...FieldOption) *Field {
	return newField(name, KindBool, opts)
}

// DateField declares a date field.
func DateField(name string, opts ...FieldOption) *Field {
	return newField(name, KindDate, opts)
}

// TimeField declares a time field.
func TimeField(name string, opts ...FieldOption) *Field {
	return newField(name, KindTime, opts)
}

// TimestampField declares a timestamp field.
func TimestampField(name string, opts ...FieldOption) *Field {
	return newField(name, KindTimestamp, opts)
}

// Name returns the field's layout name as declared.
func (f *Field) Name() string { return f.name }

// Kind returns the field's native kind.
func (f *Field) Kind() Kind { return f.kind }

// IsCalc reports whether the field is calculated (read-only).
func (f *Field) IsCalc() bool { return f.calc }

// FromWire coerces a wire string into the field's native type. An empty
// wire value becomes nil for every kind but string, or an error when the
// field is NotEmpty.
func (f *Field) FromWire(s string) (any, error) {
	if s == "" && f.kind != KindString {
		if f.notEmpty {
			return nil, &CoercionError{Field: f.name, Value: s, Reason: "value is empty"}
		}
		return nil, nil
	}

	switch f.kind {
	case KindString:
		if s == "" && f.notEmpty {
			return nil, &CoercionError{Field: f.name, Value: s, Reason: "value is empty"}
		}
		return s, nil
	case KindInt:
		raw := f.scrub(s)
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &CoercionError{Field: f.name, Value: s, Reason: "not an integer"}
		}
		return n, nil
	case KindFloat:
		raw := f.scrub(s)
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &CoercionError{Field: f.name, Value: s, Reason: "not a number"}
		}
		return x, nil
	case KindBool:
		return s != "0", nil
	case KindDate:
		return f.parseTime(s, DateLayout)
	case KindTime:
		return f.parseTime(s, TimeLayout)
	case KindTimestamp:
		return f.parseTime(s, TimestampLayout)
	}
	return nil, &CoercionError{Field: f.name, Value: s, Reason: fmt.Sprintf("unknown kind %q", f.kind)}
}

func (f *Field) scrub(s string) string {
	s = strings.TrimSpace(s)
	if f.lenient {
		return numericScrub.ReplaceAllString(s, "")
	}
	return s
}

func (f *Field) parseTime(s, layout string) (any, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return nil, &CoercionError{Field: f.name, Value: s, Reason: fmt.Sprintf("does not match layout %s", layout)}
	}
	return t, nil
}

// ToWire serializes a native value into its wire string. Calculated
// fields reject writes; nil serializes to the empty string unless the
// field is NotEmpty.
func (f *Field) ToWire(v any) (string, error) {
	if f.calc {
		return "", &CoercionError{Field: f.name, Reason: "calculated field is read-only"}
	}
	if v == nil {
		if f.notEmpty {
			return "", &CoercionError{Field: f.name, Reason: "value is required"}
		}
		return "", nil
	}

	switch f.kind {
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			return strconv.Itoa(n), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		}
	case KindFloat:
		switch x := v.(type) {
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case float32:
			return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
		case int:
			return strconv.Itoa(x), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			if b {
				return "1", nil
			}
			return "0", nil
		}
	case KindDate:
		if t, ok := v.(time.Time); ok {
			return t.Format(DateLayout), nil
		}
	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t.Format(TimeLayout), nil
		}
	case KindTimestamp:
		if t, ok := v.(time.Time); ok {
			return t.Format(TimestampLayout), nil
		}
	}
	return "", &CoercionError{Field: f.name, Value: fmt.Sprintf("%v", v), Reason: fmt.Sprintf("cannot serialize %T as %s", v, f.kind)}
}

func (f *Field) compare(op expr.Op, v any) (expr.Expr, error) {
	w, err := f.ToWire(v)
	if err != nil {
		return nil, err
	}
	return expr.NewComparison(f.name, op, w)
}

// Eq builds an exact-match condition on this field.
func (f *Field) Eq(v any) (expr.Expr, error) { return f.compare(expr.OpEq, v) }

// Neq builds a negated exact-match condition.
func (f *Field) Neq(v any) (expr.Expr, error) { return f.compare(expr.OpNeq, v) }

// Gt builds a greater-than condition.
func (f *Field) Gt(v any) (expr.Expr, error) { return f.compare(expr.OpGt, v) }

// Gte builds a greater-or-equal condition.
func (f *Field) Gte(v any) (expr.Expr, error) { return f.compare(expr.OpGte, v) }

// Lt builds a less-than condition.
func (f *Field) Lt(v any) (expr.Expr, error) { return f.compare(expr.OpLt, v) }

// Lte builds a less-or-equal condition.
func (f *Field) Lte(v any) (expr.Expr, error) { return f.compare(expr.OpLte, v) }

func (f *Field) stringCompare(op expr.Op, v string) (expr.Expr, error) {
	if f.kind != KindString {
		return nil, &CoercionError{Field: f.name, Value: v, Reason: fmt.Sprintf("%s applies to string fields only", op)}
	}
	return expr.NewComparison(f.name, op, v)
}

// Contains builds a substring-match condition. String fields only.
func (f *Field) Contains(v string) (expr.Expr, error) { return f.stringCompare(expr.OpCn, v) }

// BeginsWith builds a prefix-match condition. String fields only.
func (f *Field) BeginsWith(v string) (expr.Expr, error) { return f.stringCompare(expr.OpBw, v) }

// EndsWith builds a suffix-match condition. String fields only.
func (f *Field) EndsWith(v string) (expr.Expr, error) { return f.stringCompare(expr.OpEw, v) }

// HasWord builds a word-match condition. String fields only.
func (f *Field) HasWord(v string) (expr.Expr, error) { return f.stringCompare(expr.OpHw, v) }

// Matches builds a raw wire-query condition on this field, passing the
// fragment to the server untouched.
func (f *Field) Matches(query string) (expr.Expr, error) {
	return expr.NewRaw(f.name, query)
}

// SortOrder is a sort direction token as the protocol spells it.
type SortOrder string

const (
	OrderAscend  SortOrder = "ascend"
	OrderDescend SortOrder = "descend"
)

// Sort is one sort rule: a field and a direction.
type Sort struct {
	Field string
	Order SortOrder
}

// Ascend sorts ascending on this field.
func (f *Field) Ascend() Sort { return Sort{Field: f.name, Order: OrderAscend} }

// Descend sorts descending on this field.
func (f *Field) Descend() Sort { return Sort{Field: f.name, Order: OrderDescend} }

// SortBy builds a sort rule by field name, for callers without a field
// descriptor in hand.
func SortBy(field string, order SortOrder) Sort {
	return Sort{Field: field, Order: order}
}

// CoercionError reports a value that cannot move between its native and
// wire representations for a field.
type CoercionError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("field %s: cannot coerce %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}
