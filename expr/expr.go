// Package expr defines the boolean expression model for record find
// conditions.
//
// An expression is a tree of literals (field comparisons or raw query
// fragments) combined with And, Or and Not. Expressions are pure values:
// every builder returns a new node and never mutates its arguments, so a
// sub-expression may be shared between several larger expressions without
// the uses interfering.
//
// Expr is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the findquery compiler.
//
// Expression kinds:
//   - Comparison: field <op> value, with a pre-serialized value string
//   - Raw: field matched against a literal wire-query fragment
//   - Group: AND/OR of child expressions, optionally negated
package expr

import "fmt"

// Op identifies a comparison operator.
type Op string

// Supported comparison operators. The wire encoding of each operator is
// owned by the findquery emitter; neq has no positive wire encoding and
// is rewritten to an omitted eq during compilation.
const (
	OpEq  Op = "eq"  // exact field match
	OpNeq Op = "neq" // negated exact match
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpCn  Op = "cn" // contains
	OpBw  Op = "bw" // begins with
	OpEw  Op = "ew" // ends with
	OpHw  Op = "hw" // has word
)

var validOps = map[Op]bool{
	OpEq: true, OpNeq: true,
	OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpCn: true, OpBw: true, OpEw: true, OpHw: true,
}

// Connector selects how a Group combines its children.
type Connector string

const (
	ConnAnd Connector = "AND"
	ConnOr  Connector = "OR"
)

// Expr represents a node in a find-condition expression tree.
//
// This is a sealed interface - only Comparison, Raw and Group implement
// it. All implementations are immutable values.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Literal is the subset of Expr that can appear as a leaf: a Comparison
// or a Raw fragment. Literals carry a structural hash so that sets of
// literals compare by (field, operator, value) rather than by identity.
type Literal interface {
	Expr
	literalNode() // Marker method - seals interface to this package

	// Hash returns the structural identity of the literal. Two literals
	// with equal hashes are the same condition.
	Hash() string
}

// Comparison is a single field-operator-value condition. Value is the
// pre-serialized wire string for the right-hand side; producing a
// protocol-safe value string is the caller's responsibility.
type Comparison struct {
	Field string
	Op    Op
	Value string
}

func (Comparison) exprNode()    {}
func (Comparison) literalNode() {}

// Hash implements Literal.
func (c Comparison) Hash() string {
	return "cmp\x00" + c.Field + "\x00" + string(c.Op) + "\x00" + c.Value
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %q", c.Field, c.Op, c.Value)
}

// Raw matches a field against a literal wire-query fragment. It is an
// escape hatch for protocol syntax the operator set cannot express
// (ranges, today's date, repeated wildcards). Raw fragments are opaque
// to every rewriting rule except negation.
type Raw struct {
	Field string
	Query string
}

func (Raw) exprNode()    {}
func (Raw) literalNode() {}

// Hash implements Literal.
func (r Raw) Hash() string {
	return "raw\x00" + r.Field + "\x00" + r.Query
}

func (r Raw) String() string {
	return fmt.Sprintf("%s raw %q", r.Field, r.Query)
}

// Group combines child expressions under one connector. Negated marks
// the whole group as negated; the findquery compiler pushes negation
// down to the leaves before emitting.
//
// Invariant: Children is non-empty. Builders in this package maintain
// the invariant; code constructing Group values directly must too.
type Group struct {
	Connector Connector
	Negated   bool
	Children  []Expr
}

func (Group) exprNode() {}

// NewComparison builds a Comparison literal, validating the operator and
// field name. The value must already be serialized to its wire string.
func NewComparison(field string, op Op, value string) (Comparison, error) {
	if field == "" {
		return Comparison{}, &InvalidExpressionError{Reason: "comparison field name is empty"}
	}
	if !validOps[op] {
		return Comparison{}, &InvalidExpressionError{Reason: fmt.Sprintf("unsupported operator %q", op)}
	}
	return Comparison{Field: field, Op: op, Value: value}, nil
}

// NewRaw builds a Raw literal.
func NewRaw(field, query string) (Raw, error) {
	if field == "" {
		return Raw{}, &InvalidExpressionError{Reason: "raw literal field name is empty"}
	}
	return Raw{Field: field, Query: query}, nil
}

// And combines expressions conjunctively. When both operands are already
// non-negated AND groups their children lists are concatenated into a
// single new group, keeping trees shallow.
func And(a, b Expr, rest ...Expr) Expr {
	e := combine(ConnAnd, a, b)
	for _, r := range rest {
		e = combine(ConnAnd, e, r)
	}
	return e
}

// Or combines expressions disjunctively, with the same associativity
// collapsing as And.
func Or(a, b Expr, rest ...Expr) Expr {
	e := combine(ConnOr, a, b)
	for _, r := range rest {
		e = combine(ConnOr, e, r)
	}
	return e
}

func combine(conn Connector, a, b Expr) Expr {
	ga, aok := a.(Group)
	gb, bok := b.(Group)
	if aok && bok &&
		ga.Connector == conn && gb.Connector == conn &&
		!ga.Negated && !gb.Negated {
		children := make([]Expr, 0, len(ga.Children)+len(gb.Children))
		children = append(children, ga.Children...)
		children = append(children, gb.Children...)
		return Group{Connector: conn, Children: children}
	}
	return Group{Connector: conn, Children: []Expr{a, b}}
}

// Not negates an expression. A bare literal is wrapped in a singleton
// negated group; an existing group gets a new value with the Negated
// flag toggled. The argument is never mutated.
func Not(e Expr) Expr {
	switch v := e.(type) {
	case Group:
		return Group{Connector: v.Connector, Negated: !v.Negated, Children: v.Children}
	default:
		return Group{Connector: ConnAnd, Negated: true, Children: []Expr{e}}
	}
}

// InvalidExpressionError reports a malformed expression at construction
// time. It is never deferred to compile time.
type InvalidExpressionError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidExpressionError) Error() string {
	return "invalid expression: " + e.Reason
}
