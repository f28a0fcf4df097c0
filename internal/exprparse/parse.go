// Package exprparse turns a filter string into an expression tree.
//
// The filter syntax is expr-lang's: identifiers name layout fields,
// literals are Go-like, and conditions combine with &&, || and !.
// Comparison operators map onto find operators, including the string
// operators contains, startsWith and endsWith. Two extra forms cover
// the rest of the protocol: hasWord(Field, "value") for word matching
// and Field matches "fragment" for raw wire queries.
//
//	Name == "John" && (Age > 30 || City startsWith "New")
package exprparse

import (
	"fmt"
	"strconv"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/lariat-go/lariat/expr"
)

// ParseError reports a filter string the parser or the mapping to find
// operators rejected.
type ParseError struct {
	Input   string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse filter %q: %s", e.Input, e.Message)
}

// Parse maps a filter string onto an expression tree.
func Parse(src string) (expr.Expr, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, &ParseError{Input: src, Message: err.Error()}
	}
	e, err := mapNode(tree.Node)
	if err != nil {
		return nil, &ParseError{Input: src, Message: err.Error()}
	}
	return e, nil
}

var comparisonOps = map[string]expr.Op{
	"==":         expr.OpEq,
	"!=":         expr.OpNeq,
	">":          expr.OpGt,
	">=":         expr.OpGte,
	"<":          expr.OpLt,
	"<=":         expr.OpLte,
	"contains":   expr.OpCn,
	"startsWith": expr.OpBw,
	"endsWith":   expr.OpEw,
}

func mapNode(node ast.Node) (expr.Expr, error) {
	switch n := node.(type) {
	case *ast.BinaryNode:
		return mapBinary(n)
	case *ast.UnaryNode:
		if n.Operator != "!" && n.Operator != "not" {
			return nil, fmt.Errorf("unsupported unary operator %q", n.Operator)
		}
		inner, err := mapNode(n.Node)
		if err != nil {
			return nil, err
		}
		return expr.Not(inner), nil
	case *ast.CallNode:
		return mapCall(n)
	default:
		return nil, fmt.Errorf("unsupported expression %s", node.String())
	}
}

func mapBinary(n *ast.BinaryNode) (expr.Expr, error) {
	switch n.Operator {
	case "&&", "and":
		return mapPair(n, expr.And)
	case "||", "or":
		return mapPair(n, expr.Or)
	case "matches":
		field, err := fieldName(n.Left)
		if err != nil {
			return nil, err
		}
		query, err := stringValue(n.Right)
		if err != nil {
			return nil, err
		}
		return expr.NewRaw(field, query)
	}

	op, ok := comparisonOps[n.Operator]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q", n.Operator)
	}
	field, err := fieldName(n.Left)
	if err != nil {
		return nil, err
	}
	value, err := literalValue(n.Right)
	if err != nil {
		return nil, err
	}
	return expr.NewComparison(field, op, value)
}

func mapPair(n *ast.BinaryNode, join func(a, b expr.Expr, rest ...expr.Expr) expr.Expr) (expr.Expr, error) {
	left, err := mapNode(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := mapNode(n.Right)
	if err != nil {
		return nil, err
	}
	return join(left, right), nil
}

// mapCall handles the hasWord(Field, "value") form, which has no
// operator spelling in the filter syntax.
func mapCall(n *ast.CallNode) (expr.Expr, error) {
	callee, ok := n.Callee.(*ast.IdentifierNode)
	if !ok || callee.Value != "hasWord" {
		return nil, fmt.Errorf("unsupported function call %s", n.Callee.String())
	}
	if len(n.Arguments) != 2 {
		return nil, fmt.Errorf("hasWord takes a field and a value, got %d arguments", len(n.Arguments))
	}
	field, err := fieldName(n.Arguments[0])
	if err != nil {
		return nil, err
	}
	value, err := stringValue(n.Arguments[1])
	if err != nil {
		return nil, err
	}
	return expr.NewComparison(field, expr.OpHw, value)
}

func fieldName(node ast.Node) (string, error) {
	ident, ok := node.(*ast.IdentifierNode)
	if !ok {
		return "", fmt.Errorf("left-hand side %s is not a field name", node.String())
	}
	return ident.Value, nil
}

func stringValue(node ast.Node) (string, error) {
	s, ok := node.(*ast.StringNode)
	if !ok {
		return "", fmt.Errorf("%s is not a string literal", node.String())
	}
	return s.Value, nil
}

// literalValue serializes a literal operand to its wire string.
func literalValue(node ast.Node) (string, error) {
	switch v := node.(type) {
	case *ast.StringNode:
		return v.Value, nil
	case *ast.IntegerNode:
		return strconv.Itoa(v.Value), nil
	case *ast.FloatNode:
		return strconv.FormatFloat(v.Value, 'f', -1, 64), nil
	case *ast.BoolNode:
		if v.Value {
			return "1", nil
		}
		return "0", nil
	case *ast.UnaryNode:
		// Negative numbers parse as unary minus over a literal.
		if v.Operator == "-" {
			inner, err := literalValue(v.Node)
			if err != nil {
				return "", err
			}
			return "-" + inner, nil
		}
	}
	return "", fmt.Errorf("%s is not a literal value", node.String())
}
