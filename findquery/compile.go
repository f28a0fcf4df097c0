package findquery

import (
	"fmt"
	"strings"

	"github.com/lariat-go/lariat/expr"
)

// Param is one wire parameter in emission order.
type Param struct {
	Name  string
	Value string
}

// Compiled is the wire rendering of one expression.
//
// Directive is the value of the compound find directive parameter
// ("-query"); Params holds the identifier-indexed field and value
// parameters it references, in emission order. The request layer merges
// both into the outgoing request unmodified.
type Compiled struct {
	Directive string
	Params    []Param

	// simple is non-nil when the result is a single positive conjunction
	// of comparisons, which the plain find form can carry.
	simple []expr.Comparison
}

// Compile translates an expression tree into compound find parameters.
//
// Compile is pure: it never mutates the input tree, holds no state
// between calls, and assigns identifiers from a counter local to the
// call. It fails with *expr.InvalidExpressionError semantics already
// ruled out at construction time, with *UnrepresentableError when the
// branch omit sets cannot form a subset chain, and with *InternalError
// if a pipeline invariant breaks.
func Compile(e expr.Expr) (*Compiled, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot compile nil expression")
	}
	if err := checkGroups(e); err != nil {
		return nil, err
	}

	dnf := flatten(distribute(pushNegations(e)))

	branches, err := splitBranches(dnf)
	if err != nil {
		return nil, err
	}
	ordered, err := orderBranches(branches)
	if err != nil {
		return nil, err
	}
	return emit(ordered)
}

// checkGroups walks the input tree rejecting groups with no children.
// The builders never produce one, but a hand-constructed empty group
// would otherwise vanish during distribution and silently widen the
// query (an empty OR distributed under an AND drops its siblings).
func checkGroups(e expr.Expr) error {
	g, ok := e.(expr.Group)
	if !ok {
		return nil
	}
	if len(g.Children) == 0 {
		return &InternalError{Stage: "validate", Message: "group with no children"}
	}
	for _, child := range g.Children {
		if err := checkGroups(child); err != nil {
			return err
		}
	}
	return nil
}

// Simple reports whether the compiled expression fits the plain find
// form: one positive conjunctive branch, no omits, comparisons only.
func (c *Compiled) Simple() bool {
	return c.simple != nil
}

// SimpleParams renders the compiled expression in the plain find form:
// one field-name parameter per comparison carrying the raw value, plus a
// ".op" parameter carrying the operator token. Returns nil unless
// Simple() is true.
func (c *Compiled) SimpleParams() []Param {
	if c.simple == nil {
		return nil
	}
	params := make([]Param, 0, 2*len(c.simple))
	for _, cmp := range c.simple {
		params = append(params,
			Param{Name: cmp.Field, Value: cmp.Value},
			Param{Name: cmp.Field + ".op", Value: string(cmp.Op)},
		)
	}
	return params
}

// emit walks the ordered branches assigning q1..qN identifiers and
// builds the directive string and parameter list. Positive literals come
// first within a branch, then the branch's omits in structural order;
// every part is joined with ";".
func emit(branches []*branch) (*Compiled, error) {
	c := &Compiled{}
	counter := 0
	var parts []string

	nextID := func() string {
		counter++
		return fmt.Sprintf("q%d", counter)
	}

	for _, b := range branches {
		var posIDs []string
		for _, lit := range b.pos {
			id := nextID()
			if err := c.addParams(id, lit); err != nil {
				return nil, err
			}
			posIDs = append(posIDs, id)
		}
		if len(posIDs) > 0 {
			parts = append(parts, "("+strings.Join(posIDs, ",")+")")
		}
		for _, lit := range b.sortedOmits() {
			id := nextID()
			if err := c.addParams(id, lit); err != nil {
				return nil, err
			}
			parts = append(parts, "!("+id+")")
		}
	}

	c.Directive = strings.Join(parts, ";")
	c.setSimple(branches)
	return c, nil
}

func (c *Compiled) addParams(id string, lit expr.Literal) error {
	switch l := lit.(type) {
	case expr.Comparison:
		value, err := encodeComparison(l)
		if err != nil {
			return err
		}
		c.Params = append(c.Params,
			Param{Name: "-" + id, Value: l.Field},
			Param{Name: "-" + id + ".value", Value: value},
		)
		return nil
	case expr.Raw:
		c.Params = append(c.Params,
			Param{Name: "-" + id, Value: l.Field},
			Param{Name: "-" + id + ".value", Value: l.Query},
		)
		return nil
	default:
		return &InternalError{Stage: "emit", Message: fmt.Sprintf("unknown literal type %T", lit)}
	}
}

// encodeComparison produces the operator-encoded value string. neq never
// reaches emission; branch processing rewrites it to an omitted eq.
func encodeComparison(c expr.Comparison) (string, error) {
	switch c.Op {
	case expr.OpEq:
		return "==" + c.Value, nil
	case expr.OpHw:
		return "=" + c.Value, nil
	case expr.OpCn:
		return "*" + c.Value + "*", nil
	case expr.OpBw:
		return c.Value + "*", nil
	case expr.OpEw:
		return "*" + c.Value, nil
	case expr.OpGt:
		return ">" + c.Value, nil
	case expr.OpGte:
		return ">=" + c.Value, nil
	case expr.OpLt:
		return "<" + c.Value, nil
	case expr.OpLte:
		return "<=" + c.Value, nil
	case expr.OpNeq:
		return "", &InternalError{Stage: "emit", Message: "neq literal survived branch processing"}
	default:
		return "", &InternalError{Stage: "emit", Message: fmt.Sprintf("unsupported operator %q", c.Op)}
	}
}

func (c *Compiled) setSimple(branches []*branch) {
	if len(branches) != 1 || branches[0].omit.Size() != 0 {
		return
	}
	cmps := make([]expr.Comparison, 0, len(branches[0].pos))
	for _, lit := range branches[0].pos {
		cmp, ok := lit.(expr.Comparison)
		if !ok {
			return
		}
		// The plain find op vocabulary has no word-match token; hw only
		// exists as the compound form's "=value" encoding.
		if cmp.Op == expr.OpHw {
			return
		}
		cmps = append(cmps, cmp)
	}
	c.simple = cmps
}
