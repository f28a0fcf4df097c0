package findquery

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v2"

	"github.com/lariat-go/lariat/expr"
)

// branch is one conjunctive clause of the DNF expression, split into the
// literals the find request must match and the set it must omit.
//
// Positive literals keep their order and duplicates: the protocol ANDs
// juxtaposed clauses, so a repeated clause is harmless and preserved.
// Omitted literals live in a structural-hash set, so duplicates collapse
// and the validator can run subset checks.
type branch struct {
	pos  []expr.Literal
	omit *set.HashSet[expr.Literal, string]
}

func newBranch() *branch {
	return &branch{omit: set.NewHashSet[expr.Literal, string](0)}
}

// opInverse maps each operator to its algebraic inverse, where one
// exists. Operators absent from the table (eq, cn, bw, ew, hw) cannot be
// inverted and must be expressed as explicit omits when negated.
var opInverse = map[expr.Op]expr.Op{
	expr.OpNeq: expr.OpEq,
	expr.OpGt:  expr.OpLte,
	expr.OpGte: expr.OpLt,
	expr.OpLt:  expr.OpGte,
	expr.OpLte: expr.OpGt,
}

// splitBranches turns the flattened DNF tree into branches. The root is
// an OR of conjunctive clauses; anything else stands for a single
// implicit branch.
func splitBranches(dnf expr.Expr) ([]*branch, error) {
	var tops []expr.Expr
	if g, ok := dnf.(expr.Group); ok && g.Connector == expr.ConnOr && !g.Negated {
		tops = g.Children
	} else {
		tops = []expr.Expr{dnf}
	}
	if len(tops) == 0 {
		return nil, &InternalError{Stage: "branch", Message: "disjunction with no branches"}
	}

	out := make([]*branch, 0, len(tops))
	for _, top := range tops {
		b, err := processBranch(top)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// processBranch partitions one conjunctive clause into positive and
// omitted literals, applying algebraic inversion where possible.
func processBranch(top expr.Expr) (*branch, error) {
	var members []expr.Expr
	switch t := top.(type) {
	case expr.Group:
		if len(t.Children) == 0 {
			return nil, &InternalError{Stage: "branch", Message: "group with no children"}
		}
		if t.Negated {
			// A branch that is itself a negated literal wrapper.
			members = []expr.Expr{t}
		} else {
			members = flatten(t).(expr.Group).Children
		}
	default:
		members = []expr.Expr{top}
	}

	b := newBranch()
	for _, member := range members {
		if err := b.add(member); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *branch) add(member expr.Expr) error {
	switch m := member.(type) {
	case expr.Group:
		if m.Negated {
			return b.addNegated(m)
		}
		// A non-negated nested group inside a conjunctive clause means
		// flattening missed it; accept flat literal children, fail loudly
		// on anything deeper.
		for _, child := range m.Children {
			lit, ok := child.(expr.Literal)
			if !ok {
				return &InternalError{Stage: "branch", Message: fmt.Sprintf("nested %T in conjunctive clause", child)}
			}
			if err := b.addLiteral(lit); err != nil {
				return err
			}
		}
		return nil
	case expr.Literal:
		return b.addLiteral(m)
	default:
		return &InternalError{Stage: "branch", Message: fmt.Sprintf("unknown expression type %T", member)}
	}
}

// addNegated handles a negated singleton group left by pushdown.
func (b *branch) addNegated(g expr.Group) error {
	if len(g.Children) != 1 {
		return &InternalError{Stage: "branch", Message: fmt.Sprintf("negated group with %d children after pushdown", len(g.Children))}
	}
	switch lit := g.Children[0].(type) {
	case expr.Comparison:
		if inv, ok := opInverse[lit.Op]; ok {
			b.pos = append(b.pos, expr.Comparison{Field: lit.Field, Op: inv, Value: lit.Value})
			return nil
		}
		// No inverse: the branch must still exclude matches, as an
		// explicit omit of the original literal.
		b.omit.Insert(lit)
		return nil
	case expr.Raw:
		b.omit.Insert(lit)
		return nil
	default:
		return &InternalError{Stage: "branch", Message: fmt.Sprintf("negated group wraps %T, not a literal", g.Children[0])}
	}
}

func (b *branch) addLiteral(lit expr.Literal) error {
	if c, ok := lit.(expr.Comparison); ok && c.Op == expr.OpNeq {
		// The positive vocabulary has no "not equal": a bare neq is an
		// omitted eq.
		b.omit.Insert(expr.Comparison{Field: c.Field, Op: expr.OpEq, Value: c.Value})
		return nil
	}
	b.pos = append(b.pos, lit)
	return nil
}

// sortedOmits returns the omit set in deterministic structural order.
func (b *branch) sortedOmits() []expr.Literal {
	lits := b.omit.Slice()
	sort.Slice(lits, func(i, j int) bool { return lits[i].Hash() < lits[j].Hash() })
	return lits
}

// orderBranches picks the emission order and verifies representability.
//
// An omit request applies to every request emitted before it, so the
// branch sequence is representable iff each branch's omit set is a
// superset of every later branch's omit set. Candidate order: descending
// omit-set size, ties kept in discovery order. If that single heuristic
// ordering violates the chain, compilation fails; no other orderings are
// tried.
func orderBranches(branches []*branch) ([]*branch, error) {
	ordered := make([]*branch, len(branches))
	copy(ordered, branches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].omit.Size() > ordered[j].omit.Size()
	})

	for i := 0; i < len(ordered)-1; i++ {
		if !ordered[i].omit.Subset(ordered[i+1].omit) {
			return nil, &UnrepresentableError{
				EarlierOmits: describeLiterals(ordered[i].sortedOmits()),
				LaterOmits:   describeLiterals(ordered[i+1].sortedOmits()),
			}
		}
	}
	return ordered, nil
}

func describeLiterals(lits []expr.Literal) []string {
	out := make([]string, len(lits))
	for i, lit := range lits {
		out[i] = fmt.Sprintf("%v", lit)
	}
	return out
}
