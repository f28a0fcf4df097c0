package findquery

import "github.com/lariat-go/lariat/expr"

// pushNegations rewrites the tree so that the Negated flag only occurs
// on groups whose single child is a literal.
//
// A negated group has its connector flipped per De Morgan, the negation
// moved onto each child (literal children are wrapped in singleton
// negated groups) and its own flag cleared, then the rewrite recurses
// into the now-negated children.
func pushNegations(e expr.Expr) expr.Expr {
	g, ok := e.(expr.Group)
	if !ok {
		return e
	}

	if !g.Negated {
		children := make([]expr.Expr, len(g.Children))
		for i, child := range g.Children {
			children[i] = pushNegations(child)
		}
		return expr.Group{Connector: g.Connector, Children: children}
	}

	conn := expr.ConnOr
	if g.Connector == expr.ConnOr {
		conn = expr.ConnAnd
	}

	children := make([]expr.Expr, len(g.Children))
	for i, child := range g.Children {
		switch c := child.(type) {
		case expr.Group:
			negated := expr.Group{Connector: c.Connector, Negated: !c.Negated, Children: c.Children}
			children[i] = pushNegations(negated)
		default:
			// Literal: wrap in a singleton negated group. Negation on a
			// leaf is as far down as it goes.
			children[i] = expr.Group{Connector: expr.ConnAnd, Negated: true, Children: []expr.Expr{child}}
		}
	}
	return expr.Group{Connector: conn, Children: children}
}

// distribute converts a negation-pushed tree to disjunctive normal form
// by distributing AND over OR:
//
//	(A | B) & C  ⇒  (A & C) | (B & C)
//
// Children are distributed first; at an AND group the first non-negated
// OR child is expanded against the remaining siblings, and the result is
// distributed again since expansion can expose further OR children.
// Negated groups are leaves here: after pushdown they wrap exactly one
// literal and take no part in distribution.
func distribute(e expr.Expr) expr.Expr {
	g, ok := e.(expr.Group)
	if !ok || g.Negated {
		return e
	}

	children := make([]expr.Expr, len(g.Children))
	for i, child := range g.Children {
		children[i] = distribute(child)
	}
	g = expr.Group{Connector: g.Connector, Children: children}

	if g.Connector != expr.ConnAnd {
		return g
	}

	orIdx := -1
	for i, child := range g.Children {
		if sub, ok := child.(expr.Group); ok && !sub.Negated && sub.Connector == expr.ConnOr {
			orIdx = i
			break
		}
	}
	if orIdx == -1 {
		// Already a conjunctive clause.
		return g
	}

	orChild := g.Children[orIdx].(expr.Group)
	others := make([]expr.Expr, 0, len(g.Children)-1)
	others = append(others, g.Children[:orIdx]...)
	others = append(others, g.Children[orIdx+1:]...)

	branches := make([]expr.Expr, len(orChild.Children))
	for i, item := range orChild.Children {
		combined := make([]expr.Expr, 0, len(others)+1)
		combined = append(combined, item)
		combined = append(combined, others...)
		branches[i] = distribute(expr.Group{Connector: expr.ConnAnd, Children: combined})
	}
	return expr.Group{Connector: expr.ConnOr, Children: branches}
}

// flatten splices non-negated child groups that share the parent's
// connector into the parent's children list, recursively. For DNF input
// the result is a top-level OR whose children are flat AND groups or
// single literals.
func flatten(e expr.Expr) expr.Expr {
	g, ok := e.(expr.Group)
	if !ok {
		return e
	}

	children := make([]expr.Expr, 0, len(g.Children))
	for _, child := range g.Children {
		sub, ok := child.(expr.Group)
		if !ok {
			children = append(children, child)
			continue
		}
		flat := flatten(sub).(expr.Group)
		if flat.Connector == g.Connector && !flat.Negated {
			children = append(children, flat.Children...)
		} else {
			children = append(children, flat)
		}
	}
	return expr.Group{Connector: g.Connector, Negated: g.Negated, Children: children}
}
