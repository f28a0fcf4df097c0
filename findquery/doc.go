// Package findquery compiles expr trees into the wire parameters of the
// record server's compound find command.
//
// The wire format is a flat sequence of find requests: each request is
// either a positive match set or an omit ("!") set, and every omit
// request subtracts matches from ALL preceding requests, not just the
// logical branch it was written for. Not every boolean expression is
// representable under that rule, so compilation can fail with
// UnrepresentableError.
//
// PIPELINE:
//
// Compilation is a fixed sequence of pure rewrites over immutable trees:
//
//	[expr tree] → push negations → distribute → flatten → branches →
//	order + validate → emit
//
//  1. Negation pushdown applies De Morgan's laws until negation only
//     wraps single literals.
//  2. Distribution rewrites the tree to disjunctive normal form (an OR
//     of ANDs) by distributing AND over OR.
//  3. Flattening splices same-connector non-negated subgroups so each
//     DNF branch is a flat literal list.
//  4. Branch processing splits each branch into positive literals and an
//     omit set, eliminating negation algebraically where the operator
//     table has an inverse (not gt ⇒ lte, and so on). Operators without
//     an inverse (eq, cn, bw, ew, hw) and raw fragments stay negated and
//     become explicit omits.
//  5. Validation orders branches by descending omit-set size and checks
//     that omit sets form a non-increasing subset chain; the ordering
//     search is a single size heuristic, not exhaustive.
//  6. Emission assigns sequential q1..qN identifiers and produces the
//     directive string plus the ordered parameter list.
//
// The compiler holds no state beyond one Compile call. Compiles on
// shared sub-expressions may run concurrently; nothing is mutated.
package findquery
