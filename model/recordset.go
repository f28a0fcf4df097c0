package model

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/lariat-go/lariat/cwp"
	"github.com/lariat-go/lariat/expr"
	"github.com/lariat-go/lariat/findquery"
)

// ErrNoRecords is returned by First when the find matches nothing.
var ErrNoRecords = errors.New("no matching records")

// maxSortRules is the protocol's limit on numbered sort parameters.
const maxSortRules = 9

// ScriptCall names a server-side script and its parameter.
type ScriptCall struct {
	Name  string
	Param string
}

// RecordSet is a chainable find against one layout. Every chaining
// method returns a new set and never mutates its receiver, so a base
// set can fan out into several refinements. Validation errors raised
// while chaining surface when the set executes.
type RecordSet struct {
	client *cwp.Client
	def    *Definition

	filter  expr.Expr
	sorts   []Sort
	max     int
	skip    int
	script  *ScriptCall
	preFind *ScriptCall
	preSort *ScriptCall

	err error
}

// NewRecordSet builds an unfiltered record set over a layout.
func NewRecordSet(client *cwp.Client, def *Definition) *RecordSet {
	return &RecordSet{client: client, def: def}
}

func (s *RecordSet) clone() *RecordSet {
	c := *s
	c.sorts = append([]Sort(nil), s.sorts...)
	return &c
}

// Filter narrows the set by a condition. Successive filters combine
// conjunctively.
func (s *RecordSet) Filter(e expr.Expr) *RecordSet {
	c := s.clone()
	if c.filter == nil {
		c.filter = e
	} else {
		c.filter = expr.And(c.filter, e)
	}
	return c
}

// Sort appends sort rules. The protocol allows at most nine rules and
// one rule per field.
func (s *RecordSet) Sort(rules ...Sort) *RecordSet {
	c := s.clone()
	c.sorts = append(c.sorts, rules...)
	if c.err == nil {
		c.err = validateSorts(c.sorts)
	}
	return c
}

func validateSorts(sorts []Sort) error {
	if len(sorts) > maxSortRules {
		return fmt.Errorf("at most %d sort rules are allowed, got %d", maxSortRules, len(sorts))
	}
	seen := make(map[string]bool, len(sorts))
	for _, rule := range sorts {
		key := canonicalName(rule.Field)
		if seen[key] {
			return fmt.Errorf("duplicate sort rule for field %q", rule.Field)
		}
		seen[key] = true
	}
	return nil
}

// Max caps how many records the server returns.
func (s *RecordSet) Max(n int) *RecordSet {
	c := s.clone()
	c.max = n
	return c
}

// Skip offsets into the found set.
func (s *RecordSet) Skip(n int) *RecordSet {
	c := s.clone()
	c.skip = n
	return c
}

// Script runs a server-side script after the find completes.
func (s *RecordSet) Script(name, param string) *RecordSet {
	c := s.clone()
	c.script = &ScriptCall{Name: name, Param: param}
	return c
}

// ScriptPreFind runs a script before the find criteria apply.
func (s *RecordSet) ScriptPreFind(name, param string) *RecordSet {
	c := s.clone()
	c.preFind = &ScriptCall{Name: name, Param: param}
	return c
}

// ScriptPreSort runs a script after the find but before sorting.
func (s *RecordSet) ScriptPreSort(name, param string) *RecordSet {
	c := s.clone()
	c.preSort = &ScriptCall{Name: name, Param: param}
	return c
}

// NewRecord returns an empty record bound to this set's layout. Save
// creates it on the server.
func (s *RecordSet) NewRecord() *Record {
	return newRecord(s)
}

func (s *RecordSet) newQuery(command string) *cwp.Query {
	q := cwp.NewQuery(command)
	q.SetParam("-db", s.def.Database)
	q.SetParam("-lay", s.def.Layout)
	return q
}

// buildQuery picks the cheapest command for the set: -findall with no
// filter, the plain -find form when the compiled filter is a single
// positive conjunction, -findquery otherwise.
func (s *RecordSet) buildQuery() (*cwp.Query, error) {
	if s.err != nil {
		return nil, s.err
	}

	var q *cwp.Query
	switch {
	case s.filter == nil:
		q = s.newQuery("-findall")
	default:
		compiled, err := findquery.Compile(s.filter)
		if err != nil {
			return nil, err
		}
		if compiled.Simple() {
			q = s.newQuery("-find")
			for _, p := range compiled.SimpleParams() {
				q.SetFieldParam(p.Name, p.Value)
			}
		} else {
			q = s.newQuery("-findquery")
			q.SetParam("-query", compiled.Directive)
			for _, p := range compiled.Params {
				q.SetParam(p.Name, p.Value)
			}
		}
	}

	for i, rule := range s.sorts {
		n := strconv.Itoa(i + 1)
		q.SetParam("-sortfield."+n, rule.Field)
		q.SetParam("-sortorder."+n, string(rule.Order))
	}
	if s.max > 0 {
		q.SetParam("-max", strconv.Itoa(s.max))
	}
	if s.skip > 0 {
		q.SetParam("-skip", strconv.Itoa(s.skip))
	}
	if s.script != nil {
		applyScript(q, "-script", *s.script)
	}
	if s.preFind != nil {
		applyScript(q, "-script.prefind", *s.preFind)
	}
	if s.preSort != nil {
		applyScript(q, "-script.presort", *s.preSort)
	}
	return q, nil
}

// All executes the find and returns every matching record. A server
// "no records match" answer is an empty result, not an error.
func (s *RecordSet) All(ctx context.Context) ([]*Record, error) {
	q, err := s.buildQuery()
	if err != nil {
		return nil, err
	}

	result, err := s.client.Do(ctx, q)
	if cwp.IsNotFound(err) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(result.Records))
	for _, wire := range result.Records {
		rec, err := recordFromWire(s, wire)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// First executes the find capped at one record. Returns ErrNoRecords
// when nothing matches.
func (s *RecordSet) First(ctx context.Context) (*Record, error) {
	records, err := s.Max(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records[0], nil
}

func applyScript(q *cwp.Query, name string, sc ScriptCall) {
	q.SetParam(name, sc.Name)
	if sc.Param != "" {
		q.SetParam(name+".param", sc.Param)
	}
}

func applyScripts(q *cwp.Query, scripts []ScriptCall) error {
	if len(scripts) > 1 {
		return fmt.Errorf("at most one script call per request, got %d", len(scripts))
	}
	for _, sc := range scripts {
		applyScript(q, "-script", sc)
	}
	return nil
}
