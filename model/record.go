package model

import (
	"context"
	"fmt"

	"github.com/lariat-go/lariat/cwp"
)

// Record is one record of a layout, holding native values for the
// fields its Definition declares and raw wire strings for everything
// else. A record remembers which fields changed since it was loaded so
// an edit only sends what moved.
type Record struct {
	set *RecordSet

	// ID and ModID are the server-side record and modification
	// identifiers. A zero ID marks a record not yet created.
	ID    int
	ModID int

	values map[string]any
	raw    map[string]string
	dirty  map[string]bool
}

func newRecord(set *RecordSet) *Record {
	return &Record{
		set:    set,
		values: make(map[string]any),
		raw:    make(map[string]string),
		dirty:  make(map[string]bool),
	}
}

// recordFromWire materializes a response record, coercing every field
// the definition declares.
func recordFromWire(set *RecordSet, wire cwp.Record) (*Record, error) {
	r := newRecord(set)
	r.ID = wire.ID
	r.ModID = wire.ModID
	if err := r.load(wire); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) load(wire cwp.Record) error {
	for _, fv := range wire.Fields {
		key := canonicalName(fv.Name)
		r.raw[key] = fv.Value
		f, ok := r.set.def.Field(fv.Name)
		if !ok {
			continue
		}
		v, err := f.FromWire(fv.Value)
		if err != nil {
			return fmt.Errorf("record %d: %w", wire.ID, err)
		}
		r.values[key] = v
	}
	r.dirty = make(map[string]bool)
	return nil
}

// Get returns the native value of a declared field. Fields absent from
// the response and fields holding an empty wire value both return nil
// with ok true when declared.
func (r *Record) Get(name string) (any, bool) {
	key := canonicalName(name)
	if _, declared := r.set.def.Field(name); !declared {
		return nil, false
	}
	return r.values[key], true
}

// Raw returns the wire string of any field present in the response,
// declared or not.
func (r *Record) Raw(name string) (string, bool) {
	v, ok := r.raw[canonicalName(name)]
	return v, ok
}

// Set stages a native value for a declared field. The value is
// serialized immediately so bad values fail at Set, not at Save.
func (r *Record) Set(name string, v any) error {
	f, ok := r.set.def.Field(name)
	if !ok {
		return fmt.Errorf("record: unknown field %q", name)
	}
	w, err := f.ToWire(v)
	if err != nil {
		return err
	}
	key := canonicalName(name)
	r.values[key] = v
	r.raw[key] = w
	r.dirty[key] = true
	return nil
}

// Save creates the record when it has no ID yet, or edits it in place
// sending only the fields changed since load. The record's ID, ModID
// and values refresh from the server's response. At most one optional
// script call runs after the action completes; passing several is an
// error, the protocol carries a single -script per request.
func (r *Record) Save(ctx context.Context, scripts ...ScriptCall) error {
	var q *cwp.Query
	if r.ID == 0 {
		q = r.set.newQuery("-new")
	} else {
		q = r.set.newQuery("-edit")
		q.SetParam("-recid", fmt.Sprint(r.ID))
		q.SetParam("-modid", fmt.Sprint(r.ModID))
	}
	// Staged fields go out in declaration order. Set already rejected
	// calculated fields and unserializable values.
	for _, f := range r.set.def.Fields() {
		key := canonicalName(f.Name())
		if r.dirty[key] {
			q.SetFieldParam(key, r.raw[key])
		}
	}
	if err := applyScripts(q, scripts); err != nil {
		return err
	}

	result, err := r.set.client.Do(ctx, q)
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("save: server returned no record")
	}
	saved := result.Records[0]
	r.ID = saved.ID
	r.ModID = saved.ModID
	return r.load(saved)
}

// Delete removes the record from the server and clears its identifiers.
func (r *Record) Delete(ctx context.Context, scripts ...ScriptCall) error {
	if r.ID == 0 {
		return fmt.Errorf("delete: record has no id")
	}
	q := r.set.newQuery("-delete")
	q.SetParam("-recid", fmt.Sprint(r.ID))
	if err := applyScripts(q, scripts); err != nil {
		return err
	}

	if _, err := r.set.client.Do(ctx, q); err != nil {
		return err
	}
	r.ID = 0
	r.ModID = 0
	return nil
}
