// Package cwp speaks the record server's XML web publishing protocol:
// building command query strings, running them over HTTP and parsing the
// fmresultset responses.
package cwp

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// commandDesc describes one protocol command: which parameters it
// requires, which it accepts, and whether it takes bare field-name
// parameters (find criteria or record field values).
type commandDesc struct {
	required   map[string]bool
	optional   map[string]bool
	fieldNames bool
	// compound marks commands that accept the dynamically numbered
	// -qN / -qN.value parameter family.
	compound bool
}

func paramSet(names ...string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func union(sets ...map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for _, s := range sets {
		for n := range s {
			out[n] = true
		}
	}
	return out
}

var (
	descDBLay  = paramSet("-db", "-lay")
	descLayR   = paramSet("-lay.response")
	descScript = paramSet(
		"-script", "-script.param",
		"-script.prefind", "-script.prefind.param",
		"-script.presort", "-script.presort.param",
	)
	descFind = paramSet("-recid", "-lop", "-op", "-max", "-skip", "-sortorder", "-sortfield")
)

// Numbered find parameters take the form -sortfield.1 through
// -sortfield.9, and compound finds use -q1, -q1.value and so on.
var (
	numberedParam = regexp.MustCompile(`^(-sortfield|-sortorder)\.[1-9]$`)
	compoundParam = regexp.MustCompile(`^-q[1-9][0-9]*(\.value)?$`)
)

var commands = map[string]commandDesc{
	"-dbnames": {},
	"-layoutnames": {
		required: paramSet("-db"),
	},
	"-view": {
		required: descDBLay,
	},
	"-find": {
		required:   descDBLay,
		optional:   union(descLayR, descScript, descFind),
		fieldNames: true,
	},
	"-findany": {
		required: descDBLay,
		optional: union(descLayR, descScript),
	},
	"-findall": {
		required: descDBLay,
		optional: union(descLayR, descScript, descFind),
	},
	"-findquery": {
		required: union(descDBLay, paramSet("-query")),
		optional: union(descLayR, descScript, paramSet("-max", "-skip", "-sortorder", "-sortfield")),
		compound: true,
	},
	"-new": {
		required:   descDBLay,
		optional:   descScript,
		fieldNames: true,
	},
	"-edit": {
		required:   union(descDBLay, paramSet("-recid")),
		optional:   union(descScript, paramSet("-modid")),
		fieldNames: true,
	},
	"-delete": {
		required: union(descDBLay, paramSet("-recid")),
		optional: descScript,
	},
}

type param struct {
	name  string
	value string
}

// Query is one protocol request: a command plus its dash-prefixed
// parameters and, for commands that take them, bare field-name
// parameters. Parameters keep insertion order; setting a name again
// replaces its value in place.
type Query struct {
	Command     string
	params      []param
	fieldParams []param
}

// NewQuery creates a query for the given command, for example "-find".
func NewQuery(command string) *Query {
	return &Query{Command: command}
}

// SetParam sets a dash-prefixed command parameter. Names are
// case-insensitive on the server and stored lowercased.
func (q *Query) SetParam(name, value string) {
	q.params = setParam(q.params, strings.ToLower(name), value)
}

// SetFieldParam sets a bare field-name parameter (a find criterion or a
// record field value).
func (q *Query) SetFieldParam(name, value string) {
	q.fieldParams = setParam(q.fieldParams, strings.ToLower(name), value)
}

func setParam(params []param, name, value string) []param {
	for i := range params {
		if params[i].name == name {
			params[i].value = value
			return params
		}
	}
	return append(params, param{name: name, value: value})
}

// Param returns the value of a previously set command parameter.
func (q *Query) Param(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, p := range q.params {
		if p.name == name {
			return p.value, true
		}
	}
	return "", false
}

// Encode validates the query against its command description and
// renders the query-string form, command token first:
//
//	-findquery&-db=people&-lay=Person&-query=(q1)&-q1=Name&-q1.value===John
//
// Unknown commands, missing required parameters, and parameters the
// command does not accept are all errors.
func (q *Query) Encode() (string, error) {
	desc, ok := commands[q.Command]
	if !ok {
		return "", fmt.Errorf("unknown command %q", q.Command)
	}

	if missing := q.missingRequired(desc); len(missing) > 0 {
		return "", &MissingParamError{Command: q.Command, Missing: missing}
	}
	for _, p := range q.params {
		if !desc.accepts(p.name) {
			return "", fmt.Errorf("command %s does not accept parameter %s", q.Command, p.name)
		}
	}
	if len(q.fieldParams) > 0 && !desc.fieldNames {
		return "", fmt.Errorf("command %s does not take field-name parameters", q.Command)
	}

	var sb strings.Builder
	sb.WriteString(q.Command)
	for _, p := range q.params {
		sb.WriteByte('&')
		sb.WriteString(url.QueryEscape(p.name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	for _, p := range q.fieldParams {
		sb.WriteByte('&')
		sb.WriteString(url.QueryEscape(p.name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String(), nil
}

// accepts reports whether a command takes the named parameter, covering
// the numbered sort family and, for compound finds, the -qN family.
func (d commandDesc) accepts(name string) bool {
	if d.required[name] || d.optional[name] {
		return true
	}
	if m := numberedParam.FindStringSubmatch(name); m != nil {
		return d.required[m[1]] || d.optional[m[1]]
	}
	return d.compound && compoundParam.MatchString(name)
}

func (q *Query) missingRequired(desc commandDesc) []string {
	var missing []string
	for name := range desc.required {
		if _, ok := q.Param(name); !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// MissingParamError reports required command parameters that were never
// set.
type MissingParamError struct {
	Command string
	Missing []string
}

// Error implements the error interface.
func (e *MissingParamError) Error() string {
	return fmt.Sprintf("command %s missing required parameters: %s", e.Command, strings.Join(e.Missing, ", "))
}
