package cwp

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is one record from an fmresultset response: its server-side
// identifiers, field values in document order, and any related sets.
type Record struct {
	ID     int
	ModID  int
	Fields []FieldValue

	RelatedSets []RelatedSet
}

// FieldValue is a single named field value as it appeared on the wire.
// Field names are case-insensitive on the server and stored lowercased.
// Repeating fields join their repetitions with newlines.
type FieldValue struct {
	Name  string
	Value string
}

// RelatedSet is a portal of related records embedded in a parent record.
type RelatedSet struct {
	Table   string
	Records []Record
}

// Field returns the value of the named field. Lookup is linear; records
// carry few fields and preserving wire order matters more than lookup
// speed.
func (r Record) Field(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// RelatedSet returns the related set for the named table, if present.
func (r Record) RelatedSet(table string) (RelatedSet, bool) {
	table = strings.ToLower(table)
	for _, rs := range r.RelatedSets {
		if rs.Table == table {
			return rs, true
		}
	}
	return RelatedSet{}, false
}

// FieldDefinition describes one field of the response layout, from the
// metadata element.
type FieldDefinition struct {
	Name     string
	Result   string // text, number, date, time, timestamp, container
	Type     string // normal, calculation, summary
	NotEmpty bool
}

// Datasource carries the response's datasource element: which database
// and layout answered, the server's value formats, and the total record
// count of the table.
type Datasource struct {
	Database        string
	Layout          string
	DateFormat      string
	TimeFormat      string
	TimestampFormat string
	TotalCount      int
}

// Result is a fully parsed fmresultset response.
type Result struct {
	Datasource Datasource
	Metadata   []FieldDefinition
	FoundCount int
	FetchSize  int
	Records    []Record
}

// ParseResult decodes an fmresultset XML document from r. The decoder
// streams: records are materialized but the document is never held in
// memory as a DOM. A non-zero server error code aborts parsing and is
// returned as *Error.
func ParseResult(r io.Reader) (*Result, error) {
	dec := xml.NewDecoder(r)
	result := &Result{}
	inMetadata := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse fmresultset: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "error":
				code, err := intAttr(t, "code")
				if err != nil {
					return nil, fmt.Errorf("parse error element: %w", err)
				}
				if code != 0 {
					return nil, serverError(code)
				}
			case "datasource":
				result.Datasource = parseDatasource(t)
			case "metadata":
				inMetadata = true
			case "relatedset-definition":
				// Related-set field definitions describe portal rows, not
				// the layout itself; skip the subtree.
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("parse metadata: %w", err)
				}
			case "field-definition":
				if inMetadata {
					result.Metadata = append(result.Metadata, parseFieldDefinition(t))
				}
			case "resultset":
				if n, err := intAttr(t, "count"); err == nil {
					result.FoundCount = n
				}
				if n, err := intAttr(t, "fetch-size"); err == nil {
					result.FetchSize = n
				}
			case "record":
				rec, err := parseRecord(dec, t)
				if err != nil {
					return nil, err
				}
				result.Records = append(result.Records, rec)
			}
		case xml.EndElement:
			if t.Name.Local == "metadata" {
				inMetadata = false
			}
		}
	}
}

func parseDatasource(se xml.StartElement) Datasource {
	ds := Datasource{}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "database":
			ds.Database = a.Value
		case "layout":
			ds.Layout = a.Value
		case "date-format":
			ds.DateFormat = a.Value
		case "time-format":
			ds.TimeFormat = a.Value
		case "timestamp-format":
			ds.TimestampFormat = a.Value
		case "total-count":
			ds.TotalCount, _ = strconv.Atoi(a.Value)
		}
	}
	return ds
}

func parseFieldDefinition(se xml.StartElement) FieldDefinition {
	fd := FieldDefinition{}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "name":
			fd.Name = strings.ToLower(a.Value)
		case "result":
			fd.Result = a.Value
		case "type":
			fd.Type = a.Value
		case "not-empty":
			fd.NotEmpty = a.Value == "yes"
		}
	}
	return fd
}

// parseRecord consumes one record element, including nested related
// sets, leaving the decoder just past its end element.
func parseRecord(dec *xml.Decoder, start xml.StartElement) (Record, error) {
	rec := Record{}
	var err error
	if rec.ID, err = intAttr(start, "record-id"); err != nil {
		return Record{}, fmt.Errorf("parse record: %w", err)
	}
	if rec.ModID, err = intAttr(start, "mod-id"); err != nil {
		return Record{}, fmt.Errorf("parse record: %w", err)
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return Record{}, fmt.Errorf("parse record %d: %w", rec.ID, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "field":
				fv, err := parseField(dec, t)
				if err != nil {
					return Record{}, fmt.Errorf("parse record %d: %w", rec.ID, err)
				}
				rec.Fields = append(rec.Fields, fv)
			case "relatedset":
				rs, err := parseRelatedSet(dec, t)
				if err != nil {
					return Record{}, fmt.Errorf("parse record %d: %w", rec.ID, err)
				}
				rec.RelatedSets = append(rec.RelatedSets, rs)
			default:
				if err := dec.Skip(); err != nil {
					return Record{}, fmt.Errorf("parse record %d: %w", rec.ID, err)
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return rec, nil
			}
		}
	}
}

// parseField reads a field element's data children. A repeating field
// has several data elements; repetitions join with newlines.
func parseField(dec *xml.Decoder, start xml.StartElement) (FieldValue, error) {
	fv := FieldValue{Name: strings.ToLower(attr(start, "name"))}
	var values []string

	for {
		tok, err := dec.Token()
		if err != nil {
			return FieldValue{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "data" {
				return FieldValue{}, fmt.Errorf("field %q: unexpected element %q", fv.Name, t.Name.Local)
			}
			text, err := readText(dec, t)
			if err != nil {
				return FieldValue{}, err
			}
			values = append(values, text)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				fv.Value = strings.Join(values, "\n")
				return fv, nil
			}
		}
	}
}

func parseRelatedSet(dec *xml.Decoder, start xml.StartElement) (RelatedSet, error) {
	rs := RelatedSet{Table: strings.ToLower(attr(start, "table"))}

	for {
		tok, err := dec.Token()
		if err != nil {
			return RelatedSet{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "record" {
				return RelatedSet{}, fmt.Errorf("relatedset %q: unexpected element %q", rs.Table, t.Name.Local)
			}
			rec, err := parseRecord(dec, t)
			if err != nil {
				return RelatedSet{}, err
			}
			rs.Records = append(rs.Records, rec)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return rs, nil
			}
		}
	}
}

// readText collects character data until the element closes.
func readText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return sb.String(), nil
			}
		case xml.StartElement:
			return "", fmt.Errorf("unexpected element %q inside %q", t.Name.Local, start.Name.Local)
		}
	}
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func intAttr(se xml.StartElement, name string) (int, error) {
	raw := attr(se, name)
	if raw == "" {
		return 0, fmt.Errorf("missing attribute %q", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", name, err)
	}
	return n, nil
}
