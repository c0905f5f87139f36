package odata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Record is one decoded OData entity. Numbers are kept as json.Number.
type Record map[string]any

// String returns field as text. Missing or null fields yield "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Decimal returns field as a decimal. Missing or unparsable values yield zero.
func (r Record) Decimal(field string) decimal.Decimal {
	switch v := r[field].(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err == nil {
			return d
		}
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

// Has reports whether field is present and not null.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Nested returns the entities of an expanded navigation property, accepting both the
// V4 array form and the V2 {"results": [...]} form.
func (r Record) Nested(field string) []Record {
	switch v := r[field].(type) {
	case []any:
		return toRecords(v)
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			return toRecords(results)
		}
		return []Record{Record(v)}
	}
	return nil
}

// Payload is a normalized OData response: a sequence of records, or a single record.
type Payload struct {
	records []Record
	single  bool
}

// Records returns the entities; a single entity is returned as a one-element slice.
func (p Payload) Records() []Record {
	return p.records
}

// First returns the first entity, if any.
func (p Payload) First() (Record, bool) {
	if len(p.records) == 0 {
		return nil, false
	}
	return p.records[0], true
}

// IsSingle reports whether the response carried a single entity rather than a collection.
func (p Payload) IsSingle() bool {
	return p.single
}

// Len returns the number of entities.
func (p Payload) Len() int {
	return len(p.records)
}

// Normalize decodes body and unwraps the OData envelopes:
// a bare array, {"value": [...]}, {"d": {"results": [...]}} and {"d": {...}}.
// Any other object is treated as a single entity.
func Normalize(body []byte) (Payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Payload{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Payload{}, fmt.Errorf("decode odata payload: %w", err)
	}

	switch v := raw.(type) {
	case []any:
		return Payload{records: toRecords(v)}, nil
	case map[string]any:
		if value, ok := v["value"].([]any); ok {
			return Payload{records: toRecords(value)}, nil
		}
		if d, ok := v["d"].(map[string]any); ok {
			if results, ok := d["results"].([]any); ok {
				return Payload{records: toRecords(results)}, nil
			}
			return Payload{records: []Record{Record(d)}, single: true}, nil
		}
		return Payload{records: []Record{Record(v)}, single: true}, nil
	case nil:
		return Payload{}, nil
	default:
		return Payload{}, fmt.Errorf("decode odata payload: unexpected %T", raw)
	}
}

func toRecords(items []any) []Record {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}
