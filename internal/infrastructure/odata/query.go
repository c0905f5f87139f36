package odata

import (
	"net/url"
	"strconv"
	"strings"
)

// KeyPart is one component of an entity key. An empty Name encodes a positional key ('v').
type KeyPart struct {
	Name  string
	Value string
}

// Key builds a positional single-value key.
func Key(value string) []KeyPart {
	return []KeyPart{{Value: value}}
}

// CompositeKey builds a named key from alternating name, value arguments.
// A trailing name without value is ignored.
func CompositeKey(pairs ...string) []KeyPart {
	parts := make([]KeyPart, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, KeyPart{Name: pairs[i], Value: pairs[i+1]})
	}
	return parts
}

// Query describes one read against a source.
type Query struct {
	Source Source
	Key    []KeyPart
	// Nav is a navigation property appended after the key, e.g. "to_BusinessPartnerAddress".
	Nav    string
	Filter Filter
	Select []string
	Expand []string
	Top    int
	Skip   int
	// Format is sent as $format when set.
	Format string
}

// Encode renders the query against base, the entity-set URL of the source.
// Query options already present on base are kept.
func (q Query) Encode(base string) string {
	path, existing, _ := strings.Cut(base, "?")
	path = strings.TrimRight(path, "/")

	var b strings.Builder
	b.WriteString(path)
	if len(q.Key) > 0 {
		b.WriteString(encodeKey(q.Key))
	}
	if q.Nav != "" {
		b.WriteByte('/')
		b.WriteString(q.Nav)
	}

	params := make([]string, 0, 6)
	if existing != "" {
		params = append(params, existing)
	}
	if q.Filter != nil {
		if f := q.Filter.String(); f != "" {
			params = append(params, "$filter="+escapeValue(f))
		}
	}
	if len(q.Select) > 0 {
		params = append(params, "$select="+strings.Join(q.Select, ","))
	}
	if len(q.Expand) > 0 {
		params = append(params, "$expand="+strings.Join(q.Expand, ","))
	}
	if q.Top > 0 {
		params = append(params, "$top="+strconv.Itoa(q.Top))
	}
	if q.Skip > 0 {
		params = append(params, "$skip="+strconv.Itoa(q.Skip))
	}
	if q.Format != "" {
		params = append(params, "$format="+q.Format)
	}
	if len(params) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(params, "&"))
	}
	return b.String()
}

func encodeKey(parts []KeyPart) string {
	if len(parts) == 1 && parts[0].Name == "" {
		return "(" + quoteKey(parts[0].Value) + ")"
	}
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		segs = append(segs, p.Name+"="+quoteKey(p.Value))
	}
	return "(" + strings.Join(segs, ",") + ")"
}

// quote renders an OData string literal, doubling embedded quotes.
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// quoteKey renders a key literal with the value path-escaped.
func quoteKey(v string) string {
	return "'" + url.PathEscape(strings.ReplaceAll(v, "'", "''")) + "'"
}

func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
