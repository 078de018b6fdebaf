// Package form implements the headless draft state behind every
// create/edit dialog: a nested draft object with string leaves, the
// three file-state slots (staged, existing, deletion queue), one-shot
// reset, and submit assembly. The form never performs network calls;
// it hands `(draft, staged files, deletions)` to a caller-supplied
// submit path.
package form

import (
	"strconv"
	"strings"
	"time"
)

// Draft is the in-memory representation of an entity being created or
// edited. All leaves are strings to match input-control binding;
// repeatable sections are slices of nested maps.
type Draft map[string]interface{}

// Clone deep-copies the draft. Setters operate on copies so sibling
// branches held by the UI are never disturbed mid-render.
func (d Draft) Clone() Draft {
	return Draft(cloneMap(d))
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case Draft:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Get returns the value at a dotted path, or nil.
func (d Draft) Get(path string) interface{} {
	parts := strings.Split(path, ".")
	var cur interface{} = map[string]interface{}(d)
	for _, p := range parts {
		m, ok := toMap(cur)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

// Value returns the string leaf at a dotted path, or "". Satisfies
// validation.Source.
func (d Draft) Value(path string) string {
	if s, ok := d.Get(path).(string); ok {
		return s
	}
	return ""
}

// Set returns a new draft with the leaf at the dotted path replaced,
// creating intermediate maps as needed. The receiver is not modified.
func (d Draft) Set(path string, value interface{}) Draft {
	out := d.Clone()
	parts := strings.Split(path, ".")
	cur := map[string]interface{}(out)
	for _, p := range parts[:len(parts)-1] {
		next, ok := toMap(cur[p])
		if !ok {
			next = map[string]interface{}{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	return out
}

// List returns the repeatable section at path as a slice, or nil.
func (d Draft) List(path string) []interface{} {
	if l, ok := d.Get(path).([]interface{}); ok {
		return l
	}
	return nil
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Draft:
		return t, true
	}
	return nil, false
}

// CustomerID reduces a foreign-key customer value to its id string.
// The API returns either a bare id or a populated object depending on
// the endpoint; the bound control always wants the id.
func CustomerID(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		if id, ok := t["_id"].(string); ok {
			return id
		}
	}
	return ""
}

// dateLayouts are the wire formats a seeded date may arrive in.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
}

// NormalizeDate reduces a wire date to the input-control form
// (2006-01-02). Unparsable values pass through unchanged; the submit
// boundary rejects them later.
func NormalizeDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// CanonicalNumber parses a string-typed numeric leaf and renders it
// canonically. Empty stays empty; garbage returns ok=false.
func CanonicalNumber(s string) (string, bool) {
	if s == "" {
		return "", true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s, false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
