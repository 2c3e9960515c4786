// Package decisions normalizes recommendations, action items and proposed
// clause edits of any shape into one canonical decision list.
package decisions

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// RawRecord is one untyped record from AI or fallback output.
// Every accessor tries its keys in order and never panics on
// missing or mistyped values.
type RawRecord map[string]any

// String returns the first non-empty string value among keys.
// Numbers are formatted; other types are skipped.
func (r RawRecord) String(keys ...string) (string, bool) {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case int:
			return strconv.Itoa(v), true
		case json.Number:
			return v.String(), true
		}
	}
	return "", false
}

// Str is String without the presence flag
func (r RawRecord) Str(keys ...string) string {
	s, _ := r.String(keys...)
	return s
}

// Bool returns the first boolean-like value among keys
func (r RawRecord) Bool(keys ...string) (bool, bool) {
	for _, k := range keys {
		switch v := r[k].(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "1":
				return true, true
			case "false", "no", "0":
				return false, true
			}
		case float64:
			return v != 0, true
		}
	}
	return false, false
}

// Record returns the first nested object among keys
func (r RawRecord) Record(keys ...string) (RawRecord, bool) {
	for _, k := range keys {
		switch v := r[k].(type) {
		case map[string]any:
			return RawRecord(v), true
		case RawRecord:
			return v, true
		}
	}
	return nil, false
}

// Strings returns the first string list among keys. A single string is
// returned as a one-element list.
func (r RawRecord) Strings(keys ...string) []string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case []any:
			out := lo.FilterMap(v, func(item any, _ int) (string, bool) {
				s, ok := item.(string)
				s = strings.TrimSpace(s)
				return s, ok && s != ""
			})
			if len(out) > 0 {
				return out
			}
		case []string:
			if len(v) > 0 {
				return v
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

// RecordsFrom converts any JSON-serializable list into raw records.
// Non-object elements are skipped; anything unserializable yields nil.
func RecordsFrom(v any) []RawRecord {
	switch list := v.(type) {
	case nil:
		return nil
	case []RawRecord:
		return list
	case []map[string]any:
		out := make([]RawRecord, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return ParseRecords(data)
}

// ParseRecords decodes a JSON array, keeping only object elements
func ParseRecords(data []byte) []RawRecord {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return lo.FilterMap(items, func(item any, _ int) (RawRecord, bool) {
		m, ok := item.(map[string]any)
		return m, ok
	})
}
