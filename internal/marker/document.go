package marker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Well-known document keys.
const (
	KeyTags        = "tags"
	KeyAttributes  = "attributes"
	KeyRepr        = "repr"
	KeyTaskType    = "task_type"
	KeyDCC         = "dcc"
	KeyComment     = "comment"
	KeyCreatedAt   = "created_at"
	KeyModifiedAt  = "modified_at"
	KeyLastVersion = "last_version"
)

// TimeFormat is the layout used for timestamp keys.
const TimeFormat = time.RFC3339Nano

// Document is the decoded content of a marker file.
type Document map[string]any

// Clone returns a deep copy of the document's maps and slices.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case Document:
		return map[string]any(typed.Clone())
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	case []string:
		out := make([]string, len(typed))
		copy(out, typed)
		return out
	default:
		return v
	}
}

// String returns the string value stored under key.
func (d Document) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case time.Time:
		return typed.UTC().Format(TimeFormat)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

// Int returns the integer stored under key, or zero.
func (d Document) Int(key string) int {
	switch typed := d[key].(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case uint64:
		return int(typed)
	case float64:
		return int(typed)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(typed))
		return n
	default:
		return 0
	}
}

// Time parses the timestamp stored under key.
func (d Document) Time(key string) time.Time {
	switch typed := d[key].(type) {
	case time.Time:
		return typed.UTC()
	case string:
		for _, layout := range []string{TimeFormat, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, strings.TrimSpace(typed)); err == nil {
				return ts.UTC()
			}
		}
	}
	return time.Time{}
}

// Tags returns the tag list, de-duplicated and sorted.
func (d Document) Tags() []string {
	var raw []string
	switch typed := d[KeyTags].(type) {
	case []any:
		for _, v := range typed {
			if v == nil {
				continue
			}
			raw = append(raw, fmt.Sprint(v))
		}
	case []string:
		raw = append(raw, typed...)
	case string:
		raw = strings.Split(typed, ",")
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Attributes returns the attribute map with values rendered as strings.
func (d Document) Attributes() map[string]string {
	out := map[string]string{}
	switch typed := d[KeyAttributes].(type) {
	case map[string]any:
		for k, v := range typed {
			if v == nil {
				continue
			}
			out[k] = fmt.Sprint(v)
		}
	case map[string]string:
		for k, v := range typed {
			out[k] = v
		}
	case Document:
		for k, v := range typed {
			if v == nil {
				continue
			}
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// Extra returns the keys that have no typed accessor.
func (d Document) Extra() map[string]any {
	out := map[string]any{}
	for k, v := range d {
		if wellKnown(k) {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func wellKnown(key string) bool {
	switch key {
	case KeyTags, KeyAttributes, KeyRepr, KeyTaskType, KeyDCC, KeyComment,
		KeyCreatedAt, KeyModifiedAt, KeyLastVersion:
		return true
	default:
		return false
	}
}

// Merge applies delta onto a copy of d. Top-level keys are replaced; the
// attributes map is merged key by key. A nil value removes the key.
// created_at is never taken from delta.
func (d Document) Merge(delta Document) Document {
	out := d.Clone()
	for k, v := range delta {
		if k == KeyCreatedAt {
			continue
		}
		if v == nil {
			delete(out, k)
			continue
		}
		if k == KeyAttributes {
			out[k] = mergeAttributes(out[k], v)
			continue
		}
		out[k] = normalizeValue(cloneValue(v))
	}
	return out
}

func mergeAttributes(current, delta any) any {
	merged := map[string]any{}
	if existing, ok := current.(map[string]any); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	switch typed := delta.(type) {
	case map[string]any:
		for k, v := range typed {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
	case map[string]string:
		for k, v := range typed {
			merged[k] = v
		}
	default:
		return delta
	}
	return merged
}

// normalizeValue converts typed Go collections into the generic shapes the
// YAML decoder produces so documents compare the same before and after a
// round trip.
func normalizeValue(v any) any {
	switch typed := v.(type) {
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(typed))
		for k, s := range typed {
			out[k] = s
		}
		return out
	default:
		return v
	}
}
