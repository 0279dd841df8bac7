package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Record is one flattened entity.
type Record = map[string]any

// Predicate reports whether a record passes a compiled filter.
type Predicate func(Record) bool

// ArrayMarker is the field path segment that switches to an element match.
const ArrayMarker = "ARRAY"

// FilterStringField is the synthetic field used by leaves without a field.
const FilterStringField = "filter_string"

// filterStringSources lists the record fields concatenated into the
// filter string, in order.
var filterStringSources = []string{"name", "kind", "context", "task", "uri", "task_type", "dcc"}

// fold case-folds s. Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// MatchAll is the predicate of an empty filter.
func MatchAll(Record) bool { return true }

// Compile turns node into a predicate. A nil node matches everything.
func Compile(node *Node) (Predicate, error) {
	if node == nil {
		return MatchAll, nil
	}
	return compile(*node, "filter")
}

func compile(n Node, where string) (Predicate, error) {
	if !n.IsBranch() {
		return compileLeaf(n.Fields, where)
	}

	cond := strings.ToLower(strings.TrimSpace(n.Condition))
	if cond != "" && cond != And && cond != Or {
		return nil, invalid(where, "unknown condition %q", n.Condition)
	}

	children := make([]Predicate, 0, len(n.Filters))
	for i, child := range n.Filters {
		p, err := compile(child, fmt.Sprintf("%s.filters[%d]", where, i))
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	if len(children) == 0 {
		return MatchAll, nil
	}

	if cond == Or {
		return func(r Record) bool {
			for _, p := range children {
				if p(r) {
					return true
				}
			}
			return false
		}, nil
	}
	return func(r Record) bool {
		for _, p := range children {
			if !p(r) {
				return false
			}
		}
		return true
	}, nil
}

// compileLeaf ANDs every field of a leaf. Fields are compiled in sorted
// order so errors are deterministic.
func compileLeaf(fields map[string]string, where string) (Predicate, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, field := range keys {
		pattern := fields[field]
		if pattern == "" {
			continue
		}
		path, err := splitField(field)
		if err != nil {
			return nil, invalid(where, "%v", err)
		}
		match := compilePattern(pattern)
		preds = append(preds, func(r Record) bool {
			return matchPath(r, path, match)
		})
	}
	switch len(preds) {
	case 0:
		return MatchAll, nil
	case 1:
		return preds[0], nil
	}
	return func(r Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}, nil
}

// compilePattern returns a case-insensitive matcher. Invalid regular
// expressions fall back to a case-folded substring test.
func compilePattern(pattern string) func(string) bool {
	if re, err := regexp.Compile("(?i)" + pattern); err == nil {
		return re.MatchString
	}
	needle := fold(pattern)
	return func(value string) bool {
		return strings.Contains(fold(value), needle)
	}
}

func splitField(field string) ([]string, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return []string{FilterStringField}, nil
	}
	parts := strings.Split(field, ".")
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("field %q has an empty segment", field)
		}
		if p == ArrayMarker && i == 0 {
			return nil, fmt.Errorf("field %q starts with %s", field, ArrayMarker)
		}
	}
	return parts, nil
}

// matchPath walks path through r. An ARRAY segment matches when any
// element of the list on its left matches the remaining path.
func matchPath(r Record, path []string, match func(string) bool) bool {
	if len(path) == 1 && path[0] == FilterStringField {
		if _, ok := r[FilterStringField]; !ok {
			return match(FilterString(r))
		}
	}
	return matchValue(any(r), path, match)
}

func matchValue(v any, path []string, match func(string) bool) bool {
	if len(path) == 0 {
		return matchScalar(v, match)
	}
	head, rest := path[0], path[1:]
	if head == ArrayMarker {
		for _, elem := range asList(v) {
			if matchValue(elem, rest, match) {
				return true
			}
		}
		return false
	}
	child, ok := lookup(v, head)
	if !ok {
		return match("")
	}
	return matchValue(child, rest, match)
}

func lookup(v any, key string) (any, bool) {
	switch typed := v.(type) {
	case map[string]any:
		child, ok := typed[key]
		return child, ok
	case map[string]string:
		child, ok := typed[key]
		return child, ok
	}
	return nil, false
}

func asList(v any) []any {
	switch typed := v.(type) {
	case []any:
		return typed
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, m := range typed {
			out[i] = m
		}
		return out
	}
	return nil
}

// matchScalar matches a leaf value. Lists without an ARRAY marker match
// when any scalar element matches.
func matchScalar(v any, match func(string) bool) bool {
	if list := asList(v); list != nil {
		for _, elem := range list {
			if match(Text(elem)) {
				return true
			}
		}
		return false
	}
	return match(Text(v))
}

// Text renders a record value the way patterns see it.
func Text(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

// FilterString concatenates the human searchable fields of r, case-folded.
// Tags contribute their names.
func FilterString(r Record) string {
	parts := make([]string, 0, len(filterStringSources)+4)
	for _, key := range filterStringSources {
		if s := Text(r[key]); s != "" {
			parts = append(parts, s)
		}
	}
	for _, tag := range asList(r["tags"]) {
		name := tag
		if m, ok := lookup(tag, "name"); ok {
			name = m
		}
		if s := Text(name); s != "" {
			parts = append(parts, s)
		}
	}
	return fold(strings.Join(parts, " "))
}
