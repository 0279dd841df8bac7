package query

import (
	"cmp"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// PathField is the secondary sort key that keeps ordering deterministic.
const PathField = "path"

// Filter returns the records matching pred in their original order.
func Filter(records []Record, pred Predicate) []Record {
	if pred == nil {
		pred = MatchAll
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders records by field, then by path. Numbers compare numerically;
// everything else compares as case-folded text. Missing values sort first.
// reverse flips the field order only; the path tie-break stays ascending.
// An empty field sorts by path alone.
func Sort(records []Record, field string, reverse bool) {
	path := splitSortField(field)
	slices.SortStableFunc(records, func(a, b Record) int {
		if path != nil {
			c := compareValues(sortValue(a, path), sortValue(b, path))
			if reverse {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(Text(a[PathField]), Text(b[PathField]))
	})
}

func splitSortField(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	return strings.Split(field, ".")
}

func sortValue(r Record, path []string) any {
	var v any = r
	for _, key := range path {
		child, ok := lookup(v, key)
		if !ok {
			return nil
		}
		v = child
	}
	return v
}

func numeric(v any) (float64, bool) {
	switch typed := v.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float64:
		return typed, true
	case string:
		f, err := strconv.ParseFloat(typed, 64)
		return f, err == nil
	}
	return 0, false
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := numeric(a); ok {
		if fb, ok := numeric(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	return strings.Compare(fold(Text(a)), fold(Text(b)))
}

// PageInfo summarizes a paginated result.
type PageInfo struct {
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// Paginate returns the 1-based page of records. limit <= 0 returns every
// record as a single page. Pages past the end are empty.
func Paginate(records []Record, page, limit int) ([]Record, PageInfo) {
	total := len(records)
	info := PageInfo{TotalResults: total}
	if total == 0 {
		return []Record{}, info
	}
	if limit <= 0 {
		info.TotalPages = 1
		if page > 1 {
			return []Record{}, info
		}
		return records, info
	}
	info.TotalPages = (total + limit - 1) / limit
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return []Record{}, info
	}
	end := min(start+limit, total)
	return records[start:end], info
}

// KeepLatest keeps, for each asset directory, only the record with the
// highest version_number. Records without a version number pass through.
// Relative order of the kept records is preserved.
func KeepLatest(records []Record) []Record {
	best := map[string]int{}
	for i, r := range records {
		n, ok := numeric(r["version_number"])
		if !ok {
			continue
		}
		group := filepath.Dir(Text(r[PathField]))
		if j, seen := best[group]; seen {
			if prev, _ := numeric(records[j]["version_number"]); prev >= n {
				continue
			}
		}
		best[group] = i
	}
	out := make([]Record, 0, len(records))
	for i, r := range records {
		if _, ok := numeric(r["version_number"]); !ok {
			out = append(out, r)
			continue
		}
		if best[filepath.Dir(Text(r[PathField]))] == i {
			out = append(out, r)
		}
	}
	return out
}
