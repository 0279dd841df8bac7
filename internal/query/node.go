package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Conditions accepted by branch nodes.
const (
	And = "and"
	Or  = "or"
)

// Node is one element of a filter tree. A node with Filters or Condition set
// is a branch; otherwise Fields holds the leaf's field to pattern pairs.
type Node struct {
	Condition string
	Filters   []Node
	Fields    map[string]string
}

// IsBranch reports whether n combines child nodes.
func (n Node) IsBranch() bool {
	return n.Condition != "" || n.Filters != nil
}

// Leaf builds a single field leaf.
func Leaf(field, pattern string) Node {
	return Node{Fields: map[string]string{field: pattern}}
}

// AllOf combines nodes with "and".
func AllOf(nodes ...Node) Node {
	return Node{Condition: And, Filters: nodes}
}

// AnyOf combines nodes with "or".
func AnyOf(nodes ...Node) Node {
	return Node{Condition: Or, Filters: nodes}
}

// UnmarshalJSON accepts both node shapes. Leaf values may be strings,
// numbers or booleans; they are matched in their printed form.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &Error{Reason: fmt.Sprintf("node must be an object: %v", err)}
	}
	_, hasCond := raw["condition"]
	_, hasFilters := raw["filters"]
	if hasCond || hasFilters {
		var branch struct {
			Condition string `json:"condition"`
			Filters   []Node `json:"filters"`
		}
		if err := json.Unmarshal(data, &branch); err != nil {
			return err
		}
		*n = Node{Condition: branch.Condition, Filters: branch.Filters}
		if n.Filters == nil {
			n.Filters = []Node{}
		}
		return nil
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return &Error{Where: key, Reason: err.Error()}
		}
		switch typed := v.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = typed
		case float64, bool:
			fields[key] = fmt.Sprint(typed)
		default:
			return &Error{Where: key, Reason: "leaf pattern must be a scalar"}
		}
	}
	*n = Node{Fields: fields}
	return nil
}

// MarshalJSON writes the node back in its wire shape.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.IsBranch() {
		filters := n.Filters
		if filters == nil {
			filters = []Node{}
		}
		return json.Marshal(struct {
			Condition string `json:"condition,omitempty"`
			Filters   []Node `json:"filters"`
		}{n.Condition, filters})
	}
	if n.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(n.Fields)
}

func (n Node) String() string {
	if !n.IsBranch() {
		keys := make([]string, 0, len(n.Fields))
		for k := range n.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s~%q", k, n.Fields[k]))
		}
		return strings.Join(parts, " & ")
	}
	parts := make([]string, 0, len(n.Filters))
	for _, f := range n.Filters {
		parts = append(parts, "("+f.String()+")")
	}
	return strings.Join(parts, " "+strings.ToUpper(n.Condition)+" ")
}
