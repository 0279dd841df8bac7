// Package query compiles declarative filter trees into predicates over
// flattened entity records and applies the sort and pagination stages that
// follow them.
//
// A filter node is either a branch {"condition": "and"|"or", "filters": [...]}
// or a leaf {"field": "pattern"}. Patterns are case-insensitive regular
// expressions; a pattern that does not compile is matched as a case-folded
// substring instead. A field path segment named ARRAY turns the match into
// an existential over the elements of the list on its left, so
// "tags.ARRAY.name" matches when any tag's name matches.
//
// Records are plain map[string]any values so the package stays independent
// of the store's entity type.
package query
