// Package marker reads and writes the YAML documents stored in entity marker
// files.
//
// A Document is an open key/value map: well-known keys (tags, attributes,
// repr, task_type, dcc, comment, created_at, modified_at, last_version) have
// typed accessors, every other key is carried through untouched. Updates
// merge a delta into the stored document under an advisory file lock and
// replace the file atomically, so unknown keys survive and created_at is
// never rewritten.
package marker
