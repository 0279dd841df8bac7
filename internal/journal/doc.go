// Package journal persists a local, append-only record of store mutations
// (register, update, version creation, delete, rename, copy) in SQLite.
//
// The tree itself remains the source of truth; the journal only answers
// "what changed here and when" for the history command and the HTTP API.
package journal
