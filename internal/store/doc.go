// Package store turns a directory tree into a typed entity store.
//
// A Store is an immutable handle over one project root: it owns the kind
// taxonomy, the address codec, the discovery walker and the marker writer.
// Reads (Resolve, Discover, Versions, Latest, Best, ResolveRepr) never touch
// the tree; mutations (Register, Update, CreateVersion, Delete, Rename, Copy)
// write markers atomically and, when a journal is attached, record what
// they changed.
//
// Every error returned by a Store operation carries a machine readable kind;
// use KindOf to obtain it.
package store
