// Package preflight provides readiness checks for the filesystem paths and
// local state ignite depends on.
//
// The CLI "ignite doctor" command runs RunAll and renders each Result. The
// checks never modify the tree; the journal check opens the database the
// same way the store does, which may create it.
package preflight
