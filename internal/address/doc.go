// Package address implements the ign: textual address grammar and the codec
// that maps addresses to and from directories under a configured root.
//
// Grammar:
//
//	ign:<project>[:<group>][:<context>][:<task>][:<name>][@<version-or-alias>]
//
// The number of colon separated slots decides the entity depth: one slot is a
// project, two a group, three a context entity (directory, build, sequence,
// shot), four a task and five an asset under the task's exports container.
// Context may contain "/" and may be empty when a task sits directly under a
// group ("ign:proj:grp::task"). A version suffix is only valid on five-slot
// addresses and is either a literal v<N> or one of the aliases latest/best.
//
// Decoding is purely textual. Aliases cannot be decoded here; the store
// resolves them against the asset's version set.
package address
