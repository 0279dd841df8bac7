// Package main hosts the ignite CLI entrypoint and command graph.
//
// The Cobra-based command tree maps terminal invocations onto the api
// service: resolving addresses, listing and querying entities, editing
// markers, version management, the mutation journal, and the HTTP server.
// Configuration resolution, logger setup and journal lifetime live in the
// command context so subcommands only deal with presentation.
//
// Keep this package lean: add behaviour to the internal packages first and
// surface it here through dedicated commands or flags.
package main
