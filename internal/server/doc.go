// Package server exposes the api.Service over HTTP for pipeline tools that
// cannot link the store directly.
//
// Every response except /api/path is a JSON api.Envelope. /api/path answers
// with the bare directory so shell scripts and host application resolvers
// can use it without a JSON parser. Each request carries an X-Request-ID,
// generated when the client does not send one, which is logged as the
// correlation id of every line the request produces.
//
// A running server holds an advisory lock in the state directory so two
// servers never share one state dir.
package server
