// Package api defines the request and response types shared by the CLI and
// the HTTP transport, and the Service that executes them against a store.
//
// # Key Types
//
// Envelope: the {ok, data, error, warnings} wrapper every JSON response
// uses. ErrorBody carries the machine readable kind from store.KindOf.
//
// QueryRequest/QueryResponse: discovery plus the query compiler's filter,
// sort and pagination stages.
//
// VersionsResponse: an asset's versions annotated with their scores and the
// latest/best picks.
//
// # Design Notes
//
// JSON fields are snake_case to match marker keys. Entities cross the
// boundary as store.Entity for single lookups and as flattened records for
// queries, so clients can filter on exactly the fields they receive.
package api
