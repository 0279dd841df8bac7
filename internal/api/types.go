package api

import (
	"time"

	"ignite/internal/journal"
	"ignite/internal/marker"
	"ignite/internal/query"
	"ignite/internal/store"
)

// Envelope wraps every JSON response.
type Envelope struct {
	OK       bool       `json:"ok"`
	Data     any        `json:"data,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Success wraps data in an OK envelope.
func Success(data any, warnings ...string) Envelope {
	return Envelope{OK: true, Data: data, Warnings: warnings}
}

// Failure wraps err in an error envelope.
func Failure(err error) Envelope {
	return Envelope{Error: &ErrorBody{Kind: store.KindOf(err), Message: err.Error()}}
}

// QueryRequest lists entities of Kind below Path and runs Query over them.
type QueryRequest struct {
	Path  string        `json:"path"`
	Kind  string        `json:"kind"`
	Query query.Request `json:"query"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	// TaskType and DCC narrow discovery before the query runs.
	TaskType string `json:"task_type,omitempty"`
	DCC      string `json:"dcc,omitempty"`
}

// QueryResponse is one page of query results.
type QueryResponse struct {
	Data     []query.Record `json:"data"`
	PageInfo query.PageInfo `json:"page_info"`
}

// RegisterRequest marks Target as Kind.
type RegisterRequest struct {
	Target   string          `json:"target"`
	Kind     string          `json:"kind"`
	Metadata marker.Document `json:"metadata,omitempty"`
}

// UpdateRequest merges Metadata into Target's marker.
type UpdateRequest struct {
	Target   string          `json:"target"`
	Metadata marker.Document `json:"metadata"`
}

// CreateVersionRequest creates a version under the asset at Target.
// Version <= 0 picks the next number.
type CreateVersionRequest struct {
	Target   string          `json:"target"`
	Version  int             `json:"version,omitempty"`
	Metadata marker.Document `json:"metadata,omitempty"`
}

// TargetRequest names a single entity.
type TargetRequest struct {
	Target string `json:"target"`
}

// RenameRequest renames or copies Target to a sibling called Name.
type RenameRequest struct {
	Target string `json:"target"`
	Name   string `json:"name"`
}

// VersionView is one version with its ranking score.
type VersionView struct {
	store.Entity
	Score int `json:"score"`
}

// VersionsResponse lists an asset's versions.
type VersionsResponse struct {
	Asset    string        `json:"asset"`
	URI      string        `json:"uri,omitempty"`
	Latest   string        `json:"latest,omitempty"`
	Best     string        `json:"best,omitempty"`
	Next     int           `json:"next"`
	Versions []VersionView `json:"versions"`
}

// HistoryRequest filters the mutation journal.
type HistoryRequest struct {
	Target string
	Op     string
	Since  time.Time
	Limit  int
}

// HistoryResponse lists journal entries, newest first.
type HistoryResponse struct {
	Entries []journal.Entry `json:"entries"`
}

// Health reports whether the service can reach its root and journal.
type Health struct {
	Root    string `json:"root"`
	Journal string `json:"journal,omitempty"`
	Version string `json:"version"`
}
