package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ignite/internal/address"
	"ignite/internal/journal"
	"ignite/internal/kind"
	"ignite/internal/query"
	"ignite/internal/store"
)

// Version is reported by the health endpoint.
var Version = "dev"

// HistoryReader abstracts journal reads needed for history requests.
type HistoryReader interface {
	List(ctx context.Context, f journal.Filter) ([]journal.Entry, error)
	Path() string
}

// Service executes API requests against one store.
type Service struct {
	store   *store.Store
	history HistoryReader
}

// NewService wraps st. history may be nil when the journal is disabled.
func NewService(st *store.Store, history HistoryReader) *Service {
	if st == nil {
		return nil
	}
	return &Service{store: st, history: history}
}

// Store returns the underlying store.
func (s *Service) Store() *store.Store { return s.store }

// Resolve loads the entity named by target.
func (s *Service) Resolve(ctx context.Context, target string) (store.Entity, error) {
	return s.store.Resolve(ctx, target)
}

// Path returns the directory named by target.
func (s *Service) Path(ctx context.Context, target string) (string, error) {
	return s.store.Path(ctx, target)
}

// Address returns the canonical address of the entity at path.
func (s *Service) Address(ctx context.Context, path string) (string, error) {
	a, err := s.store.Address(ctx, path)
	if err != nil {
		return "", err
	}
	return a.String(), nil
}

// Query discovers entities and runs the query stages over them. Discovery
// warnings are returned alongside the page.
func (s *Service) Query(ctx context.Context, req QueryRequest) (QueryResponse, []string, error) {
	k, err := kind.Parse(req.Kind)
	if err != nil {
		return QueryResponse{}, nil, err
	}
	listing, err := s.store.Discover(ctx, req.Path, k, store.Filter{TaskType: req.TaskType, DCC: req.DCC})
	if err != nil {
		return QueryResponse{}, nil, err
	}
	records := make([]query.Record, 0, len(listing.Entities))
	for _, e := range listing.Entities {
		records = append(records, e.Record())
	}
	q := req.Query
	if k != kind.AssetVersion {
		q.Latest = false
	}
	res, err := query.Run(records, q, req.Page, req.Limit)
	if err != nil {
		return QueryResponse{}, listing.Warnings, err
	}
	warnings, err := s.attachThumbnails(ctx, res.Data, listing.Warnings)
	if err != nil {
		return QueryResponse{}, warnings, err
	}
	return QueryResponse{Data: res.Data, PageInfo: res.PageInfo}, warnings, nil
}

// attachThumbnails sets "thumbnail" on each record of the page that has a
// repr or is an asset or version. Broken repr chains become warnings.
func (s *Service) attachThumbnails(ctx context.Context, page []query.Record, warnings []string) ([]string, error) {
	for _, rec := range page {
		path, _ := rec["path"].(string)
		repr, _ := rec["repr"].(string)
		k, _ := rec["kind"].(string)
		if path == "" || (repr == "" && k != kind.Asset.String() && k != kind.AssetVersion.String()) {
			continue
		}
		thumb, err := s.store.ResolveRepr(ctx, path)
		if err != nil {
			if store.KindOf(err) == store.KindCanceled {
				return warnings, err
			}
			warnings = append(warnings, err.Error())
			continue
		}
		if thumb != nil {
			rec["thumbnail"] = thumb.Component.Path
		}
	}
	return warnings, nil
}

// Register marks a directory as an entity.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.Entity, error) {
	k, err := kind.Parse(req.Kind)
	if err != nil {
		return store.Entity{}, err
	}
	return s.store.Register(ctx, req.Target, k, req.Metadata)
}

// Update merges metadata into an entity's marker.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (store.Entity, error) {
	if len(req.Metadata) == 0 {
		return store.Entity{}, fmt.Errorf("%w: no metadata to update", store.ErrInvalidArgument)
	}
	return s.store.Update(ctx, req.Target, req.Metadata)
}

// CreateVersion adds a version to an asset.
func (s *Service) CreateVersion(ctx context.Context, req CreateVersionRequest) (store.Entity, error) {
	return s.store.CreateVersion(ctx, req.Target, req.Version, req.Metadata)
}

// Versions lists an asset's versions with scores.
func (s *Service) Versions(ctx context.Context, target string) (VersionsResponse, error) {
	asset, err := s.store.Resolve(ctx, target)
	if err != nil {
		return VersionsResponse{}, err
	}
	if asset.Kind != kind.Asset {
		return VersionsResponse{}, fmt.Errorf("%w: %s is %s, not an asset", kind.ErrInvalid, asset.Path, asset.Kind)
	}
	versions, err := s.store.Versions(ctx, asset.Path)
	if err != nil {
		return VersionsResponse{}, err
	}
	next, err := s.store.NextVersion(ctx, asset.Path)
	if err != nil {
		return VersionsResponse{}, err
	}
	out := VersionsResponse{
		Asset:    asset.Name,
		URI:      asset.URI,
		Latest:   asset.Latest,
		Best:     asset.Best,
		Next:     next,
		Versions: make([]VersionView, 0, len(versions)),
	}
	for i, v := range versions {
		out.Versions = append(out.Versions, VersionView{Entity: v, Score: s.store.Score(v, i == len(versions)-1)})
	}
	return out, nil
}

// Repr resolves the thumbnail for target. A nil result means none.
func (s *Service) Repr(ctx context.Context, target string) (*store.Thumbnail, error) {
	return s.store.ResolveRepr(ctx, target)
}

// Delete removes an entity.
func (s *Service) Delete(ctx context.Context, target string) (store.Entity, error) {
	return s.store.Delete(ctx, target)
}

// Rename renames an entity in place.
func (s *Service) Rename(ctx context.Context, req RenameRequest) (store.Entity, error) {
	return s.store.Rename(ctx, req.Target, req.Name)
}

// Copy duplicates an entity beside itself.
func (s *Service) Copy(ctx context.Context, req RenameRequest) (store.Entity, error) {
	return s.store.Copy(ctx, req.Target, req.Name)
}

// ErrHistoryDisabled is returned when no journal is attached.
var ErrHistoryDisabled = errors.New("journal disabled")

// History lists journal entries. A target narrows the listing to that
// entity and everything below it.
func (s *Service) History(ctx context.Context, req HistoryRequest) (HistoryResponse, error) {
	if s.history == nil {
		return HistoryResponse{}, ErrHistoryDisabled
	}
	filter := journal.Filter{Op: strings.TrimSpace(req.Op), Since: req.Since, Limit: req.Limit}
	if target := strings.TrimSpace(req.Target); target != "" {
		dir, err := s.store.Path(ctx, target)
		if err != nil {
			if store.KindOf(err) != store.KindNotFound {
				return HistoryResponse{}, err
			}
			// Deleted entities still have history.
			if dir, err = s.pathOf(ctx, target); err != nil {
				return HistoryResponse{}, err
			}
		}
		filter.PathPrefix = dir
	}
	entries, err := s.history.List(ctx, filter)
	if err != nil {
		return HistoryResponse{}, err
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return HistoryResponse{Entries: entries}, nil
}

// pathOf maps target to a directory without requiring it to exist.
func (s *Service) pathOf(ctx context.Context, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	codec := s.store.Codec()
	if address.IsAddress(target) {
		return codec.DecodeString(target)
	}
	parts, err := codec.Relative(target)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{codec.Root()}, parts...)...), nil
}

// Health reports the service configuration.
func (s *Service) Health(context.Context) Health {
	h := Health{Root: s.store.Root(), Version: Version}
	if s.history != nil {
		h.Journal = s.history.Path()
	}
	return h
}
