package store

import (
	"context"
	"fmt"

	"ignite/internal/components"
	"ignite/internal/kind"
)

// Thumbnail is the component chosen to stand in for an entity.
type Thumbnail struct {
	// Source is the version the component belongs to.
	Source    string               `json:"source"`
	SourceURI string               `json:"source_uri,omitempty"`
	Component components.Component `json:"component"`
	// Chain lists the paths visited, starting with the requested entity.
	Chain []string `json:"chain"`
}

// ResolveRepr follows repr pointers from target until it reaches an asset
// (whose best version is used) or an asset version that yields a component
// matching the extension preference. Such a terminal ends the chain even when
// it carries a repr of its own. It returns nil without error when the chain
// ends somewhere without a usable component. Revisiting any path, including
// the starting one, fails with ErrReprCycle; chains longer than the
// configured hop limit fail the same way.
func (s *Store) ResolveRepr(ctx context.Context, target string) (*Thumbnail, error) {
	const op = "resolve_repr"
	current, err := s.resolve(target)
	if err != nil {
		return nil, wrap(op, target, err)
	}

	visited := map[string]struct{}{current.Path: {}}
	chain := []string{current.Path}
	for hops := 0; ; hops++ {
		if thumb := s.thumbnailOf(current, chain); thumb != nil {
			return thumb, nil
		}
		if current.Repr == "" {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, wrap(op, target, err)
		}
		if hops >= s.settings.ReprMaxHops {
			return nil, newError(KindReprCycle, op, current.Path,
				fmt.Errorf("%w: more than %d hops", ErrReprCycle, s.settings.ReprMaxHops))
		}
		next, err := s.resolve(current.Repr)
		if err != nil {
			return nil, wrap(op, current.Path, fmt.Errorf("repr %s: %w", current.Repr, err))
		}
		if _, seen := visited[next.Path]; seen {
			return nil, newError(KindReprCycle, op, current.Path,
				fmt.Errorf("%w: %s points back to %s", ErrReprCycle, current.Path, next.Path))
		}
		visited[next.Path] = struct{}{}
		chain = append(chain, next.Path)
		current = next
	}
}

// thumbnailOf returns the thumbnail e provides on its own, or nil when e is
// not an asset or version with a preferred component.
func (s *Store) thumbnailOf(e Entity, chain []string) *Thumbnail {
	var version Entity
	switch e.Kind {
	case kind.AssetVersion:
		version = e
	case kind.Asset:
		best, ok := s.bestOf(s.versionEntities(e.Path))
		if !ok {
			return nil
		}
		version = best
		chain = append(chain, best.Path)
	default:
		return nil
	}

	comp, ok := components.Pick(version.Components, s.settings.ThumbnailExtensions)
	if !ok {
		return nil
	}
	return &Thumbnail{
		Source:    version.Path,
		SourceURI: version.URI,
		Component: comp,
		Chain:     append([]string(nil), chain...),
	}
}
