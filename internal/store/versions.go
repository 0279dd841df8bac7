package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ignite/internal/address"
	"ignite/internal/discovery"
	"ignite/internal/journal"
	"ignite/internal/kind"
	"ignite/internal/logging"
	"ignite/internal/marker"
)

// versionEntities lists and loads the versions of the asset at dir in
// ascending order. Unreadable versions are skipped with a warning.
func (s *Store) versionEntities(dir string) []Entity {
	dirs, err := discovery.ListVersions(dir)
	if err != nil {
		logging.WarnWithContext(s.logger, "asset versions unreadable", "versions_unreadable",
			logging.String(logging.FieldEntityPath, dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "asset reported without versions"),
		)
		return nil
	}
	out := make([]Entity, 0, len(dirs))
	for _, v := range dirs {
		files, err := listFiles(v.Path)
		if err != nil {
			logging.WarnWithContext(s.logger, "version unreadable", "versions_unreadable",
				logging.String(logging.FieldEntityPath, v.Path),
				logging.Error(err),
			)
			continue
		}
		out = append(out, s.load(v.Path, kind.AssetVersion, files))
	}
	return out
}

func latestOf(versions []Entity) (Entity, bool) {
	if len(versions) == 0 {
		return Entity{}, false
	}
	return versions[len(versions)-1], true
}

// Score sums the configured tag weights of v, plus one when v is the latest
// version.
func (s *Store) Score(v Entity, latest bool) int {
	score := 0
	for _, tag := range v.Tags {
		score += s.settings.TagWeights[strings.ToLower(tag)]
	}
	if latest {
		score++
	}
	return score
}

// bestOf picks the highest scoring version; ties go to the higher version.
// versions must be sorted ascending.
func (s *Store) bestOf(versions []Entity) (Entity, bool) {
	if len(versions) == 0 {
		return Entity{}, false
	}
	last := len(versions) - 1
	bestIdx, bestScore := -1, 0
	for i, v := range versions {
		score := s.Score(v, i == last)
		if bestIdx < 0 || score >= bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return versions[bestIdx], true
}

// asset resolves target and requires an Asset.
func (s *Store) asset(target string) (Entity, error) {
	dir, err := s.locate(target, false)
	if err != nil {
		return Entity{}, err
	}
	k, files, err := s.classify(dir)
	if err != nil {
		return Entity{}, err
	}
	if k != kind.Asset {
		return Entity{}, fmt.Errorf("%w: %s is %s, not an asset", kind.ErrInvalid, dir, k)
	}
	return s.load(dir, k, files), nil
}

// Versions returns the asset's versions sorted by number.
func (s *Store) Versions(ctx context.Context, target string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("versions", target, err)
	}
	a, err := s.asset(target)
	if err != nil {
		return nil, wrap("versions", target, err)
	}
	return s.versionEntities(a.Path), nil
}

// Latest returns the highest numbered version.
func (s *Store) Latest(ctx context.Context, target string) (Entity, error) {
	versions, err := s.Versions(ctx, target)
	if err != nil {
		return Entity{}, err
	}
	v, ok := latestOf(versions)
	if !ok {
		return Entity{}, newError(KindNotFound, "latest", target, fmt.Errorf("%w: no versions", ErrNotFound))
	}
	return v, nil
}

// Best returns the highest scoring version.
func (s *Store) Best(ctx context.Context, target string) (Entity, error) {
	versions, err := s.Versions(ctx, target)
	if err != nil {
		return Entity{}, err
	}
	v, ok := s.bestOf(versions)
	if !ok {
		return Entity{}, newError(KindNotFound, "best", target, fmt.Errorf("%w: no versions", ErrNotFound))
	}
	return v, nil
}

// NextVersion returns the number the next created version would get. It
// exceeds every existing version and every number ever recorded in the
// asset's last_version key, so deleting versions never recycles numbers.
func (s *Store) NextVersion(ctx context.Context, target string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, wrap("next_version", target, err)
	}
	a, err := s.asset(target)
	if err != nil {
		return 0, wrap("next_version", target, err)
	}
	doc := s.readDocument(a.Path, kind.Asset, []string{s.tax.Marker(kind.Asset)})
	n, err := nextVersion(a.Path, doc)
	if err != nil {
		return 0, wrap("next_version", a.Path, err)
	}
	return n, nil
}

func nextVersion(assetDir string, doc marker.Document) (int, error) {
	dirs, err := discovery.ListVersions(assetDir)
	if err != nil {
		return 0, err
	}
	high := doc.Int(marker.KeyLastVersion)
	for _, v := range dirs {
		if v.Number > high {
			high = v.Number
		}
	}
	return high + 1, nil
}

// CreateVersion creates a version directory under the asset and registers
// its marker seeded with doc. number <= 0 picks NextVersion. Creation is
// serialized on the asset marker lock; an existing directory for the chosen
// number fails with ErrVersionConflict.
func (s *Store) CreateVersion(ctx context.Context, target string, number int, doc marker.Document) (Entity, error) {
	const op = "create_version"
	a, err := s.asset(target)
	if err != nil {
		return Entity{}, wrap(op, target, err)
	}

	var created string
	_, err = s.writer.Modify(ctx, s.markerPath(a.Path, kind.Asset), func(current marker.Document) (marker.Document, error) {
		n := number
		if n <= 0 {
			next, err := nextVersion(a.Path, current)
			if err != nil {
				return nil, err
			}
			n = next
		}
		if existing, ok := findVersion(a.Path, n); ok {
			return nil, fmt.Errorf("%w: %s already exists", ErrVersionConflict, existing)
		}
		dir := filepath.Join(a.Path, address.VersionName(n, s.settings.VersionPadding))
		if err := os.Mkdir(dir, 0o755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return nil, fmt.Errorf("%w: %s already exists", ErrVersionConflict, dir)
			}
			return nil, err
		}
		if _, err := s.writer.Create(s.markerPath(dir, kind.AssetVersion), cleanDelta(doc)); err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
		if current.Int(marker.KeyLastVersion) < n {
			current[marker.KeyLastVersion] = n
		}
		created = dir
		return current, nil
	})
	if err != nil {
		return Entity{}, wrap(op, a.Path, err)
	}

	e, err := s.resolveDir(created)
	if err != nil {
		return Entity{}, wrap(op, created, err)
	}
	s.record(ctx, journal.OpCreateVersion, e, map[string]any{"version": e.Version})
	return e, nil
}

// findVersion reports an existing directory for version n under any padding.
func findVersion(assetDir string, n int) (string, bool) {
	dirs, err := discovery.ListVersions(assetDir)
	if err != nil {
		return "", false
	}
	for _, v := range dirs {
		if v.Number == n {
			return v.Path, true
		}
	}
	return "", false
}

// bumpLastVersion raises the asset's high-water mark to at least n.
func (s *Store) bumpLastVersion(ctx context.Context, assetDir string, n int) error {
	_, err := s.writer.Modify(ctx, s.markerPath(assetDir, kind.Asset), func(current marker.Document) (marker.Document, error) {
		if current.Int(marker.KeyLastVersion) < n {
			current[marker.KeyLastVersion] = n
		}
		return current, nil
	})
	return err
}
