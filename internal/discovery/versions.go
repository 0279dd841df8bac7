package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"ignite/internal/address"
	"ignite/internal/kind"
)

// VersionDir is one v<N> directory of an asset.
type VersionDir struct {
	Path   string
	Name   string
	Number int
}

// ListVersions returns the version directories of an asset sorted by number.
// Non-version children are ignored. Duplicate numbers with different padding
// (v01 and v001) keep the first in name order.
func ListVersions(assetDir string) ([]VersionDir, error) {
	entries, err := os.ReadDir(assetDir)
	if err != nil {
		return nil, err
	}
	seen := map[int]struct{}{}
	var out []VersionDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, ok := address.ParseVersion(entry.Name())
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, VersionDir{
			Path:   filepath.Join(assetDir, entry.Name()),
			Name:   entry.Name(),
			Number: n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// ExpandVersions turns asset hits into asset-version hits, reading up to
// workers assets concurrently. Output keeps asset order, then version order.
// An unreadable asset contributes an ErrPartial warning instead of failing
// the expansion.
func ExpandVersions(ctx context.Context, assets []Hit, workers int) ([]Hit, []error, error) {
	if workers < 1 {
		workers = 1
	}
	perAsset := make([][]Hit, len(assets))
	warnings := make([][]error, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, asset := range assets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			versions, err := ListVersions(asset.Path)
			if err != nil {
				warnings[i] = append(warnings[i], fmt.Errorf("%w: %s: %w", ErrPartial, asset.Path, err))
				return nil
			}
			hits := make([]Hit, 0, len(versions))
			for _, v := range versions {
				files, err := versionFiles(v.Path)
				if err != nil {
					warnings[i] = append(warnings[i], fmt.Errorf("%w: %s: %w", ErrPartial, v.Path, err))
					continue
				}
				hits = append(hits, Hit{Path: v.Path, Kind: kind.AssetVersion, Files: files})
			}
			perAsset[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var out []Hit
	var warns []error
	for i := range assets {
		out = append(out, perAsset[i]...)
		warns = append(warns, warnings[i]...)
	}
	return out, warns, nil
}

var versionFiles = listFiles

func listFiles(dir string) ([]string, error) {
	l, err := readListing(dir)
	if err != nil {
		return nil, err
	}
	return l.files, nil
}
