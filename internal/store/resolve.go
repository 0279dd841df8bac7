package store

import (
	"context"
	"fmt"
	"strings"

	"ignite/internal/address"
	"ignite/internal/kind"
)

// Resolve maps an address or a path to its entity. Addresses ending in
// @latest or @best resolve through the asset's version set. Resolution is
// read-only.
func (s *Store) Resolve(ctx context.Context, target string) (Entity, error) {
	if err := ctx.Err(); err != nil {
		return Entity{}, wrap("resolve", target, err)
	}
	e, err := s.resolve(target)
	if err != nil {
		return Entity{}, wrap("resolve", target, err)
	}
	return e, nil
}

// Path maps target to its directory without loading metadata. Aliases are
// resolved; a plain address is decoded and must name a marked directory.
func (s *Store) Path(ctx context.Context, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrap("path", target, err)
	}
	dir, err := s.locate(target, true)
	if err != nil {
		return "", wrap("path", target, err)
	}
	k, _, err := s.classify(dir)
	if err != nil {
		return "", wrap("path", target, err)
	}
	if k == kind.None {
		return "", wrap("path", target, fmt.Errorf("%w: %s carries no marker", ErrNotFound, dir))
	}
	return dir, nil
}

// Address encodes an existing entity directory.
func (s *Store) Address(ctx context.Context, path string) (address.Address, error) {
	if err := ctx.Err(); err != nil {
		return address.Address{}, wrap("address", path, err)
	}
	a, err := s.codec.Encode(path)
	if err != nil {
		return address.Address{}, wrap("address", path, err)
	}
	return a, nil
}

func (s *Store) resolve(target string) (Entity, error) {
	dir, err := s.locate(target, true)
	if err != nil {
		return Entity{}, err
	}
	return s.resolveDir(dir)
}

// resolveDir classifies dir and loads it. Unclassified directories are not
// entities.
func (s *Store) resolveDir(dir string) (Entity, error) {
	k, files, err := s.classify(dir)
	if err != nil {
		return Entity{}, err
	}
	if k == kind.None {
		return Entity{}, fmt.Errorf("%w: %s carries no marker", ErrNotFound, dir)
	}
	return s.load(dir, k, files), nil
}

// locate turns target into an absolute directory under the root. When
// allowAlias is false, @latest and @best are rejected.
func (s *Store) locate(target string, allowAlias bool) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("%w: empty target", ErrInvalidArgument)
	}
	if !address.IsAddress(target) {
		return s.absUnderRoot(target)
	}

	a, err := address.Parse(target)
	if err != nil {
		return "", err
	}
	if !a.HasAlias() {
		return s.codec.Decode(a)
	}
	if !allowAlias {
		return "", fmt.Errorf("%w: version alias not accepted here: %s", address.ErrInvalid, target)
	}

	assetDir, err := s.codec.Decode(a.Unversioned())
	if err != nil {
		return "", err
	}
	k, _, err := s.classify(assetDir)
	if err != nil {
		return "", err
	}
	if k != kind.Asset {
		return "", fmt.Errorf("%w: %s is %s, not an asset", ErrNotFound, assetDir, k)
	}
	versions := s.versionEntities(assetDir)
	var (
		picked Entity
		ok     bool
	)
	switch a.Alias {
	case address.AliasLatest:
		picked, ok = latestOf(versions)
	case address.AliasBest:
		picked, ok = s.bestOf(versions)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s has no versions", ErrNotFound, a.Unversioned())
	}
	return picked.Path, nil
}
