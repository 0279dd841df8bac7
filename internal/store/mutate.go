package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"ignite/internal/address"
	"ignite/internal/fileutil"
	"ignite/internal/journal"
	"ignite/internal/kind"
	"ignite/internal/marker"
)

// cleanDelta drops keys callers may not set directly.
func cleanDelta(delta marker.Document) marker.Document {
	out := delta.Clone()
	delete(out, marker.KeyCreatedAt)
	delete(out, marker.KeyModifiedAt)
	delete(out, marker.KeyLastVersion)
	return out
}

// checkRepr validates the grammar of a repr value in delta.
func checkRepr(delta marker.Document) error {
	raw, ok := delta[marker.KeyRepr]
	if !ok || raw == nil {
		return nil
	}
	value, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%w: repr must be an address string", address.ErrInvalid)
	}
	if value == "" {
		return nil
	}
	_, err := address.Parse(value)
	return err
}

// Register marks the directory at target as kind k, creating the directory
// when missing. Registering the same kind twice is a no-op that returns the
// existing entity; a directory already marked as another kind fails with
// kind.ErrAmbiguous. doc seeds the marker on first creation only.
func (s *Store) Register(ctx context.Context, target string, k kind.Kind, doc marker.Document) (Entity, error) {
	const op = "register"
	if err := ctx.Err(); err != nil {
		return Entity{}, wrap(op, target, err)
	}
	if !k.Valid() || k == kind.None {
		return Entity{}, newError(KindInvalidKind, op, target, fmt.Errorf("%w: %q", kind.ErrInvalid, k))
	}
	if err := checkRepr(doc); err != nil {
		return Entity{}, wrap(op, target, err)
	}
	dir, err := s.locate(target, false)
	if err != nil {
		return Entity{}, wrap(op, target, err)
	}

	if existing, files, err := s.classify(dir); err == nil {
		switch {
		case existing == k && s.hasMarker(files, k):
			return s.load(dir, k, files), nil
		case existing != kind.None && s.hasMarker(files, existing):
			return Entity{}, newError(KindAmbiguous, op, dir,
				fmt.Errorf("%w: already registered as %s", kind.ErrAmbiguous, existing))
		}
	} else if !errors.Is(err, ErrNotFound) {
		return Entity{}, wrap(op, dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Entity{}, wrap(op, dir, err)
	}
	created, err := s.writer.Create(s.markerPath(dir, k), cleanDelta(doc))
	if err != nil {
		return Entity{}, wrap(op, dir, err)
	}

	// A concurrent registration of a different kind shows up here as an
	// ambiguous directory. The marker this call wrote is withdrawn so the
	// directory does not stay ambiguous.
	e, err := s.resolveDir(dir)
	if err == nil && e.Kind != k {
		err = fmt.Errorf("%w: registered concurrently as %s", kind.ErrAmbiguous, e.Kind)
	}
	if err != nil {
		if created && errors.Is(err, kind.ErrAmbiguous) {
			if rmErr := os.Remove(s.markerPath(dir, k)); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				err = errors.Join(err, rmErr)
			}
		}
		return Entity{}, wrap(op, dir, err)
	}
	if !created {
		return e, nil
	}

	if k == kind.AssetVersion && e.VersionNumber > 0 && s.parentIsAsset(dir) {
		if err := s.bumpLastVersion(ctx, filepath.Dir(dir), e.VersionNumber); err != nil {
			return Entity{}, wrap(op, dir, err)
		}
	}
	s.record(ctx, journal.OpRegister, e, nil)
	return e, nil
}

func (s *Store) hasMarker(files []string, k kind.Kind) bool {
	name := s.tax.Marker(k)
	for _, f := range files {
		if f == name {
			return true
		}
	}
	return false
}

func (s *Store) parentIsAsset(dir string) bool {
	k, err := s.tax.Classify(filepath.Dir(dir))
	return err == nil && k == kind.Asset
}

// Update merges delta into the entity's marker under the marker lock.
// Unknown keys are preserved, created_at is kept and modified_at refreshed.
// A nil value in delta removes that key. Unmarked version directories get a
// marker on first update.
func (s *Store) Update(ctx context.Context, target string, delta marker.Document) (Entity, error) {
	const op = "update"
	if err := ctx.Err(); err != nil {
		return Entity{}, wrap(op, target, err)
	}
	if err := checkRepr(delta); err != nil {
		return Entity{}, wrap(op, target, err)
	}
	dir, err := s.locate(target, false)
	if err != nil {
		return Entity{}, wrap(op, target, err)
	}
	k, files, err := s.classify(dir)
	if err != nil {
		return Entity{}, wrap(op, dir, err)
	}
	if k == kind.None {
		return Entity{}, newError(KindNotFound, op, dir, fmt.Errorf("%w: %s carries no marker", ErrNotFound, dir))
	}
	path := s.markerPath(dir, k)
	if !s.hasMarker(files, k) {
		if _, err := s.writer.Create(path, marker.Document{}); err != nil {
			return Entity{}, wrap(op, dir, err)
		}
	}

	clean := cleanDelta(delta)
	if _, err := s.writer.Update(ctx, path, clean); err != nil {
		return Entity{}, wrap(op, dir, err)
	}
	e, err := s.resolveDir(dir)
	if err != nil {
		return Entity{}, wrap(op, dir, err)
	}
	keys := make([]string, 0, len(clean))
	for key := range clean {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s.record(ctx, journal.OpUpdate, e, map[string]any{"keys": keys})
	return e, nil
}

// Delete removes the entity directory and everything below it. Deleting a
// version first raises the asset's last_version so the number is never
// reused.
func (s *Store) Delete(ctx context.Context, target string) (Entity, error) {
	const op = "delete"
	if err := ctx.Err(); err != nil {
		return Entity{}, wrap(op, target, err)
	}
	dir, err := s.locate(target, false)
	if err != nil {
		return Entity{}, wrap(op, target, err)
	}
	e, err := s.resolveDir(dir)
	if err != nil {
		return Entity{}, wrap(op, dir, err)
	}
	if e.Kind == kind.AssetVersion && e.VersionNumber > 0 && s.parentIsAsset(dir) {
		if err := s.bumpLastVersion(ctx, filepath.Dir(dir), e.VersionNumber); err != nil {
			return Entity{}, wrap(op, dir, err)
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		return Entity{}, wrap(op, dir, err)
	}
	s.record(ctx, journal.OpDelete, e, nil)
	return e, nil
}

// Rename moves the entity to a new name inside the same parent. Version
// and scene directories keep their numbering and cannot be renamed.
func (s *Store) Rename(ctx context.Context, target, newName string) (Entity, error) {
	const op = "rename"
	src, dst, e, err := s.siblingTarget(ctx, op, target, newName)
	if err != nil {
		return Entity{}, err
	}
	if err := os.Rename(src, dst); err != nil {
		return Entity{}, wrap(op, src, err)
	}
	renamed, err := s.resolveDir(dst)
	if err != nil {
		return Entity{}, wrap(op, dst, err)
	}
	s.record(ctx, journal.OpRename, renamed, map[string]any{"from": e.Path, "from_uri": e.URI})
	return renamed, nil
}

// Copy duplicates the entity subtree under a new sibling name. The copied
// root marker is re-stamped as a new entity; lock sidecars are not copied.
func (s *Store) Copy(ctx context.Context, target, newName string) (Entity, error) {
	const op = "copy"
	src, dst, e, err := s.siblingTarget(ctx, op, target, newName)
	if err != nil {
		return Entity{}, err
	}
	if err := fileutil.CopyTree(src, dst, marker.IsLockFile); err != nil {
		_ = os.RemoveAll(dst)
		return Entity{}, wrap(op, src, err)
	}

	markerPath := s.markerPath(dst, e.Kind)
	if doc, err := marker.Read(markerPath); err == nil {
		delete(doc, marker.KeyCreatedAt)
		if err := os.Remove(markerPath); err != nil {
			return Entity{}, wrap(op, dst, err)
		}
		if _, err := s.writer.Create(markerPath, doc); err != nil {
			return Entity{}, wrap(op, dst, err)
		}
	}

	copied, err := s.resolveDir(dst)
	if err != nil {
		return Entity{}, wrap(op, dst, err)
	}
	s.record(ctx, journal.OpCopy, copied, map[string]any{"from": e.Path, "from_uri": e.URI})
	return copied, nil
}

func (s *Store) siblingTarget(ctx context.Context, op, target, newName string) (string, string, Entity, error) {
	if err := ctx.Err(); err != nil {
		return "", "", Entity{}, wrap(op, target, err)
	}
	if err := validName(newName); err != nil {
		return "", "", Entity{}, wrap(op, target, err)
	}
	src, err := s.locate(target, false)
	if err != nil {
		return "", "", Entity{}, wrap(op, target, err)
	}
	e, err := s.resolveDir(src)
	if err != nil {
		return "", "", Entity{}, wrap(op, src, err)
	}
	switch e.Kind {
	case kind.AssetVersion, kind.Scene:
		return "", "", Entity{}, newError(KindInvalidArgument, op, src,
			fmt.Errorf("%w: %s directories are numbered and cannot be renamed or copied", ErrInvalidArgument, e.Kind))
	}
	dst := filepath.Join(filepath.Dir(src), newName)
	if _, err := os.Lstat(dst); err == nil {
		return "", "", Entity{}, newError(KindExists, op, dst, fmt.Errorf("%w: %s", ErrExists, dst))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", "", Entity{}, wrap(op, dst, err)
	}
	return src, dst, e, nil
}
