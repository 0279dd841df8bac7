package address

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ignite/internal/kind"
)

// Codec maps addresses to paths under Root and back.
type Codec struct {
	root string
	tax  *kind.Taxonomy
}

// NewCodec returns a codec rooted at root. The root is cleaned and made
// absolute.
func NewCodec(root string, tax *kind.Taxonomy) (*Codec, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("address codec: empty root")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, fmt.Errorf("address codec: resolve root: %w", err)
	}
	if tax == nil {
		tax = kind.Default()
	}
	return &Codec{root: abs, tax: tax}, nil
}

// Root returns the absolute root directory.
func (c *Codec) Root() string {
	return c.root
}

// Decode maps an address to a filesystem path. The path may not exist.
func (c *Codec) Decode(a Address) (string, error) {
	if a.slots == 0 {
		return "", fmt.Errorf("%w: empty address", ErrInvalid)
	}
	if a.HasAlias() {
		return "", fmt.Errorf("%w: %s", ErrAliasUnresolved, a)
	}
	parts := []string{c.root, a.Project}
	if a.slots >= 2 {
		parts = append(parts, a.Group)
	}
	if a.slots >= 3 && a.Context != "" {
		parts = append(parts, strings.Split(a.Context, "/")...)
	}
	if a.slots >= 4 {
		parts = append(parts, a.Task)
	}
	if a.slots == 5 {
		parts = append(parts, kind.ExportsDir, a.Name)
		if a.Version != "" {
			parts = append(parts, a.Version)
		}
	}
	return filepath.Join(parts...), nil
}

// DecodeString parses and decodes text in one step.
func (c *Codec) DecodeString(text string) (string, error) {
	a, err := Parse(text)
	if err != nil {
		return "", err
	}
	return c.Decode(a)
}

// Relative returns the slash separated parts of path relative to the root.
func (c *Codec) Relative(path string) ([]string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(c.root, abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return nil, fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return strings.Split(rel, "/"), nil
}

// Encode maps an existing entity directory to its address. The directory
// must exist, lie under the root and be classified to an addressable kind.
func (c *Codec) Encode(path string) (Address, error) {
	parts, err := c.Relative(path)
	if err != nil {
		return Address{}, err
	}
	abs := filepath.Join(append([]string{c.root}, parts...)...)
	info, err := os.Stat(abs)
	if err != nil {
		return Address{}, fmt.Errorf("encode %s: %w", path, err)
	}
	if !info.IsDir() {
		return Address{}, fmt.Errorf("%w: %s is not a directory", ErrNotAddressable, path)
	}

	k, err := c.tax.Classify(abs)
	if err != nil {
		return Address{}, fmt.Errorf("encode %s: %w", path, err)
	}
	if k == kind.None && c.isVersionDir(abs) {
		k = kind.AssetVersion
	}
	return EncodeParts(parts, k)
}

func (c *Codec) isVersionDir(abs string) bool {
	if _, ok := ParseVersion(filepath.Base(abs)); !ok {
		return false
	}
	parent, err := c.tax.Classify(filepath.Dir(abs))
	return err == nil && parent == kind.Asset
}

// EncodeParts builds an address from root-relative path parts and the kind
// already determined for the directory.
func EncodeParts(parts []string, k kind.Kind) (Address, error) {
	n := len(parts)
	rel := strings.Join(parts, "/")
	for _, part := range parts {
		if strings.ContainsAny(part, ":@") {
			return Address{}, fmt.Errorf("%w: segment %q of %s contains a reserved character", ErrNotAddressable, part, rel)
		}
	}
	switch {
	case k == kind.Project:
		if n != 1 {
			return Address{}, fmt.Errorf("%w: project %s is not directly under the root", ErrNotAddressable, rel)
		}
		return Address{Project: parts[0], slots: 1}, nil

	case k == kind.Group || k.IsContext():
		if n == 2 {
			return Address{Project: parts[0], Group: parts[1], slots: 2}, nil
		}
		if n < 2 {
			return Address{}, fmt.Errorf("%w: %s %s sits above group level", ErrNotAddressable, k, rel)
		}
		if containsReserved(parts[2:]) {
			return Address{}, fmt.Errorf("%w: %s %s lies inside a reserved container", ErrNotAddressable, k, rel)
		}
		return Address{
			Project: parts[0],
			Group:   parts[1],
			Context: strings.Join(parts[2:], "/"),
			slots:   3,
		}, nil

	case k == kind.Task:
		if n < 3 {
			return Address{}, fmt.Errorf("%w: task %s needs a project and group above it", ErrNotAddressable, rel)
		}
		if containsReserved(parts[2:]) {
			return Address{}, fmt.Errorf("%w: task %s lies inside a reserved container", ErrNotAddressable, rel)
		}
		return Address{
			Project: parts[0],
			Group:   parts[1],
			Context: strings.Join(parts[2:n-1], "/"),
			Task:    parts[n-1],
			slots:   4,
		}, nil

	case k == kind.Asset:
		return encodeAsset(parts, rel, "")

	case k == kind.AssetVersion:
		if n < 1 {
			return Address{}, fmt.Errorf("%w: empty version path", ErrNotAddressable)
		}
		version := parts[n-1]
		if _, ok := ParseVersion(version); !ok {
			return Address{}, fmt.Errorf("%w: %s is not a v<N> directory", ErrNotAddressable, rel)
		}
		return encodeAsset(parts[:n-1], rel, version)

	case k == kind.Scene:
		return Address{}, fmt.Errorf("%w: scenes have no address form (%s)", ErrNotAddressable, rel)

	default:
		return Address{}, fmt.Errorf("%w: %s is not an entity", ErrNotAddressable, rel)
	}
}

func encodeAsset(parts []string, rel, version string) (Address, error) {
	n := len(parts)
	if n < 5 || parts[n-2] != kind.ExportsDir {
		return Address{}, fmt.Errorf("%w: asset %s is not inside a task's exports container", ErrNotAddressable, rel)
	}
	if containsReserved(parts[2 : n-2]) {
		return Address{}, fmt.Errorf("%w: asset %s is nested inside another reserved container", ErrNotAddressable, rel)
	}
	return Address{
		Project: parts[0],
		Group:   parts[1],
		Context: strings.Join(parts[2:n-3], "/"),
		Task:    parts[n-3],
		Name:    parts[n-1],
		Version: version,
		slots:   5,
	}, nil
}

func containsReserved(parts []string) bool {
	for _, p := range parts {
		if kind.PassThrough(p) {
			return true
		}
	}
	return false
}
