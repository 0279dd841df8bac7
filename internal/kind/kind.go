package kind

import (
	"fmt"
	"strings"
)

// Kind identifies the classification of an entity directory.
type Kind string

const (
	None         Kind = ""
	Project      Kind = "project"
	Group        Kind = "group"
	Directory    Kind = "directory"
	Build        Kind = "build"
	Sequence     Kind = "sequence"
	Shot         Kind = "shot"
	Task         Kind = "task"
	Asset        Kind = "asset"
	AssetVersion Kind = "assetversion"
	Scene        Kind = "scene"
)

var allKinds = []Kind{
	Project,
	Group,
	Directory,
	Build,
	Sequence,
	Shot,
	Task,
	Asset,
	AssetVersion,
	Scene,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, k := range allKinds {
		set[k] = struct{}{}
	}
	return set
}()

// All returns every known kind in taxonomy order.
func All() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Parse converts user input into a Kind. Matching is case-insensitive and
// accepts "asset_version" as an alias.
func Parse(value string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	k := Kind(normalized)
	if _, ok := kindSet[k]; !ok {
		return None, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindSet[k]
	return ok
}

func (k Kind) String() string {
	if k == None {
		return "none"
	}
	return string(k)
}

// IsContext reports whether k is one of the container kinds that may appear
// between a group and a task.
func (k Kind) IsContext() bool {
	switch k {
	case Directory, Build, Sequence, Shot:
		return true
	default:
		return false
	}
}

// Addressable reports whether entities of kind k have an ign: address.
// Scenes live under a task's scenes container and are reached by path only.
func (k Kind) Addressable() bool {
	switch k {
	case Project, Group, Directory, Build, Sequence, Shot, Task, Asset, AssetVersion:
		return true
	case Scene:
		return false
	default:
		return false
	}
}
