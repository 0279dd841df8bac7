package discovery

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ignite/internal/kind"
	"ignite/internal/logging"
)

// ErrPartial marks a non-fatal subtree failure during discovery.
var ErrPartial = errors.New("partial discovery")

// State describes how the walk treated a directory.
type State int

const (
	Pruned State = iota
	Labeled
	PassThrough
)

func (s State) String() string {
	switch s {
	case Labeled:
		return "labeled"
	case PassThrough:
		return "pass-through"
	default:
		return "pruned"
	}
}

// Hit is one directory matching the walk target.
type Hit struct {
	Path string
	Kind kind.Kind
	// Files lists the immediate regular file names, sorted.
	Files []string
}

// Options narrows a walk.
type Options struct {
	// Target is the kind to collect.
	Target kind.Kind
	// Match optionally filters hits of the target kind.
	Match func(Hit) bool
}

// Walker runs discovery walks against one taxonomy.
type Walker struct {
	tax    *kind.Taxonomy
	logger *slog.Logger
}

// NewWalker returns a Walker. A nil logger discards output.
func NewWalker(tax *kind.Taxonomy, logger *slog.Logger) *Walker {
	if tax == nil {
		tax = kind.Default()
	}
	return &Walker{tax: tax, logger: logging.NewComponentLogger(logger, "discovery")}
}

// Taxonomy returns the walker's taxonomy.
func (w *Walker) Taxonomy() *kind.Taxonomy {
	return w.tax
}

type listing struct {
	files []string
	dirs  []string
}

func readListing(dir string) (listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return listing{}, err
	}
	var out listing
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			if kind.Skipped(name) || strings.HasPrefix(name, ".") {
				continue
			}
			out.dirs = append(out.dirs, name)
		case entry.Type().IsRegular():
			out.files = append(out.files, name)
		}
	}
	sort.Strings(out.files)
	sort.Strings(out.dirs)
	return out, nil
}

// State classifies a single directory the way the walk would see it as a
// child. It is exported for diagnostics and tests.
func (w *Walker) State(dir string) (State, kind.Kind, error) {
	l, err := readListing(dir)
	if err != nil {
		return Pruned, kind.None, err
	}
	return w.state(dir, l, false)
}

func (w *Walker) state(dir string, l listing, start bool) (State, kind.Kind, error) {
	k, err := w.tax.ClassifyEntries(dir, l.files)
	if err != nil {
		return Pruned, kind.None, err
	}
	switch {
	case k != kind.None:
		return Labeled, k, nil
	case start || kind.PassThrough(filepath.Base(dir)):
		return PassThrough, kind.None, nil
	default:
		return Pruned, kind.None, nil
	}
}

// Walk yields every directory at or below start whose kind equals
// opts.Target. The starting directory is always descended into even when
// unmarked. Errors are yielded alongside an empty Hit carrying the failing
// path; ErrPartial errors are warnings and the sequence continues, a
// context error ends it.
func (w *Walker) Walk(ctx context.Context, start string, opts Options) iter.Seq2[Hit, error] {
	return func(yield func(Hit, error) bool) {
		type frame struct {
			path  string
			start bool
		}
		stack := []frame{{path: filepath.Clean(start), start: true}}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				yield(Hit{Path: start}, err)
				return
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			l, err := readListing(top.path)
			if err != nil {
				if top.start {
					yield(Hit{Path: top.path}, err)
					return
				}
				w.logger.Warn("discovery subtree unreadable",
					logging.String(logging.FieldEntityPath, top.path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "discovery_partial"),
					logging.String(logging.FieldImpact, "subtree omitted from results"),
				)
				if !yield(Hit{Path: top.path}, fmt.Errorf("%w: %s: %w", ErrPartial, top.path, err)) {
					return
				}
				continue
			}

			state, k, err := w.state(top.path, l, top.start)
			if err != nil {
				if !yield(Hit{Path: top.path}, fmt.Errorf("%w: %w", ErrPartial, err)) {
					return
				}
				continue
			}
			if state == Pruned {
				continue
			}

			if state == Labeled && k == opts.Target {
				hit := Hit{Path: top.path, Kind: k, Files: l.files}
				if opts.Match == nil || opts.Match(hit) {
					if !yield(hit, nil) {
						return
					}
				}
			}

			for i := len(l.dirs) - 1; i >= 0; i-- {
				stack = append(stack, frame{path: filepath.Join(top.path, l.dirs[i])})
			}
		}
	}
}

// Result gathers a finished walk.
type Result struct {
	Hits     []Hit
	Warnings []error
}

// Collect drains seq. Warnings are accumulated; any non-partial error stops
// collection and is returned.
func Collect(seq iter.Seq2[Hit, error]) (Result, error) {
	var res Result
	for hit, err := range seq {
		if err != nil {
			if errors.Is(err, ErrPartial) {
				res.Warnings = append(res.Warnings, err)
				continue
			}
			return res, err
		}
		res.Hits = append(res.Hits, hit)
	}
	return res, nil
}
