package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ignite/internal/address"
	"ignite/internal/components"
	"ignite/internal/config"
	"ignite/internal/discovery"
	"ignite/internal/journal"
	"ignite/internal/kind"
	"ignite/internal/logging"
	"ignite/internal/marker"
)

// Journal receives one entry per successful mutation.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) error
}

// Store is an immutable handle over one project root.
type Store struct {
	root     string
	settings config.Store
	tax      *kind.Taxonomy
	codec    *address.Codec
	walker   *discovery.Walker
	writer   *marker.Writer
	clock    marker.Clock
	journal  Journal
	logger   *slog.Logger
	assembly components.Options
}

// Option customizes a Store.
type Option func(*Store)

// WithJournal records mutations in j.
func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

// WithClock overrides the timestamp source used for marker stamps.
func WithClock(clock marker.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// New builds a Store from cfg. The root must exist.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("store: nil config")
	}
	tax, err := cfg.Taxonomy()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	codec, err := address.NewCodec(cfg.Paths.Root, tax)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	info, err := os.Stat(codec.Root())
	if err != nil {
		return nil, fmt.Errorf("store: root %s: %w", codec.Root(), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store: root %s is not a directory", codec.Root())
	}

	settings := cfg.Store
	if settings.VersionPadding < 1 {
		settings.VersionPadding = 1
	}
	if settings.ReprMaxHops < 1 {
		settings.ReprMaxHops = 32
	}
	if settings.TagWeights == nil {
		settings.TagWeights = config.DefaultTagWeights()
	}

	s := &Store{
		root:     codec.Root(),
		settings: settings,
		tax:      tax,
		codec:    codec,
		logger:   logging.NewComponentLogger(logger, "store"),
		assembly: components.Options{TempInfix: settings.TempInfix},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.walker = discovery.NewWalker(tax, logger)
	s.writer = marker.NewWriter(s.clock)
	return s, nil
}

// Root returns the absolute project root.
func (s *Store) Root() string { return s.root }

// Taxonomy returns the kind/marker table in use.
func (s *Store) Taxonomy() *kind.Taxonomy { return s.tax }

// Codec returns the address codec in use.
func (s *Store) Codec() *address.Codec { return s.codec }

// markerPath returns where the marker for k lives inside dir.
func (s *Store) markerPath(dir string, k kind.Kind) string {
	return filepath.Join(dir, s.tax.Marker(k))
}

// absUnderRoot cleans path and requires it to lie strictly below the root.
func (s *Store) absUnderRoot(path string) (string, error) {
	parts, err := s.codec.Relative(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{s.root}, parts...)...), nil
}

// listFiles returns the sorted regular file names directly inside dir.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// classify determines the kind of dir. Unmarked v<N> directories directly
// inside an Asset are reported as AssetVersion.
func (s *Store) classify(dir string) (kind.Kind, []string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return kind.None, nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return kind.None, nil, err
	}
	if !info.IsDir() {
		return kind.None, nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}
	files, err := listFiles(dir)
	if err != nil {
		return kind.None, nil, err
	}
	k, err := s.tax.ClassifyEntries(dir, files)
	if err != nil {
		return kind.None, nil, err
	}
	if k == kind.None && s.isVersionDir(dir) {
		k = kind.AssetVersion
	}
	return k, files, nil
}

func (s *Store) isVersionDir(dir string) bool {
	if _, ok := address.ParseVersion(filepath.Base(dir)); !ok {
		return false
	}
	parent, err := s.tax.Classify(filepath.Dir(dir))
	return err == nil && parent == kind.Asset
}

// readDocument loads the marker for k in dir. Missing or corrupt markers
// degrade to an empty document with a warning.
func (s *Store) readDocument(dir string, k kind.Kind, files []string) marker.Document {
	name := s.tax.Marker(k)
	present := false
	for _, f := range files {
		if f == name {
			present = true
			break
		}
	}
	if !present {
		return marker.Document{}
	}
	doc, err := marker.Read(filepath.Join(dir, name))
	if err != nil {
		logging.WarnWithContext(s.logger, "marker unreadable; using empty metadata", "marker_unreadable",
			logging.String(logging.FieldEntityPath, dir),
			logging.String(logging.FieldEntityKind, k.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or rewrite the marker file with 'ignite update'"),
			logging.String(logging.FieldImpact, "tags, attributes and repr are ignored for this entity"),
		)
		return marker.Document{}
	}
	return doc
}

// load builds the entity for an already classified directory.
func (s *Store) load(dir string, k kind.Kind, files []string) Entity {
	doc := s.readDocument(dir, k, files)
	e := Entity{Kind: k, Path: dir, Name: filepath.Base(dir)}
	e.applyDocument(doc)
	if e.Attributes == nil {
		e.Attributes = map[string]string{}
	}

	switch k {
	case kind.Project, kind.Group, kind.Directory, kind.Build, kind.Sequence, kind.Shot:
		s.fillAddress(&e)
	case kind.Task:
		s.fillAddress(&e)
		e.TaskType = doc.String(marker.KeyTaskType)
	case kind.Asset:
		s.fillAddress(&e)
		versions := s.versionEntities(dir)
		if latest, ok := latestOf(versions); ok {
			e.Latest = latest.Version
		}
		if best, ok := s.bestOf(versions); ok {
			e.Best = best.Version
		}
	case kind.AssetVersion:
		s.fillAddress(&e)
		e.Version = e.Name
		e.VersionNumber, _ = address.ParseVersion(e.Name)
		e.Asset = filepath.Base(filepath.Dir(dir))
		e.Name = e.Asset
		e.Components = s.assemble(dir, files)
	case kind.Scene:
		s.fillSceneAddress(&e)
		if n, ok := address.ParseVersion(e.Name); ok {
			e.Version = e.Name
			e.VersionNumber = n
		}
		e.SceneFile = sceneFile(files, s.tax)
		e.DCC = doc.String(marker.KeyDCC)
		if e.DCC == "" && e.SceneFile != "" {
			e.DCC = DCCForFile(e.SceneFile)
		}
	case kind.None:
	}
	return e
}

func (s *Store) assemble(dir string, files []string) []components.Component {
	names := make([]string, 0, len(files))
	for _, name := range files {
		if s.assembly.Exclude(name) || s.tax.IsMarker(name) {
			continue
		}
		names = append(names, name)
	}
	return components.Assemble(dir, names)
}

func (s *Store) fillAddress(e *Entity) {
	parts, err := s.codec.Relative(e.Path)
	if err != nil {
		return
	}
	a, err := address.EncodeParts(parts, e.Kind)
	if err != nil {
		s.logger.Debug("entity has no address form",
			logging.String(logging.FieldEntityPath, e.Path),
			logging.Error(err),
		)
		return
	}
	e.applyAddress(a)
}

// fillSceneAddress borrows the owning task's address fields. Scenes have no
// address of their own.
func (s *Store) fillSceneAddress(e *Entity) {
	parts, err := s.codec.Relative(e.Path)
	if err != nil {
		return
	}
	idx := -1
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == kind.ScenesDir {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	a, err := address.EncodeParts(parts[:idx], kind.Task)
	if err != nil {
		return
	}
	e.Project = a.Project
	e.Group = a.Group
	e.Context = a.Context
	e.Task = a.Task
}

// record appends a journal entry, logging rather than failing on error.
func (s *Store) record(ctx context.Context, op string, e Entity, detail map[string]any) {
	s.logger.Info("entity "+op,
		logging.String(logging.FieldOperation, op),
		logging.String(logging.FieldEntityPath, e.Path),
		logging.String(logging.FieldEntityKind, e.Kind.String()),
		logging.String(logging.FieldURI, e.URI),
	)
	if s.journal == nil {
		return
	}
	err := s.journal.Append(ctx, journal.Entry{
		Op:     op,
		Path:   e.Path,
		URI:    e.URI,
		Kind:   e.Kind.String(),
		Detail: detail,
	})
	if err != nil {
		logging.WarnWithContext(s.logger, "journal append failed", "journal_append_failed",
			logging.String(logging.FieldOperation, op),
			logging.String(logging.FieldEntityPath, e.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "mutation applied but missing from history"),
		)
	}
}

// validName checks a single directory name used by rename and copy.
func validName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "" || trimmed != name:
		return fmt.Errorf("%w: name %q is empty or padded", ErrInvalidArgument, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: name %q", ErrInvalidArgument, name)
	case strings.ContainsAny(name, `/\:@`):
		return fmt.Errorf("%w: name %q contains a reserved character", ErrInvalidArgument, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: name %q is hidden", ErrInvalidArgument, name)
	case kind.PassThrough(name) || kind.Skipped(name):
		return fmt.Errorf("%w: name %q is reserved", ErrInvalidArgument, name)
	}
	return nil
}
