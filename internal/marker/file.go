package marker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"ignite/internal/fileutil"
)

// ErrCorrupt wraps YAML decode failures.
var ErrCorrupt = errors.New("corrupt marker")

const (
	fileMode       = 0o644
	lockRetryDelay = 20 * time.Millisecond
)

// Clock returns the current time. Tests replace it for deterministic stamps.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

// Read decodes the marker at path. An empty file yields an empty document.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses marker content.
func Decode(data []byte) (Document, error) {
	doc := Document{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	// Decoding into the named type would make every nested mapping a
	// Document too; accessors expect plain maps.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for k, v := range raw {
		doc[k] = v
	}
	return doc, nil
}

// Encode renders a document as YAML. Map keys are emitted sorted.
func Encode(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := yaml.Marshal(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("encode marker: %w", err)
	}
	return data, nil
}

// LockPath returns the advisory lock sidecar used while rewriting the
// marker at path. The sidecar is always dot-prefixed.
func LockPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, ".") {
		base = "." + base
	}
	return filepath.Join(filepath.Dir(path), base+".lock")
}

// IsLockFile reports whether name is a marker lock sidecar.
func IsLockFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".lock")
}

// Writer creates and updates marker files.
type Writer struct {
	now Clock
}

// NewWriter returns a Writer. A nil clock uses UTC wall time.
func NewWriter(now Clock) *Writer {
	if now == nil {
		now = defaultClock
	}
	return &Writer{now: now}
}

// Create writes a new marker at path seeded with doc unless one already
// exists. It reports whether this call created the file.
func (w *Writer) Create(path string, doc Document) (bool, error) {
	stamp := w.now().Format(TimeFormat)
	seeded := doc.Clone()
	seeded[KeyCreatedAt] = stamp
	seeded[KeyModifiedAt] = stamp
	data, err := Encode(seeded)
	if err != nil {
		return false, err
	}
	return fileutil.CreateExclusive(path, data, fileMode)
}

// Update merges delta into the marker at path under an advisory lock and
// returns the stored result. The marker must exist. Unreadable content is
// replaced by the delta rather than blocking the update.
func (w *Writer) Update(ctx context.Context, path string, delta Document) (Document, error) {
	return w.Modify(ctx, path, func(current Document) (Document, error) {
		return current.Merge(delta), nil
	})
}

// Modify runs fn on the current document while holding the marker lock and
// writes back whatever fn returns. created_at is restored from the stored
// document and modified_at is refreshed.
func (w *Writer) Modify(ctx context.Context, path string, fn func(Document) (Document, error)) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	lock := flock.New(LockPath(path))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock marker: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock marker %s: not acquired", path)
	}
	defer func() { _ = lock.Unlock() }()

	current, err := Read(path)
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		current = Document{}
	}

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = Document{}
	}
	if created, ok := current[KeyCreatedAt]; ok {
		next[KeyCreatedAt] = created
	} else {
		delete(next, KeyCreatedAt)
	}
	next[KeyModifiedAt] = w.now().Format(TimeFormat)

	data, err := Encode(next)
	if err != nil {
		return nil, err
	}
	if err := fileutil.WriteAtomic(path, data, fileMode); err != nil {
		return nil, fmt.Errorf("write marker: %w", err)
	}
	return next, nil
}
