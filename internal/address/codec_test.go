package address

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ignite/internal/kind"
)

func mark(t *testing.T, tax *kind.Taxonomy, dir string, k kind.Kind) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, tax.Marker(k)), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCodecRoundTrip(t *testing.T) {
	tax := kind.Default()
	root := t.TempDir()
	codec, err := NewCodec(root, tax)
	if err != nil {
		t.Fatal(err)
	}

	paths := []string{
		mark(t, tax, filepath.Join(root, "proj"), kind.Project),
		mark(t, tax, filepath.Join(root, "proj", "shots"), kind.Group),
		mark(t, tax, filepath.Join(root, "proj", "shots", "sq010"), kind.Sequence),
		mark(t, tax, filepath.Join(root, "proj", "shots", "sq010", "sh020"), kind.Shot),
		mark(t, tax, filepath.Join(root, "proj", "shots", "sq010", "sh020", "lighting"), kind.Task),
		mark(t, tax, filepath.Join(root, "proj", "shots", "sq010", "sh020", "lighting", "exports", "beauty"), kind.Asset),
		mark(t, tax, filepath.Join(root, "proj", "shots", "sq010", "sh020", "lighting", "exports", "beauty", "v001"), kind.AssetVersion),
		mark(t, tax, filepath.Join(root, "proj", "assets", "modeling"), kind.Task),
		mark(t, tax, filepath.Join(root, "proj", "assets", "modeling", "exports", "rock"), kind.Asset),
		mark(t, tax, filepath.Join(root, "proj", "build"), kind.Build),
	}
	// Version directory without its own marker is still addressable.
	bare := filepath.Join(root, "proj", "assets", "modeling", "exports", "rock", "v002")
	if err := os.MkdirAll(bare, 0o755); err != nil {
		t.Fatal(err)
	}
	paths = append(paths, bare)

	for _, p := range paths {
		a, err := codec.Encode(p)
		if err != nil {
			t.Fatalf("Encode(%s): %v", p, err)
		}
		reparsed, err := Parse(a.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", a, err)
		}
		got, err := codec.Decode(reparsed)
		if err != nil {
			t.Fatalf("Decode(%s): %v", a, err)
		}
		if got != p {
			t.Fatalf("round trip mismatch: %s -> %s -> %s", p, a, got)
		}
	}
}

func TestCodecEncodeTaskWithoutContext(t *testing.T) {
	tax := kind.Default()
	root := t.TempDir()
	codec, _ := NewCodec(root, tax)
	task := mark(t, tax, filepath.Join(root, "proj", "assets", "modeling"), kind.Task)

	a, err := codec.Encode(task)
	if err != nil {
		t.Fatal(err)
	}
	if a.String() != "ign:proj:assets::modeling" {
		t.Fatalf("unexpected address %s", a)
	}
}

func TestCodecEncodeErrors(t *testing.T) {
	tax := kind.Default()
	root := t.TempDir()
	codec, _ := NewCodec(root, tax)

	outside := t.TempDir()
	if _, err := codec.Encode(outside); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("expected ErrOutsideRoot, got %v", err)
	}
	if _, err := codec.Encode(root); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("root itself should be outside, got %v", err)
	}
	if _, err := codec.Encode(filepath.Join(root, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	plain := filepath.Join(root, "proj", "scratch")
	if err := os.MkdirAll(plain, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := codec.Encode(plain); !errors.Is(err, ErrNotAddressable) {
		t.Fatalf("expected ErrNotAddressable for unmarked dir, got %v", err)
	}

	scene := mark(t, tax, filepath.Join(root, "proj", "shots", "sh010", "anim", "scenes", "v001"), kind.Scene)
	if _, err := codec.Encode(scene); !errors.Is(err, ErrNotAddressable) {
		t.Fatalf("expected scenes to be unaddressable, got %v", err)
	}
}

func TestCodecDecode(t *testing.T) {
	codec, _ := NewCodec("/mnt/projects", nil)
	got, err := codec.DecodeString("ign:proj:shots:sq010/sh020:comp:plate@v004")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/mnt/projects", "proj", "shots", "sq010", "sh020", "comp", "exports", "plate", "v004")
	if got != want {
		t.Fatalf("Decode = %s, want %s", got, want)
	}
	if _, err := codec.DecodeString("ign:proj:shots:sq010:comp:plate@latest"); !errors.Is(err, ErrAliasUnresolved) {
		t.Fatalf("expected ErrAliasUnresolved, got %v", err)
	}
}
