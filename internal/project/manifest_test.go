package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[engine]\nmax_errors = 7\n")
	nested := filepath.Join(root, "lib", "src")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if m.Config.Engine.MaxErrors != 7 {
		t.Fatalf("max_errors not decoded: %d", m.Config.Engine.MaxErrors)
	}
	if m.Config.Engine.DebounceMS != 100 {
		t.Fatalf("absent keys must keep defaults, got %d", m.Config.Engine.DebounceMS)
	}
	if m.Config.Workspace.Root != root {
		t.Fatalf("root = %q, want %q", m.Config.Workspace.Root, root)
	}
}

func TestLoadManifestRejectsUnknownKeys(t *testing.T) {
	p := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, p, "[engine]\nmax_errrors = 1\n")
	if _, err := LoadManifest(p); !errors.Is(err, ErrBadManifest) {
		t.Fatalf("expected ErrBadManifest, got %v", err)
	}
}

func TestLoadManifestRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ManifestName)
	writeFile(t, p, "[workspace]\nroot = \"app\"\n")
	m, err := LoadManifest(p)
	if err != nil {
		t.Fatal(err)
	}
	if m.Config.Workspace.Root != filepath.Join(dir, "app") {
		t.Fatalf("root = %q", m.Config.Workspace.Root)
	}
}

func TestWorkspaceSources(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"lib/a.dart", "lib/src/b.dart", "build/gen.dart", ".hidden/x.dart", "README.md"} {
		writeFile(t, filepath.Join(root, rel), "")
	}
	cfg := DefaultConfig().Workspace
	cfg.Root = root
	got, err := cfg.Sources()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "lib/a.dart"), filepath.Join(root, "lib/src/b.dart")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pat, rel string
		want     bool
	}{
		{"**/*.dart", "a.dart", true},
		{"**/*.dart", "lib/src/a.dart", true},
		{"build/**", "build/", true},
		{"build/**", "lib/build.dart", false},
		{"lib/*.dart", "lib/a.dart", true},
		{"lib/*.dart", "lib/src/a.dart", false},
	}
	for _, tc := range cases {
		if got := matchGlob(tc.pat, tc.rel); got != tc.want {
			t.Fatalf("matchGlob(%q, %q) = %v", tc.pat, tc.rel, got)
		}
	}
}

func TestDigestOf(t *testing.T) {
	a, b := DigestOf([]byte("a")), DigestOf([]byte("b"))
	if a == b {
		t.Fatalf("distinct content must hash differently")
	}
	if DigestOf([]byte("a")) != a {
		t.Fatalf("digest not deterministic")
	}
}
