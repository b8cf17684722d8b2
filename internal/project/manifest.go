package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the decoded analysis.toml plus where it was found.
type Manifest struct {
	Path   string `toml:"-"`
	Config Config `toml:"-"`
}

type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Engine    EngineConfig    `toml:"engine"`
	Trace     TraceConfig     `toml:"trace"`
}

type WorkspaceConfig struct {
	Root      string   `toml:"root"`
	Include   []string `toml:"include"`
	Exclude   []string `toml:"exclude"`
	Extension string   `toml:"extension"`
}

type EngineConfig struct {
	MaxErrors     int `toml:"max_errors"`
	CacheCapacity int `toml:"cache_capacity"`
	DebounceMS    int `toml:"debounce_ms"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

// ErrBadManifest wraps every validation failure of analysis.toml.
var ErrBadManifest = errors.New("invalid manifest")

// DefaultConfig is used when no manifest exists.
func DefaultConfig() Config {
	return Config{
		Workspace: WorkspaceConfig{
			Include:   []string{"**/*.dart"},
			Exclude:   []string{".dart_tool/**", "build/**"},
			Extension: ".dart",
		},
		Engine: EngineConfig{MaxErrors: 100, DebounceMS: 100},
		Trace:  TraceConfig{Level: "off", Format: "auto", Mode: "stream", Output: "-"},
	}
}

// LoadManifest decodes path over DefaultConfig. Keys absent from the file
// keep their defaults; unknown keys are an error.
func LoadManifest(p string) (*Manifest, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(p, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", p, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: %w: unknown keys %s", p, ErrBadManifest, strings.Join(keys, ", "))
	}
	if meta.IsDefined("workspace", "extension") && !strings.HasPrefix(cfg.Workspace.Extension, ".") {
		return nil, fmt.Errorf("%s: %w: [workspace].extension must start with '.'", p, ErrBadManifest)
	}
	if cfg.Engine.MaxErrors < 0 || cfg.Engine.CacheCapacity < 0 || cfg.Engine.DebounceMS < 0 {
		return nil, fmt.Errorf("%s: %w: [engine] values must not be negative", p, ErrBadManifest)
	}
	dir := filepath.Dir(p)
	switch {
	case !meta.IsDefined("workspace", "root") || cfg.Workspace.Root == "":
		cfg.Workspace.Root = dir
	case !filepath.IsAbs(cfg.Workspace.Root):
		cfg.Workspace.Root = filepath.Join(dir, cfg.Workspace.Root)
	}
	return &Manifest{Path: p, Config: cfg}, nil
}

// Discover finds and loads the manifest above startDir. Without one, the
// defaults are returned rooted at startDir.
func Discover(startDir string) (*Manifest, error) {
	p, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if ok {
		return LoadManifest(p)
	}
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Workspace.Root = abs
	return &Manifest{Config: cfg}, nil
}

// Sources lists the workspace files matching include/exclude, sorted.
func (c WorkspaceConfig) Sources() ([]string, error) {
	var out []string
	err := filepath.WalkDir(c.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		rel, relErr := filepath.Rel(c.Root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && (strings.HasPrefix(d.Name(), ".") || c.excluded(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != c.Extension || c.excluded(rel) || !c.included(rel) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (c WorkspaceConfig) included(rel string) bool {
	if len(c.Include) == 0 {
		return true
	}
	for _, pat := range c.Include {
		if matchGlob(pat, rel) {
			return true
		}
	}
	return false
}

func (c WorkspaceConfig) excluded(rel string) bool {
	for _, pat := range c.Exclude {
		if matchGlob(pat, rel) {
			return true
		}
	}
	return false
}

// matchGlob supports path.Match patterns plus "**" for any number of
// directories.
func matchGlob(pattern, rel string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := path.Match(pattern, strings.TrimSuffix(rel, "/"))
		return ok
	}
	prefix, suffix, _ := strings.Cut(pattern, "**")
	if !strings.HasPrefix(rel, prefix) {
		return false
	}
	rest := strings.TrimPrefix(rel, prefix)
	suffix = strings.TrimPrefix(suffix, "/")
	if suffix == "" {
		return true
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	for i := range parts {
		if ok, _ := path.Match(suffix, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}
