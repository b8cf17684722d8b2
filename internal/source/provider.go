package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrNotFound is returned by providers for sources that do not exist.
var ErrNotFound = errors.New("source not found")

// Contents is a snapshot of a source's text.
type Contents struct {
	Text  []byte
	Stamp int64 // modification stamp; changes whenever Text may have changed
}

// Provider supplies source text. The engine never touches the filesystem
// directly.
type Provider interface {
	Contents(ctx context.Context, src Source) (Contents, error)
	Exists(src Source) bool
}

// Disk reads sources from the local filesystem.
type Disk struct{}

func (Disk) Contents(ctx context.Context, src Source) (Contents, error) {
	if err := ctx.Err(); err != nil {
		return Contents{}, err
	}
	if src.IsExternal() {
		return Contents{}, fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	p := src.Path()
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Contents{}, fmt.Errorf("%s: %w", src, ErrNotFound)
		}
		return Contents{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return Contents{}, err
	}
	return Contents{Text: Normalize(data), Stamp: info.ModTime().UnixNano()}, nil
}

func (Disk) Exists(src Source) bool {
	if src.IsExternal() {
		return false
	}
	info, err := os.Stat(src.Path())
	return err == nil && !info.IsDir()
}

// Memory is an in-memory provider, mostly for tests and stdin.
type Memory struct {
	mu    sync.RWMutex
	files map[Source]Contents
	clock int64
}

func NewMemory() *Memory {
	return &Memory{files: make(map[Source]Contents)}
}

// Set stores text for src under a fresh stamp.
func (m *Memory) Set(src Source, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock++
	m.files[src] = Contents{Text: Normalize([]byte(text)), Stamp: m.clock}
}

// Remove deletes src; later reads report ErrNotFound.
func (m *Memory) Remove(src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, src)
}

func (m *Memory) Contents(ctx context.Context, src Source) (Contents, error) {
	if err := ctx.Err(); err != nil {
		return Contents{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.files[src]
	if !ok {
		return Contents{}, fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	return c, nil
}

func (m *Memory) Exists(src Source) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[src]
	return ok
}

// Overlay serves editor buffers on top of a base provider.
type Overlay struct {
	base    Provider
	mu      sync.RWMutex
	buffers map[Source]Contents
}

func NewOverlay(base Provider) *Overlay {
	return &Overlay{base: base, buffers: make(map[Source]Contents)}
}

// Update replaces the buffer for src. version is the editor's document
// version and becomes the stamp.
func (o *Overlay) Update(src Source, text string, version int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buffers[src] = Contents{Text: Normalize([]byte(text)), Stamp: version}
}

// Close drops the buffer so reads fall through to the base provider.
func (o *Overlay) Close(src Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.buffers, src)
}

// Buffer returns the overlay text for src, if any.
func (o *Overlay) Buffer(src Source) ([]byte, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.buffers[src]
	return c.Text, ok
}

func (o *Overlay) Contents(ctx context.Context, src Source) (Contents, error) {
	o.mu.RLock()
	c, ok := o.buffers[src]
	o.mu.RUnlock()
	if ok {
		return c, nil
	}
	return o.base.Contents(ctx, src)
}

func (o *Overlay) Exists(src Source) bool {
	o.mu.RLock()
	_, ok := o.buffers[src]
	o.mu.RUnlock()
	return ok || o.base.Exists(src)
}

// Stamper is implemented by providers that can report a modification stamp
// without reading the content.
type Stamper interface {
	Stamp(src Source) (int64, error)
}

// StampOf returns the current stamp of src, reading the content only when p
// cannot report stamps directly.
func StampOf(ctx context.Context, p Provider, src Source) (int64, error) {
	if s, ok := p.(Stamper); ok {
		return s.Stamp(src)
	}
	c, err := p.Contents(ctx, src)
	if err != nil {
		return 0, err
	}
	return c.Stamp, nil
}

func (Disk) Stamp(src Source) (int64, error) {
	if src.IsExternal() {
		return 0, fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	info, err := os.Stat(src.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%s: %w", src, ErrNotFound)
		}
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}

func (m *Memory) Stamp(src Source) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.files[src]
	if !ok {
		return 0, fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	return c.Stamp, nil
}

func (o *Overlay) Stamp(src Source) (int64, error) {
	o.mu.RLock()
	c, ok := o.buffers[src]
	o.mu.RUnlock()
	if ok {
		return c.Stamp, nil
	}
	return StampOf(context.Background(), o.base, src)
}
