package cache

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// EntryInfo is the serializable summary of an entry.
type EntryInfo struct {
	Path          string `msgpack:"path" json:"path"`
	State         string `msgpack:"state" json:"state"`
	Stamp         int64  `msgpack:"stamp" json:"stamp"`
	Digest        string `msgpack:"digest,omitempty" json:"digest,omitempty"`
	Library       string `msgpack:"library,omitempty" json:"library,omitempty"`
	Missing       bool   `msgpack:"missing,omitempty" json:"missing,omitempty"`
	Failed        bool   `msgpack:"failed,omitempty" json:"failed,omitempty"`
	ParseErrors   int    `msgpack:"parse_errors" json:"parse_errors"`
	ResolveErrors int    `msgpack:"resolve_errors" json:"resolve_errors"`
}

// Snapshot summarizes every entry, ordered by path.
func (c *Cache) Snapshot() []EntryInfo {
	c.mu.RLock()
	out := make([]EntryInfo, 0, len(c.entries))
	for _, e := range c.entries {
		info := EntryInfo{
			Path:          e.Source.Path(),
			State:         e.State.String(),
			Stamp:         e.Stamp,
			Library:       e.Library.Path(),
			Missing:       e.Missing,
			Failed:        e.Failed,
			ParseErrors:   len(e.ParseErrors),
			ResolveErrors: len(e.ResolveErrors),
		}
		if e.State > Unknown {
			info.Digest = hex.EncodeToString(e.Digest[:8])
		}
		out = append(out, info)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Dump writes the snapshot as msgpack.
func (c *Cache) Dump(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(c.Snapshot()); err != nil {
		return fmt.Errorf("cache dump: %w", err)
	}
	return nil
}

// LoadDump reads a snapshot written by Dump.
func LoadDump(r io.Reader) ([]EntryInfo, error) {
	var out []EntryInfo
	if err := msgpack.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("cache dump: %w", err)
	}
	return out, nil
}
