package token

import (
	"fmt"

	"github.com/MarkBennett/dart-sub004/internal/source"

	"fortio.org/safecast"
)

// Token is a single lexical token.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// Index addresses a token inside a Stream.
type Index uint32

// NoIndex is the "no token" marker.
const NoIndex Index = ^Index(0)

// Stream is the token arena for one source.
type Stream struct {
	tokens []Token
}

// NewStream wraps toks, appending an EOF token at end if missing.
func NewStream(toks []Token, end uint32) *Stream {
	if len(toks) == 0 || toks[len(toks)-1].Kind != EOF {
		toks = append(toks, Token{Kind: EOF, Span: source.Span{Start: end, End: end}})
	}
	if _, err := safecast.Conv[uint32](len(toks)); err != nil {
		panic(fmt.Errorf("token stream overflow: %w", err))
	}
	return &Stream{tokens: toks}
}

// Len returns the number of tokens including EOF.
func (s *Stream) Len() int { return len(s.tokens) }

// At returns the token at i. Out-of-range indices yield the EOF token.
func (s *Stream) At(i Index) Token {
	if int(i) >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[i]
}

// Next returns the index after i, saturating at EOF.
func (s *Stream) Next(i Index) Index {
	last := Index(len(s.tokens) - 1)
	if i >= last {
		return last
	}
	return i + 1
}

// Prev returns the index before i, or NoIndex at the start.
func (s *Stream) Prev(i Index) Index {
	if i == 0 || i == NoIndex {
		return NoIndex
	}
	if int(i) > len(s.tokens) {
		return Index(len(s.tokens) - 1)
	}
	return i - 1
}

// Last returns the index of the EOF token.
func (s *Stream) Last() Index { return Index(len(s.tokens) - 1) }

// Tokens exposes the arena for read-only iteration.
func (s *Stream) Tokens() []Token { return s.tokens }

// Find returns the index of the token covering offset, or NoIndex.
func (s *Stream) Find(offset uint32) Index {
	lo, hi := 0, len(s.tokens)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		sp := s.tokens[mid].Span
		switch {
		case offset < sp.Start:
			hi = mid - 1
		case offset >= sp.End && !(sp.Empty() && offset == sp.Start):
			lo = mid + 1
		default:
			return Index(mid)
		}
	}
	return NoIndex
}
