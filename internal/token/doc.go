// Package token defines the lexical tokens of the Dart subset and the token
// arena produced by the scanner.
// Invariants:
//   - A Stream is one contiguous slice; neighbours are found by index
//     arithmetic, never by pointers.
//   - The last token of every Stream is EOF, so Next never runs off the end.
//   - Token.Span covers the token text exactly; Text is the source slice.
//   - Comments and whitespace never appear in the stream.
package token
