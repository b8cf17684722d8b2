// Package diag defines the diagnostic model shared by the scanner, parser,
// resolver and the analysis engine.
//
// A Diagnostic records one finding in one source: severity, a stable numeric
// Code, a message, and the byte span of the offending text. Producers emit
// through a Reporter so that storage (a Bag, the engine's ErrorListener, a
// dedup filter) stays decoupled from the phase that found the problem.
//
// Codes are grouped by phase:
//
//   - 1000-1999 lexical (LEX)
//   - 2000-2999 syntactic (SYN)
//   - 3000-3999 semantic (SEM)
//   - 4000-4999 I/O (IO), reported when content is unavailable
//
// Only lexical, syntactic and semantic codes are compilation errors; see
// Code.IsCompilation.
//
// Package diag does no formatting or IO; rendering lives in internal/report.
package diag
