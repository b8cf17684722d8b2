// Package trace records what the analysis engine is doing.
//
// Every task execution opens a span; library resolution and source scanning
// open nested spans at finer levels. Faults and cancellations are recorded as
// point events so a ring tracer can be dumped after the fact.
//
// # Levels
//
//   - LevelOff: nothing is recorded
//   - LevelError: only fault points
//   - LevelPhase: server lifecycle and task spans
//   - LevelDetail: library spans
//   - LevelDebug: per-source spans
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeTask, "scan", 0)
//	defer span.End("")
package trace
