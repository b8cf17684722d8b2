// Package task defines the units of analysis work and the queue that
// orders and coalesces them.
package task

import (
	"context"
	"fmt"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Kind is the closed set of task variants.
type Kind uint8

const (
	KindScan Kind = iota + 1
	KindAnalyzeLibrary
	KindFileChanged
	KindDiscard
	KindEverythingChanged
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "scan"
	case KindAnalyzeLibrary:
		return "analyze"
	case KindFileChanged:
		return "file-changed"
	case KindDiscard:
		return "discard"
	case KindEverythingChanged:
		return "everything-changed"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Kinds lists every variant, for metrics and reports.
var Kinds = [...]Kind{KindScan, KindAnalyzeLibrary, KindFileChanged, KindDiscard, KindEverythingChanged}

// Task is one queued unit of work. Tasks are values and do not change once
// queued.
type Task struct {
	Kind Kind
	// Source is the file (scan, file-changed) or library root (analyze,
	// discard) the task targets. Zero for everything-changed.
	Source source.Source
	// Members is the member set of a discarded library, captured when the
	// discard was requested.
	Members []source.Source
	// Priority promotes the task ahead of non-priority work.
	Priority bool
	// Ctx cancels the task. Follow-up tasks inherit it.
	Ctx context.Context
}

func Scan(ctx context.Context, src source.Source) Task {
	return Task{Kind: KindScan, Source: src, Ctx: ctx}
}

func AnalyzeLibrary(ctx context.Context, lib source.Source) Task {
	return Task{Kind: KindAnalyzeLibrary, Source: lib, Ctx: ctx}
}

func FileChanged(ctx context.Context, src source.Source) Task {
	return Task{Kind: KindFileChanged, Source: src, Ctx: ctx}
}

func Discard(ctx context.Context, lib source.Source, members []source.Source) Task {
	return Task{Kind: KindDiscard, Source: lib, Members: members, Ctx: ctx}
}

func EverythingChanged(ctx context.Context) Task {
	return Task{Kind: KindEverythingChanged, Ctx: ctx, Priority: true}
}

// WithPriority returns a copy of t with the priority flag set.
func (t Task) WithPriority(p bool) Task {
	t.Priority = p
	return t
}

// FollowUp derives a task that inherits t's context and priority.
func (t Task) FollowUp(next Task) Task {
	next.Ctx = t.Ctx
	next.Priority = next.Priority || t.Priority
	return next
}

// Context returns the task's context, never nil.
func (t Task) Context() context.Context {
	if t.Ctx == nil {
		return context.Background()
	}
	return t.Ctx
}

// IsPriority reports whether the task runs ahead of normal work.
// Everything-changed is always priority.
func (t Task) IsPriority() bool {
	return t.Kind == KindEverythingChanged || t.Priority
}

// CanRemove reports whether a queued t becomes pointless once a library
// with the given members is discarded.
func (t Task) CanRemove(members []source.Source) bool {
	switch t.Kind {
	case KindScan, KindAnalyzeLibrary, KindFileChanged:
		for _, m := range members {
			if m == t.Source {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Supersedes reports whether queuing newer makes the already queued older
// redundant.
func Supersedes(newer, older Task) bool {
	switch newer.Kind {
	case KindEverythingChanged:
		// отбрасывание библиотеки нельзя терять
		return older.Kind != KindDiscard
	case KindDiscard:
		return older.CanRemove(newer.Members)
	case KindFileChanged:
		switch older.Kind {
		case KindScan, KindAnalyzeLibrary, KindFileChanged:
			return older.Source == newer.Source
		}
	}
	return false
}

// duplicates reports two scan or analyze tasks for the same target.
func duplicates(a, b Task) bool {
	if a.Kind != b.Kind || a.Source != b.Source {
		return false
	}
	return a.Kind == KindScan || a.Kind == KindAnalyzeLibrary
}

func (t Task) String() string {
	prio := ""
	if t.IsPriority() {
		prio = "!"
	}
	if t.Source.IsZero() {
		return t.Kind.String() + prio
	}
	return fmt.Sprintf("%s%s(%s)", t.Kind, prio, t.Source)
}
