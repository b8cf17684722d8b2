package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindFault // recovered panic, task failure or cancellation
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindFault:
		return "fault"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeServer  Scope = iota + 1 // engine lifecycle
	ScopeTask                     // one task execution
	ScopeLibrary                  // library resolution
	ScopeSource                   // scanning/parsing one source
)

func (s Scope) String() string {
	switch s {
	case ScopeServer:
		return "server"
	case ScopeTask:
		return "task"
	case ScopeLibrary:
		return "library"
	case ScopeSource:
		return "source"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Engine   string // id of the engine instance that produced the event
	Name     string // "scan", "analyze-library", "lib:/ws/main.dart"
	Detail   string
	Extra    map[string]string
}
