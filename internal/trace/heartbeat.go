package trace

import (
	"sync"
	"time"
)

// Heartbeat periodically emits liveness events. When task spans stop closing
// but heartbeats keep coming, the worker is stuck inside a task body.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	status   func() string
	stopCh   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// StartHeartbeat starts emitting heartbeats every interval. status, if not
// nil, supplies the detail of each event (for example the queue depth).
// Returns nil when tracing is off or interval is not positive.
func StartHeartbeat(t Tracer, interval time.Duration, status func() string) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   t,
		interval: interval,
		status:   status,
		stopCh:   make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			detail := ""
			if h.status != nil {
				detail = h.status()
			}
			h.tracer.Emit(&Event{
				Time:   time.Now(),
				Kind:   KindHeartbeat,
				Scope:  ScopeServer,
				Name:   "heartbeat",
				Detail: detail,
			})
		case <-h.stopCh:
			return
		}
	}
}

// Stop halts the heartbeat goroutine and waits for it. Safe on nil.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stopCh) })
	h.wg.Wait()
}
