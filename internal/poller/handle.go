package poller

import (
	"context"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a polling handle.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition can leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Handle is the caller's grip on one running polling loop.
//
// Callbacks run under a dispatch lock and only while the handle can still
// move out of StatePolling. Cancel changes the state first and then waits for
// the dispatch lock, so a dispatch that has not yet reached the user callback
// sees the cancellation and drops it. Cancel called from inside a callback
// does not wait.
type Handle struct {
	jobID      string
	state      atomic.Int32
	cancel     context.CancelFunc
	done       chan struct{}
	mu         sync.Mutex  // held for a whole dispatch
	inCallback atomic.Bool // set only around the user callback
}

func newHandle(jobID string, cancel context.CancelFunc) *Handle {
	h := &Handle{
		jobID:  jobID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.state.Store(int32(StatePolling))
	return h
}

// JobID returns the id of the job being polled.
func (h *Handle) JobID() string { return h.jobID }

// State returns the current state.
func (h *Handle) State() State { return State(h.state.Load()) }

// Cancel stops polling. It is idempotent and safe to call from inside a callback.
// An in-flight status query is aborted and its response discarded.
func (h *Handle) Cancel() {
	h.transition(StateCancelled)
	h.cancel()
	if !h.inCallback.Load() {
		// Wait out a dispatch that has not reached the user callback.
		h.mu.Lock()
		h.mu.Unlock()
	}
}

// Done is closed once the polling goroutine has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the polling goroutine has exited and returns the final state.
func (h *Handle) Wait() State {
	<-h.done
	return h.State()
}

// transition moves the handle from POLLING to a terminal state. It returns
// false when the handle already left POLLING; the caller must then not emit.
func (h *Handle) transition(to State) bool {
	return h.state.CompareAndSwap(int32(StatePolling), int32(to))
}

func (h *Handle) polling() bool {
	return h.State() == StatePolling
}

// emit dispatches one outcome under the dispatch lock. With to == StatePolling
// it runs only if the handle is still polling; otherwise the handle must first
// move from POLLING to the terminal state to. record does the bookkeeping and
// runs before fn, the user callback. An update whose handle was cancelled
// during record is dropped. It reports whether fn ran.
func (h *Handle) emit(to State, record func(), fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if to == StatePolling {
		if !h.polling() {
			return false
		}
	} else if !h.transition(to) {
		return false
	}

	record()
	if to == StatePolling && !h.polling() {
		return false
	}
	if fn == nil {
		return true
	}

	h.inCallback.Store(true)
	defer h.inCallback.Store(false)
	fn()
	return true
}
