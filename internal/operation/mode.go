package operation

import (
	"time"

	"github.com/roach88/ledgerd/internal/model"
)

// DefaultPollInterval is advertised to callers of pending operations when no
// interval is configured.
const DefaultPollInterval = time.Second

// Mode selects how the executor surfaces results. It is resolved once at
// construction: SyncMode or AsyncMode.
type Mode interface {
	isMode()
}

// SyncMode runs the business call inline and returns a completed result.
type SyncMode struct{}

// AsyncMode stores the operation, returns a pending result immediately and
// runs the business call on a worker pool.
type AsyncMode struct {
	// Strategy tells callers to poll or to wait for a callback.
	Strategy model.ResponseStrategy

	// Workers is the size of the worker pool. Values below 1 mean 1.
	Workers int

	// Sink receives terminal results when Strategy.Kind is callback.
	Sink CallbackSink
}

func (SyncMode) isMode()  {}
func (AsyncMode) isMode() {}

// pendingStrategy is the response metadata attached to unfinished results.
func pendingStrategy(m Mode) *model.ResponseStrategy {
	if am, ok := m.(AsyncMode); ok && am.Strategy.Kind != "" {
		s := am.Strategy
		if s.Kind == model.ResponsePoll && s.PollIntervalMs == 0 {
			s.PollIntervalMs = DefaultPollInterval.Milliseconds()
		}
		return &s
	}
	return &model.ResponseStrategy{
		Kind:           model.ResponsePoll,
		PollIntervalMs: DefaultPollInterval.Milliseconds(),
	}
}

// callbackSink returns the sink completions are pushed to, or nil.
func callbackSink(m Mode) CallbackSink {
	if am, ok := m.(AsyncMode); ok && am.Strategy.Kind == model.ResponseCallback {
		return am.Sink
	}
	return nil
}

func workerCount(m Mode) int {
	am, ok := m.(AsyncMode)
	if !ok {
		return 0
	}
	if am.Workers < 1 {
		return 1
	}
	return am.Workers
}
