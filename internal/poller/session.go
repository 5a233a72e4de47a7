package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hostsgen/internal/progress"
)

// OutcomeKind classifies how a session ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeJobFailure
	OutcomeStartFailure
	OutcomePollFailure
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeJobFailure:
		return "job_failure"
	case OutcomeStartFailure:
		return "start_failure"
	case OutcomePollFailure:
		return "poll_failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of a session.
type Outcome struct {
	Kind   OutcomeKind
	Reason string // message passed to Callbacks.Failure; empty on success
	Err    error  // underlying error for start/poll failures and cancellation
	Last   progress.Status
	Ticks  int
}

// Failed reports whether the outcome was surfaced through Callbacks.Failure.
func (o Outcome) Failed() bool {
	switch o.Kind {
	case OutcomeJobFailure, OutcomeStartFailure, OutcomePollFailure:
		return true
	}
	return false
}

// Session is one job run. It owns the poll ticker and releases it on its
// terminal transition.
type Session struct {
	poller *Poller
	ctx    context.Context
	cancel context.CancelFunc
	cb     Callbacks

	// dispatch is held across a status update and its Progress callback so
	// that finish cannot interleave with them.
	dispatch sync.Mutex

	mu      sync.Mutex
	active  bool
	ticker  *time.Ticker
	last    progress.Status
	ticks   int
	outcome Outcome

	done chan struct{}
}

// Active reports whether the session has not reached an outcome yet.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Polling reports whether the session currently holds a live ticker. It is
// false while the start call is still in flight: an active session is either
// starting or polling.
func (s *Session) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker != nil
}

// Last returns the most recently observed status.
func (s *Session) Last() progress.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Ticks returns the number of status polls applied so far.
func (s *Session) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Done is closed once the outcome has been dispatched and the controls are
// enabled again.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the terminal outcome once Done is closed.
func (s *Session) Outcome() (Outcome, bool) {
	select {
	case <-s.done:
	default:
		return Outcome{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, true
}

// Wait blocks until the session ends or ctx is done.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		o, _ := s.Outcome()
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Cancel stops the session without a success or failure callback.
// A Progress callback already running completes before Cancel returns; none
// start afterwards. Safe to call more than once and from any goroutine except
// from inside a callback.
func (s *Session) Cancel() {
	s.finish(Outcome{Kind: OutcomeCancelled, Reason: "cancelled", Err: context.Canceled})
}

func (s *Session) loop(tick <-chan time.Time, status StatusFunc) {
	logger := s.poller.logger
	failures := 0
	for {
		select {
		case <-s.ctx.Done():
			s.finish(Outcome{Kind: OutcomeCancelled, Reason: "cancelled", Err: s.ctx.Err()})
			return
		case <-tick:
		}

		st, err := status(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				s.finish(Outcome{Kind: OutcomeCancelled, Reason: "cancelled", Err: s.ctx.Err()})
				return
			}
			failures++
			if failures > s.poller.retries {
				s.finish(Outcome{
					Kind:   OutcomePollFailure,
					Reason: fmt.Sprintf("job status unavailable: %v", err),
					Err:    err,
				})
				return
			}
			logger.Warn().Err(err).Int("attempt", failures).Msg("status poll failed, retrying")
			continue
		}
		failures = 0

		if !s.dispatchProgress(st) {
			return
		}

		if st.Terminal() {
			if st.Succeeded() {
				s.finish(Outcome{Kind: OutcomeSuccess})
			} else {
				s.finish(Outcome{Kind: OutcomeJobFailure, Reason: st.Message})
			}
			return
		}
	}
}

// dispatchProgress records a polled status and reports it. It returns false,
// without calling back, once the session has ended.
func (s *Session) dispatchProgress(st progress.Status) bool {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	if !s.apply(st) {
		return false
	}
	s.cb.progress(st)
	return true
}

func (s *Session) apply(st progress.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.last = st
	s.ticks++
	return true
}

// finish performs the terminal transition exactly once. It waits for an
// in-flight Progress callback, so it must not be called from one.
func (s *Session) finish(o Outcome) bool {
	s.dispatch.Lock()
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		s.dispatch.Unlock()
		return false
	}
	s.active = false
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	o.Last = s.last
	o.Ticks = s.ticks
	s.outcome = o
	s.mu.Unlock()
	s.dispatch.Unlock()

	p := s.poller
	p.terminating(s)

	switch {
	case o.Kind == OutcomeSuccess:
		s.cb.success()
	case o.Failed():
		s.cb.failure(o.Reason)
	}

	p.controls.Enable()
	p.release(s)
	s.cancel()

	ev := p.logger.Info()
	if o.Failed() {
		ev = p.logger.Warn()
	}
	ev.Str("outcome", o.Kind.String()).
		Int("ticks", o.Ticks).
		Int("progress", o.Last.Progress).
		Str("reason", o.Reason).
		Msg("job session finished")

	close(s.done)
	return true
}
