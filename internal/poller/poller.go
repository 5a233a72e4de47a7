// Package poller drives a long-running host job to completion by polling its
// status on a fixed interval and turning the status stream into exactly one
// terminal outcome.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hostsgen/internal/progress"
)

// DefaultInterval is the status poll period.
const DefaultInterval = 250 * time.Millisecond

// ErrBusy is returned by RunJob when a session is already active.
var ErrBusy = errors.New("a job is already running")

// State is the poller's position in its Idle -> Running -> Terminating cycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// StartFunc asks the host to begin the job.
type StartFunc func(ctx context.Context) error

// StatusFunc fetches the current job status from the host.
type StatusFunc func(ctx context.Context) (progress.Status, error)

// Callbacks receive the session's progress and its single terminal outcome.
// They run one at a time and must not cancel their own session.
type Callbacks struct {
	Progress func(progress.Status)
	Success  func()
	Failure  func(reason string)
}

func (c Callbacks) progress(st progress.Status) {
	if c.Progress != nil {
		c.Progress(st)
	}
}

func (c Callbacks) success() {
	if c.Success != nil {
		c.Success()
	}
}

func (c Callbacks) failure(reason string) {
	if c.Failure != nil {
		c.Failure(reason)
	}
}

// Controls are the triggers that must stay disabled while a job runs.
// Implementations must not call back into the Poller.
type Controls interface {
	Disable(busyLabel string)
	Enable()
}

type nopControls struct{}

func (nopControls) Disable(string) {}
func (nopControls) Enable()        {}

// Poller owns at most one active Session.
type Poller struct {
	interval  time.Duration
	retries   int
	controls  Controls
	busyLabel string
	logger    zerolog.Logger

	mu      sync.Mutex
	state   State
	session *Session
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll period. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollRetries tolerates up to n consecutive status errors before the
// session fails. Zero (the default) fails on the first error.
func WithPollRetries(n int) Option {
	return func(p *Poller) {
		if n >= 0 {
			p.retries = n
		}
	}
}

// WithControls attaches the triggers to disable while a session is active.
func WithControls(c Controls) Option {
	return func(p *Poller) {
		if c != nil {
			p.controls = c
		}
	}
}

// WithBusyLabel sets the label shown on disabled controls.
func WithBusyLabel(label string) Option {
	return func(p *Poller) {
		p.busyLabel = label
	}
}

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// New constructs an idle Poller.
func New(opts ...Option) *Poller {
	p := &Poller{
		interval:  DefaultInterval,
		controls:  nopControls{},
		busyLabel: "working",
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.With().Str("component", "poller").Logger()
	return p
}

// Interval returns the configured poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// State returns the current poller state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Active returns the running session, or nil when idle.
func (p *Poller) Active() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Cancel force-stops the active session, if any. Used on view teardown.
func (p *Poller) Cancel() {
	if s := p.Active(); s != nil {
		s.Cancel()
	}
}

// RunJob disables the controls, starts the job and, when the start succeeds,
// polls status until the first terminal tick. It returns immediately after
// start; the outcome is delivered through cb and Session.Wait.
//
// A start error is reported through cb.Failure before RunJob returns and no
// poll ever happens. The only error RunJob itself returns is ErrBusy.
func (p *Poller) RunJob(ctx context.Context, start StartFunc, status StatusFunc, cb Callbacks) (*Session, error) {
	if start == nil || status == nil {
		return nil, errors.New("poller: start and status are required")
	}

	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		poller: p,
		ctx:    sctx,
		cancel: cancel,
		cb:     cb,
		active: true,
		done:   make(chan struct{}),
	}
	p.state = StateRunning
	p.session = s
	p.mu.Unlock()

	p.controls.Disable(p.busyLabel)
	p.logger.Debug().Msg("job session started")

	if err := start(sctx); err != nil {
		if sctx.Err() != nil {
			s.finish(Outcome{Kind: OutcomeCancelled, Reason: "cancelled", Err: sctx.Err()})
			return s, nil
		}
		s.finish(Outcome{Kind: OutcomeStartFailure, Reason: err.Error(), Err: err})
		return s, nil
	}

	s.mu.Lock()
	if !s.active {
		// Cancelled while start was in flight.
		s.mu.Unlock()
		return s, nil
	}
	s.ticker = time.NewTicker(p.interval)
	tick := s.ticker.C
	s.mu.Unlock()

	go s.loop(tick, status)
	return s, nil
}

// Run is RunJob followed by Wait.
func (p *Poller) Run(ctx context.Context, start StartFunc, status StatusFunc, cb Callbacks) (Outcome, error) {
	s, err := p.RunJob(ctx, start, status, cb)
	if err != nil {
		return Outcome{}, err
	}
	return s.Wait(context.Background())
}

func (p *Poller) terminating(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == s {
		p.state = StateTerminating
	}
}

func (p *Poller) release(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == s {
		p.session = nil
		p.state = StateIdle
	}
}
