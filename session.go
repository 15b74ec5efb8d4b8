package hwcodec

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateOpen     State = iota // Handle created, nothing fed yet
	StateRunning               // At least one Feed accepted
	StateDraining              // Drain in progress
	StateClosed                // Handle released; no further operations
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateRunning:
		return "Running"
	case StateDraining:
		return "Draining"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// SessionStats counts the work done by a session.
type SessionStats struct {
	Inputs            uint64 // Feed calls forwarded to the backend
	Outputs           uint64 // Units returned by Feed and Drain
	TransientFailures uint64
}

// Session drives one backend handle through Open, Running, Draining and
// Closed. Outputs are returned exactly as the backend produced them; any
// reordering is the backend's.
//
// A Session is not reentrant. Calls are serialized internally, but callers
// should not rely on concurrent Feeds having any particular order.
type Session[In, Out any] struct {
	id      uuid.UUID
	backend string
	logger  hclog.Logger

	mu         sync.Mutex
	handle     Handle[In, Out]
	state      State
	terminated bool
	seq        uint64
	stats      SessionStats
}

// EncodeSession feeds raw frames and returns packets.
type EncodeSession = Session[*Frame, *Packet]

// DecodeSession feeds packets and returns raw frames.
type DecodeSession = Session[*Packet, *Frame]

// SessionOption configures a session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	logger hclog.Logger
}

// WithSessionLogger sets the logger for session diagnostics.
func WithSessionLogger(l hclog.Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = l }
}

// OpenEncoder opens an encode session on b. It fails with
// ErrUnsupportedFormat for an invalid ctx and ErrBackendUnavailable when
// the backend cannot be opened.
func OpenEncoder(b EncoderBackend, ctx EncodeContext, opts ...SessionOption) (*EncodeSession, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if !ctx.Allows(b.Name()) {
		return nil, fmt.Errorf("%w: %s: excluded by device %q", ErrBackendUnavailable, b.Name(), ctx.Device)
	}
	ctx = ctx.WithName(b.Name())
	h, err := b.OpenEncoder(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, b.Name(), err)
	}
	return newSession[*Frame, *Packet](b.Name(), h, opts), nil
}

// OpenDecoder opens a decode session on b.
func OpenDecoder(b DecoderBackend, ctx DecodeContext, opts ...SessionOption) (*DecodeSession, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	ctx = ctx.WithName(b.Name())
	h, err := b.OpenDecoder(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, b.Name(), err)
	}
	return newSession[*Packet, *Frame](b.Name(), h, opts), nil
}

// NewSession wraps an already opened handle. The session takes ownership of h.
func NewSession[In, Out any](backend string, h Handle[In, Out], opts ...SessionOption) *Session[In, Out] {
	return newSession[In, Out](backend, h, opts)
}

func newSession[In, Out any](backend string, h Handle[In, Out], opts []SessionOption) *Session[In, Out] {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.New()
	s := &Session[In, Out]{
		id:      id,
		backend: backend,
		handle:  h,
		state:   StateOpen,
		logger:  loggerOr(o.logger).Named("session").With("backend", backend, "session", id.String()),
	}
	s.logger.Debug("session opened")
	return s
}

// ID returns the session identifier used in log lines.
func (s *Session[In, Out]) ID() uuid.UUID { return s.id }

// Backend returns the backend name.
func (s *Session[In, Out]) Backend() string { return s.backend }

// State returns the current state.
func (s *Session[In, Out]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns the session counters.
func (s *Session[In, Out]) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Feed forwards one input unit and returns the zero or more outputs the
// backend produced. A non-fatal backend error is returned wrapped in
// ErrTransientFeed and the session stays usable. A fatal one closes the
// session and is returned wrapped in ErrSessionTerminated.
func (s *Session[In, Out]) Feed(in In) ([]Out, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	s.state = StateRunning
	s.seq++
	s.stats.Inputs++

	out, err := s.handle.Feed(in)
	if err != nil {
		return nil, s.fail("feed", err)
	}
	s.stats.Outputs += uint64(len(out))
	if s.logger.IsTrace() {
		s.logger.Trace("fed", "seq", s.seq, "outputs", len(out))
	}
	return out, nil
}

// Drain signals end of stream: the backend is flushed once, its remaining
// outputs are returned, and the session is closed. The handle is released
// even when the flush fails.
func (s *Session[In, Out]) Drain() ([]Out, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	s.state = StateDraining
	out, err := s.handle.Flush()
	s.release()
	if err != nil {
		if IsFatal(err) {
			s.terminated = true
			return nil, fmt.Errorf("%w: %s: flush: %w", ErrSessionTerminated, s.backend, err)
		}
		s.stats.TransientFailures++
		return nil, fmt.Errorf("%w: %s: flush: %w", ErrTransientFeed, s.backend, err)
	}
	s.stats.Outputs += uint64(len(out))
	s.logger.Debug("session drained", "inputs", s.stats.Inputs, "outputs", s.stats.Outputs)
	return out, nil
}

// Close releases the backend handle, discarding buffered outputs. It is
// safe to call more than once and after Drain.
func (s *Session[In, Out]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		s.release()
		s.logger.Debug("session closed", "inputs", s.stats.Inputs, "outputs", s.stats.Outputs)
	}
	return nil
}

// Handle exposes the backend handle for optional capabilities. It returns
// nil once the session is closed.
func (s *Session[In, Out]) Handle() Handle[In, Out] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	return s.handle
}

// SetBitrate changes the target bitrate of a running encode session.
func SetBitrate(s *EncodeSession, kbps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	setter, ok := s.handle.(BitrateSetter)
	if !ok {
		return fmt.Errorf("%w: %s: dynamic bitrate", ErrNotSupported, s.backend)
	}
	if err := setter.SetBitrate(kbps); err != nil {
		return s.fail("set bitrate", err)
	}
	return nil
}

// usable reports why the session cannot accept calls. s.mu must be held.
func (s *Session[In, Out]) usable() error {
	if s.state != StateClosed {
		return nil
	}
	if s.terminated {
		return fmt.Errorf("%w: %s", ErrSessionTerminated, s.backend)
	}
	return fmt.Errorf("%w: %s", ErrSessionClosed, s.backend)
}

// fail classifies a backend error. s.mu must be held.
func (s *Session[In, Out]) fail(op string, err error) error {
	if IsFatal(err) {
		s.terminated = true
		s.release()
		s.logger.Warn("backend fault, session terminated", "op", op, "seq", s.seq, "error", err)
		return fmt.Errorf("%w: %s: %s: %w", ErrSessionTerminated, s.backend, op, err)
	}
	s.stats.TransientFailures++
	s.logger.Debug("transient failure", "op", op, "seq", s.seq, "error", err)
	return fmt.Errorf("%w: %s: %s: %w", ErrTransientFeed, s.backend, op, err)
}

// release closes the handle exactly once. s.mu must be held.
func (s *Session[In, Out]) release() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.handle.Close()
}
