/*
Package chat contains the client-side session state of a single chat room.

This file defines Session, the single owner of a State. Inbound frames, fired typing
timers and presenter intents are all queued into one mailbox and handled in arrival
order by the Run loop, so the state is never mutated from two goroutines.
*/
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomchat/internal/app/typing"
	"roomchat/internal/app/wire"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

const (
	// DefaultMailboxSize is the queue length between producers and the Run loop.
	DefaultMailboxSize = 256

	// DefaultMessageRate is the sustained outbound chat rate, in messages per second.
	DefaultMessageRate = 5

	// DefaultMessageBurst is the number of chat messages that may be sent back to back.
	DefaultMessageBurst = 10
)

// Transport is the duplex text channel to the chat server.
type Transport interface {
	// Send hands one text frame to the channel without blocking.
	Send(text string) error

	// OnReceive registers the callback invoked for every inbound text frame.
	OnReceive(handler func(text string))
}

// Presenter renders the session and is told about messages that could not be sent.
// Both methods are called from the session loop and must return quickly.
type Presenter interface {
	Render(snap Snapshot)
	SendFailed(body string, err error)
}

// Presenters fans every call out to each presenter in order.
type Presenters []Presenter

func (ps Presenters) Render(snap Snapshot) {
	for _, p := range ps {
		p.Render(snap)
	}
}

func (ps Presenters) SendFailed(body string, err error) {
	for _, p := range ps {
		p.SendFailed(body, err)
	}
}

// Observer receives observability events from the session loop.
type Observer interface {
	FrameReceived()
	DecodeFailed(err error)
	EventIgnored(kind string)
	FrameSent(kind wire.MessageType)
	SendFailed(err error)
	RosterSize(n int)
	TypingTimers(n int)
}

// Config holds the per-session settings.
type Config struct {
	// Username is the identity registered with the server.
	Username string

	// SessionID correlates log lines of one session.
	SessionID string

	// TypingTimeout is the quiet period before a remote typing indicator clears.
	TypingTimeout time.Duration

	// MailboxSize bounds the number of queued inbound frames and intents.
	MailboxSize int

	// MessageRate and MessageBurst throttle outbound chat messages.
	MessageRate  rate.Limit
	MessageBurst int
}

// Option customizes a Session.
type Option func(*Session)

// WithClock replaces the wall clock used for receive times and typing expiries.
func WithClock(clock typing.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithObserver installs an observability hook.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// Session is the single-owner actor around a chat State.
type Session struct {
	cfg       Config
	state     *State
	timers    *typing.Manager
	clock     typing.Clock
	transport Transport
	presenter Presenter
	observer  Observer
	limiter   *rate.Limiter

	// mailbox carries every unit of work for the Run loop, in arrival order.
	mailbox chan func()

	// done is closed when Run returns.
	done    chan struct{}
	started atomic.Bool

	logger zerolog.Logger
}

// NewSession builds a session for cfg.Username on top of transport.
// The transport's receive callback is bound immediately; frames queue until Run starts.
func NewSession(cfg Config, transport Transport, presenter Presenter, opts ...Option) (*Session, error) {
	if cfg.Username == "" {
		return nil, fmt.Errorf("chat: username is required")
	}
	if transport == nil {
		return nil, fmt.Errorf("chat: transport is required")
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = DefaultMailboxSize
	}
	if cfg.MessageRate <= 0 {
		cfg.MessageRate = DefaultMessageRate
	}
	if cfg.MessageBurst <= 0 {
		cfg.MessageBurst = DefaultMessageBurst
	}

	s := &Session{
		cfg:       cfg,
		state:     NewState(),
		clock:     typing.RealClock,
		transport: transport,
		presenter: presenter,
		observer:  nopObserver{},
		limiter:   rate.NewLimiter(cfg.MessageRate, cfg.MessageBurst),
		mailbox:   make(chan func(), cfg.MailboxSize),
		done:      make(chan struct{}),
		logger: logx.Logger().With().
			Str("component", "session").
			Str("session_id", cfg.SessionID).
			Str("username", cfg.Username).
			Logger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.timers = typing.NewManager(s.clock, cfg.TypingTimeout, s.enqueueExpiry)
	transport.OnReceive(s.enqueueFrame)

	return s, nil
}

// Username returns the identity this session registered.
func (s *Session) Username() string {
	return s.cfg.Username
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run registers with the server and then serves the mailbox until ctx is canceled.
// It must be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("chat: session already started")
	}

	defer close(s.done)
	defer func() {
		if n := s.timers.CancelAll(); n > 0 {
			s.logger.Debug().Int("timers", n).Msg("Canceled pending typing expiries on shutdown.")
		}
		s.observer.TypingTimers(0)
	}()

	if err := s.send(BuildRegister(s.cfg.Username)); err != nil {
		s.observer.SendFailed(err)
		s.logger.Error().Err(err).Msg("Failed to send registration frame.")
		return fmt.Errorf("chat: register: %w", err)
	}
	s.logger.Info().Msg("Registered with chat server.")

	s.render()

	for {
		select {
		case work := <-s.mailbox:
			work()

		case <-ctx.Done():
			s.logger.Info().Msg("Session loop stopped.")
			return ctx.Err()
		}
	}
}

// SubmitMessage sends text as a chat message. Blank text is rejected with
// errs.ErrEmptyMessage. Send failures are also reported to the presenter.
func (s *Session) SubmitMessage(ctx context.Context, text string) error {
	var result error
	if err := s.do(ctx, func() { result = s.submit(text) }); err != nil {
		return err
	}
	return result
}

// InputChanged records the current content of the local input box.
func (s *Session) InputChanged(ctx context.Context, text string) error {
	return s.do(ctx, func() {
		if s.state.SetInput(text) {
			s.render()
		}
	})
}

// Snapshot returns the current state as seen by the loop.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() { snap = s.state.Snapshot(s.cfg.Username) })
	return snap, err
}

// do runs fn on the loop goroutine and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	work := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.mailbox <- work:
	case <-s.done:
		return errs.NewError(errs.ErrSessionStopped)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-s.done:
		return errs.NewError(errs.ErrSessionStopped)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueueFrame is the transport callback. It blocks while the mailbox is full.
func (s *Session) enqueueFrame(text string) {
	select {
	case s.mailbox <- func() { s.handleFrame(text) }:
	case <-s.done:
	}
}

// enqueueExpiry is the timer callback; it runs on the clock's goroutine.
func (s *Session) enqueueExpiry(exp typing.Expiry) {
	select {
	case s.mailbox <- func() { s.handleExpiry(exp) }:
	case <-s.done:
	}
}

func (s *Session) handleFrame(text string) {
	s.observer.FrameReceived()

	env, err := wire.Decode(text)
	if err != nil {
		s.observer.DecodeFailed(err)
		s.logger.Warn().
			Err(err).
			Int("code", errs.CodeOf(err)).
			Int("frame_bytes", len(text)).
			Msg("Discarding undecodable frame.")
		return
	}

	res := s.state.Apply(env, s.clock.Now())

	if res.Ignored != "" {
		s.observer.EventIgnored(res.Ignored)
		s.logger.Debug().Str("kind", res.Ignored).Msg("Ignored inbound event.")
	}

	for _, effect := range res.Effects {
		switch effect.Kind {
		case ArmTyping:
			s.timers.Arm(effect.User)
		case CancelTyping:
			s.timers.Cancel(effect.User)
		}
	}
	s.observer.TypingTimers(s.timers.Len())

	if env.Type == wire.TypeUsers {
		s.observer.RosterSize(len(s.state.users))
		s.logger.Debug().Int("users", len(s.state.users)).Msg("Roster replaced.")
	}

	if res.Changed {
		s.render()
	}
}

func (s *Session) handleExpiry(exp typing.Expiry) {
	if !s.timers.Expire(exp) {
		return
	}
	s.observer.TypingTimers(s.timers.Len())

	if s.state.ClearTyping(exp.User) {
		s.render()
	}
}

func (s *Session) submit(text string) error {
	intent, ok := BuildSendMessage(text)
	if !ok {
		return errs.NewError(errs.ErrEmptyMessage)
	}

	if !s.limiter.Allow() {
		err := errs.NewError(errs.ErrRateLimitExceeded)
		s.sendFailed(intent.Body, err)
		return err
	}

	if err := s.send(intent); err != nil {
		s.sendFailed(intent.Body, err)
		return err
	}

	if s.state.MessageSent() {
		s.render()
	}
	return nil
}

func (s *Session) send(intent wire.Intent) error {
	text, err := wire.Encode(intent)
	if err != nil {
		return errs.Wrap(errs.ErrUnknown, err)
	}

	if err := s.transport.Send(text); err != nil {
		var customErr *errs.CustomError
		if !errors.As(err, &customErr) {
			err = errs.Wrap(errs.ErrChannelClosed, err)
		}
		return err
	}

	kind := wire.TypeMessage
	if _, ok := intent.(wire.Register); ok {
		kind = wire.TypeRegister
	}
	s.observer.FrameSent(kind)
	return nil
}

func (s *Session) sendFailed(body string, err error) {
	s.observer.SendFailed(err)
	s.logger.Warn().Err(err).Int("code", errs.CodeOf(err)).Msg("Message not sent.")
	if s.presenter != nil {
		s.presenter.SendFailed(body, err)
	}
}

func (s *Session) render() {
	if s.presenter != nil {
		s.presenter.Render(s.state.Snapshot(s.cfg.Username))
	}
}

type nopObserver struct{}

func (nopObserver) FrameReceived()             {}
func (nopObserver) DecodeFailed(error)         {}
func (nopObserver) EventIgnored(string)        {}
func (nopObserver) FrameSent(wire.MessageType) {}
func (nopObserver) SendFailed(error)           {}
func (nopObserver) RosterSize(int)             {}
func (nopObserver) TypingTimers(int)           {}
