/*
Package chat contains the client-side session state of a single chat room.

This file defines State, the reducer that folds decoded server events into the roster,
the message history and the local typing flag. State performs no I/O and never waits:
timer work is returned as Effects for the session loop to carry out.
*/
package chat

import (
	"strings"
	"time"

	"roomchat/internal/app/user"
	"roomchat/internal/app/wire"
)

// ChatMessage is one entry of the append-only message history.
type ChatMessage struct {
	Sender     string     `json:"sender"`
	Body       string     `json:"body"`
	ReceivedAt time.Time  `json:"receivedAt"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
}

// IsImage reports whether the body is a link to an animated image.
func (m ChatMessage) IsImage() bool {
	return strings.HasSuffix(m.Body, ".gif")
}

// EffectKind names a timer operation requested by the reducer.
type EffectKind int

const (
	// ArmTyping starts (or restarts) the typing expiry for a user.
	ArmTyping EffectKind = iota + 1

	// CancelTyping stops the pending typing expiry for a user.
	CancelTyping
)

// Effect is a side effect the reducer asks its owner to perform.
type Effect struct {
	Kind EffectKind
	User string
}

// Result describes the outcome of applying one event.
type Result struct {
	// Changed is true when the visible state differs and a re-render is due.
	Changed bool

	// Effects lists timer operations to perform, in order.
	Effects []Effect

	// Ignored names the kind of event that was dropped as a no-op, if any.
	Ignored string
}

// Ignored event kinds.
const (
	IgnoredRegister     = "register_inbound"
	IgnoredUnknown      = "unknown_type"
	IgnoredEmptyMessage = "empty_message"
)

// State is the authoritative view of one chat session.
// It is owned by a single goroutine and is not safe for concurrent use.
type State struct {
	users       []user.Profile
	index       map[string]int
	messages    []ChatMessage
	localTyping bool
	ignored     int
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		users:    []user.Profile{},
		index:    map[string]int{},
		messages: []ChatMessage{},
	}
}

// Apply folds one decoded event into the state. now is the receive time.
func (s *State) Apply(env wire.Envelope, now time.Time) Result {
	switch env.Type {
	case wire.TypeUsers:
		return s.applyUsers(env.Names)

	case wire.TypeMessage:
		if env.Message == nil {
			return s.ignore(IgnoredEmptyMessage)
		}
		return s.applyMessage(*env.Message, now)

	case wire.TypeTyping:
		return s.applyTyping(env.Name, now)

	case wire.TypeRegister:
		// Registration only flows client to server.
		return s.ignore(IgnoredRegister)

	default:
		return s.ignore(IgnoredUnknown)
	}
}

// applyUsers replaces the roster with the snapshot. Every live typing indicator is
// reset, so every pending expiry is canceled along with it.
func (s *State) applyUsers(names []string) Result {
	var effects []Effect
	for _, p := range s.users {
		if p.IsTyping {
			effects = append(effects, Effect{Kind: CancelTyping, User: p.Name})
		}
	}

	users := make([]user.Profile, 0, len(names))
	index := make(map[string]int, len(names))
	for _, name := range names {
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = len(users)
		users = append(users, user.NewProfile(name))
	}

	changed := !sameRoster(s.users, users)
	s.users = users
	s.index = index

	return Result{Changed: changed, Effects: effects}
}

func (s *State) applyMessage(data wire.MessageData, now time.Time) Result {
	msg := ChatMessage{
		Sender:     data.From,
		Body:       data.Message,
		ReceivedAt: now,
	}
	if data.Timestamp != nil {
		sent := time.UnixMilli(*data.Timestamp)
		msg.SentAt = &sent
	}
	s.messages = append(s.messages, msg)

	if i, ok := s.index[data.From]; ok {
		seen := now
		s.users[i].LastSeen = &seen
	}

	return Result{Changed: true}
}

// applyTyping marks a roster member as typing. Unknown names are dropped without
// touching the roster.
func (s *State) applyTyping(name string, now time.Time) Result {
	i, ok := s.index[name]
	if !ok {
		return Result{}
	}

	seen := now
	s.users[i].IsTyping = true
	s.users[i].LastSeen = &seen

	return Result{
		Changed: true,
		Effects: []Effect{{Kind: ArmTyping, User: name}},
	}
}

func (s *State) ignore(kind string) Result {
	s.ignored++
	return Result{Ignored: kind}
}

// ClearTyping resets the typing flag of name after its expiry fired.
// It reports whether the visible state changed.
func (s *State) ClearTyping(name string) bool {
	i, ok := s.index[name]
	if !ok || !s.users[i].IsTyping {
		return false
	}
	s.users[i].IsTyping = false
	return true
}

// SetInput records the current content of the local input box.
// It reports whether the local typing flag changed.
func (s *State) SetInput(text string) bool {
	typing := text != ""
	if typing == s.localTyping {
		return false
	}
	s.localTyping = typing
	return true
}

// MessageSent clears the local typing flag after a message left the client.
func (s *State) MessageSent() bool {
	if !s.localTyping {
		return false
	}
	s.localTyping = false
	return true
}

// Profile returns the roster entry for name.
func (s *State) Profile(name string) (user.Profile, bool) {
	i, ok := s.index[name]
	if !ok {
		return user.Profile{}, false
	}
	return s.users[i], true
}

// SenderProfile returns the roster entry for name, or a transient profile when name
// is not in the roster. Transient profiles are never stored.
func (s *State) SenderProfile(name string) (user.Profile, bool) {
	if p, ok := s.Profile(name); ok {
		return p, false
	}
	return user.NewProfile(name), true
}

// Users returns a copy of the roster in snapshot order.
func (s *State) Users() []user.Profile {
	out := make([]user.Profile, len(s.users))
	copy(out, s.users)
	return out
}

// Messages returns a copy of the message history.
func (s *State) Messages() []ChatMessage {
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// LocalTyping reports whether the local input box is non-empty.
func (s *State) LocalTyping() bool {
	return s.localTyping
}

// IgnoredCount returns how many events were dropped as no-ops.
func (s *State) IgnoredCount() int {
	return s.ignored
}

func sameRoster(a, b []user.Profile) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].IsTyping != b[i].IsTyping {
			return false
		}
		if (a[i].LastSeen == nil) != (b[i].LastSeen == nil) {
			return false
		}
		if a[i].LastSeen != nil && !a[i].LastSeen.Equal(*b[i].LastSeen) {
			return false
		}
	}
	return true
}
