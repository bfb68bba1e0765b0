package chat

import "roomchat/internal/app/user"

// MessageView is a history entry paired with the profile to display next to it.
type MessageView struct {
	ChatMessage

	// Author is the roster profile of the sender, or a transient one.
	Author user.Profile `json:"author"`

	// Transient is true when the sender is not in the current roster.
	Transient bool `json:"transient"`
}

// Snapshot is the read-only state handed to presenters after every change.
type Snapshot struct {
	Username    string         `json:"username"`
	Users       []user.Profile `json:"users"`
	Messages    []MessageView  `json:"messages"`
	LocalTyping bool           `json:"localTyping"`
	Ignored     int            `json:"ignored"`
}

// Snapshot copies the state for rendering. Transient sender profiles are derived
// here on every call.
func (s *State) Snapshot(username string) Snapshot {
	views := make([]MessageView, len(s.messages))
	for i, m := range s.messages {
		author, transient := s.SenderProfile(m.Sender)
		views[i] = MessageView{ChatMessage: m, Author: author, Transient: transient}
	}

	return Snapshot{
		Username:    username,
		Users:       s.Users(),
		Messages:    views,
		LocalTyping: s.localTyping,
		Ignored:     s.ignored,
	}
}

// TypingUsers returns the names currently shown as typing.
func (snap Snapshot) TypingUsers() []string {
	var names []string
	for _, u := range snap.Users {
		if u.IsTyping {
			names = append(names, u.Name)
		}
	}
	return names
}

// User returns the roster entry for name.
func (snap Snapshot) User(name string) (user.Profile, bool) {
	for _, u := range snap.Users {
		if u.Name == name {
			return u, true
		}
	}
	return user.Profile{}, false
}
