/*
Package console is the terminal presentation layer of the chat client.

Renderer prints what changed between two session snapshots: the roster when membership
or typing status changes, and every message appended since the previous render.
ReadLines feeds the lines typed by the user back into the session.
*/
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"roomchat/internal/app/chat"
	"roomchat/internal/pkg/errs"
)

// Renderer writes session updates to a terminal.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer

	// roster is the signature of the last printed roster.
	roster string

	// printed is the number of history entries already written.
	printed int
}

// NewRenderer returns a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Render prints the parts of snap that changed since the previous call.
func (r *Renderer) Render(snap chat.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sig := rosterSignature(snap); sig != r.roster {
		r.roster = sig
		r.printRoster(snap)
	}

	// History is append-only; a shorter snapshot means a new session.
	if len(snap.Messages) < r.printed {
		r.printed = 0
	}
	for _, m := range snap.Messages[r.printed:] {
		r.printMessage(snap.Username, m)
	}
	r.printed = len(snap.Messages)
}

// SendFailed reports a message that did not leave the client.
func (r *Renderer) SendFailed(body string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "! message not sent: %s (%s)\n", body, reason(err))
}

func (r *Renderer) printRoster(snap chat.Snapshot) {
	fmt.Fprintf(r.out, "Online: %d\n", len(snap.Users))
	for _, u := range snap.Users {
		status := "online"
		if u.IsTyping {
			status = "typing..."
		}

		name := u.Name
		if name == snap.Username {
			name += " (you)"
		}
		fmt.Fprintf(r.out, "  %s %s\n", name, status)
	}
}

func (r *Renderer) printMessage(self string, m chat.MessageView) {
	at := m.ReceivedAt
	if m.SentAt != nil {
		at = *m.SentAt
	}

	body := m.Body
	if m.IsImage() {
		body = "[image] " + body
	}

	name := m.Sender
	if name == self {
		name = "you"
	}

	fmt.Fprintf(r.out, "[%s] %s: %s\n", clock(at), name, body)
}

// reason returns the user-facing text of err.
func reason(err error) string {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return customErr.Message
	}
	return err.Error()
}

func clock(t time.Time) string {
	return t.Local().Format("15:04")
}

func rosterSignature(snap chat.Snapshot) string {
	var b strings.Builder
	for _, u := range snap.Users {
		b.WriteString(u.Name)
		if u.IsTyping {
			b.WriteString("*")
		}
		b.WriteByte(0)
	}
	return b.String()
}
