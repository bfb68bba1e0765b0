package chat

import (
	"strings"

	"roomchat/internal/app/wire"
)

// BuildRegister builds the registration frame announcing username.
// A session sends it exactly once, before any other outbound frame.
func BuildRegister(username string) wire.Register {
	return wire.Register{Username: username}
}

// BuildSendMessage builds a chat message frame for body. It returns false when the
// body is blank, in which case nothing must be sent. Surrounding whitespace is trimmed.
//
// The frame does not carry a sender: the server stamps "from" with the username the
// connection registered.
func BuildSendMessage(body string) (wire.SendMessage, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return wire.SendMessage{}, false
	}
	return wire.SendMessage{Body: trimmed}, true
}
