package wire

import (
	"encoding/json"
	"fmt"
)

// The functions below build the frames a chat server pushes to its clients.
// The client never sends these; they exist for fake servers and fixtures.

// UsersFrame encodes a roster snapshot.
func UsersFrame(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	return marshalFrame(frame{MessageType: TypeUsers, DataArray: names})
}

// TypingFrame encodes a typing notification for name.
func TypingFrame(name string) (string, error) {
	return marshalFrame(frame{MessageType: TypeTyping, Data: &name})
}

// MessageFrame encodes a relayed chat message; the record is nested as a JSON string.
func MessageFrame(data MessageData) (string, error) {
	inner, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("wire: failed to encode message record: %w", err)
	}
	s := string(inner)
	return marshalFrame(frame{MessageType: TypeMessage, Data: &s})
}

func marshalFrame(f frame) (string, error) {
	out, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("wire: failed to encode %s frame: %w", f.MessageType, err)
	}
	return string(out), nil
}
