package wire

import (
	"encoding/json"
	"fmt"

	"roomchat/internal/pkg/errs"
)

// Intent is an outbound request the client can put on the wire.
type Intent interface {
	wireFrame() frame
}

// Register announces the local username. It is sent once, right after connecting.
type Register struct {
	Username string
}

func (r Register) wireFrame() frame {
	return frame{MessageType: TypeRegister, Data: &r.Username}
}

// SendMessage carries a chat message body. The server stamps the sender from the
// connection's registered username.
type SendMessage struct {
	Body string
}

func (m SendMessage) wireFrame() frame {
	return frame{MessageType: TypeMessage, Data: &m.Body}
}

// Encode serializes an outbound intent into a text frame.
func Encode(intent Intent) (string, error) {
	out, err := json.Marshal(intent.wireFrame())
	if err != nil {
		return "", fmt.Errorf("wire: failed to encode %T: %w", intent, err)
	}
	return string(out), nil
}

// Decode parses an inbound text frame.
// Invalid JSON or an unknown messageType yields errs.ErrMalformedEnvelope; a payload
// that does not fit the declared type yields errs.ErrMalformedPayload.
func Decode(text string) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Envelope{}, errs.Wrap(errs.ErrMalformedEnvelope, err)
	}

	var msgType MessageType
	rawType, ok := fields["messageType"]
	if !ok {
		return Envelope{}, errs.Wrap(errs.ErrMalformedEnvelope, fmt.Errorf("missing messageType"))
	}
	if err := json.Unmarshal(rawType, &msgType); err != nil {
		return Envelope{}, errs.Wrap(errs.ErrMalformedEnvelope, fmt.Errorf("messageType: %w", err))
	}
	if !msgType.Valid() {
		return Envelope{}, errs.Wrap(errs.ErrMalformedEnvelope, fmt.Errorf("unknown messageType %q", msgType))
	}

	dataArray, err := decodeDataArray(fields["dataArray"])
	if err != nil {
		return Envelope{}, errs.Wrap(errs.ErrMalformedPayload, err)
	}
	data, err := decodeData(fields["data"])
	if err != nil {
		return Envelope{}, errs.Wrap(errs.ErrMalformedPayload, err)
	}

	env := Envelope{Type: msgType}

	switch msgType {
	case TypeUsers:
		if data != nil {
			return Envelope{}, payloadError(msgType, "data must be null")
		}
		// A null roster is an empty room.
		env.Names = dataArray
		if env.Names == nil {
			env.Names = []string{}
		}

	case TypeRegister, TypeTyping:
		if dataArray != nil {
			return Envelope{}, payloadError(msgType, "dataArray must be null")
		}
		if data == nil {
			return Envelope{}, payloadError(msgType, "missing data string")
		}
		env.Name = *data

	case TypeMessage:
		if dataArray != nil {
			return Envelope{}, payloadError(msgType, "dataArray must be null")
		}
		if data == nil {
			return Envelope{}, payloadError(msgType, "missing data string")
		}
		msg, err := DecodeMessageData(*data)
		if err != nil {
			return Envelope{}, err
		}
		env.Message = &msg
	}

	return env, nil
}

// DecodeMessageData parses the inner {"from", "message", "timestamp"} record.
// Both from and message must be present strings.
func DecodeMessageData(text string) (MessageData, error) {
	var inner struct {
		From      *string `json:"from"`
		Message   *string `json:"message"`
		Timestamp *int64  `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(text), &inner); err != nil {
		return MessageData{}, errs.Wrap(errs.ErrMalformedPayload, fmt.Errorf("message record: %w", err))
	}
	if inner.From == nil || inner.Message == nil {
		return MessageData{}, payloadError(TypeMessage, "message record requires from and message")
	}

	return MessageData{
		From:      *inner.From,
		Message:   *inner.Message,
		Timestamp: inner.Timestamp,
	}, nil
}

func decodeDataArray(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("dataArray: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func decodeData(raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return &out, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func payloadError(t MessageType, detail string) *errs.CustomError {
	return errs.Wrap(errs.ErrMalformedPayload, fmt.Errorf("%s: %s", t, detail))
}
