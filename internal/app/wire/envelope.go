/*
Package wire encodes and decodes the JSON envelope exchanged with the chat server.

Every frame is a JSON object {"messageType", "dataArray", "data"}. The messageType tag
selects which of the two payload fields is meaningful: "users" carries the roster in
dataArray, while "register", "typing" and "message" carry a string in data. For inbound
"message" frames that string is itself a JSON record {"from", "message", "timestamp"}.
*/
package wire

// MessageType is the lowercase tag carried in the messageType field.
type MessageType string

const (
	TypeUsers    MessageType = "users"
	TypeRegister MessageType = "register"
	TypeMessage  MessageType = "message"
	TypeTyping   MessageType = "typing"
)

// Valid reports whether t is one of the four protocol tags.
func (t MessageType) Valid() bool {
	switch t {
	case TypeUsers, TypeRegister, TypeMessage, TypeTyping:
		return true
	}
	return false
}

// frame is the exact JSON shape on the wire. Absent payloads are encoded as null.
type frame struct {
	MessageType MessageType `json:"messageType"`
	DataArray   []string    `json:"dataArray"`
	Data        *string     `json:"data"`
}

// MessageData is the inner record of an inbound "message" frame.
type MessageData struct {
	From    string `json:"from"`
	Message string `json:"message"`

	// Timestamp is the sender's clock in Unix milliseconds, when the server supplies one.
	Timestamp *int64 `json:"timestamp"`
}

// Envelope is a decoded inbound frame. Only the field matching Type is set.
type Envelope struct {
	Type MessageType

	// Names is the roster of a "users" frame, in server order.
	Names []string

	// Name is the username of a "register" or "typing" frame.
	Name string

	// Message is the decoded inner record of a "message" frame.
	Message *MessageData
}
