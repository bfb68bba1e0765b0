/*
Package errs provides custom error types and application-level error code constants.

These error codes identify every failure the chat client can surface: frames that
cannot be decoded, outbound frames that cannot be handed to the transport, and
malformed requests arriving on the local HTTP bridge.
*/
package errs

// 1xxx: Inbound Frame Decoding Errors
const (
	// ErrMalformedEnvelope indicates that a frame is not valid JSON or carries an unknown messageType.
	ErrMalformedEnvelope = 1001

	// ErrMalformedPayload indicates that the payload shape does not match the declared messageType.
	ErrMalformedPayload = 1002
)

// 2xxx: Outbound Send Errors
const (
	// ErrChannelClosed indicates that the transport has been closed and accepts no more frames.
	ErrChannelClosed = 2001

	// ErrChannelFull indicates that the transport send queue is full.
	ErrChannelFull = 2002

	// ErrRateLimitExceeded indicates that the local outbound message throttle rejected the send.
	ErrRateLimitExceeded = 2003

	// ErrEmptyMessage indicates that the submitted message is blank after trimming.
	ErrEmptyMessage = 2004

	// ErrSessionStopped indicates that the session loop is no longer running.
	ErrSessionStopped = 2005
)

// 3xxx: Bridge Request Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 3001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 3002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 3003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 3004

	// ErrRequestEntityTooLarge indicates that the request body exceeds the bridge limit.
	ErrRequestEntityTooLarge = 3005

	// ErrTooManyRequests indicates that the client exceeded the bridge request rate.
	ErrTooManyRequests = 3006
)

// 5xxx: Internal Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
