/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct.
*/
package errs

import "net/http"

// errorMap stores the template CustomError for every application error code.
// Status is only meaningful for errors that reach the HTTP bridge.
var errorMap = map[int]CustomError{
	// 1xxx: Inbound Frame Decoding Errors
	ErrMalformedEnvelope: {Code: ErrMalformedEnvelope, Message: "Malformed envelope."},
	ErrMalformedPayload:  {Code: ErrMalformedPayload, Message: "Malformed payload."},

	// 2xxx: Outbound Send Errors
	ErrChannelClosed:     {Code: ErrChannelClosed, Message: "Connection closed. Message not sent.", Status: http.StatusServiceUnavailable},
	ErrChannelFull:       {Code: ErrChannelFull, Message: "Connection busy. Message not sent.", Status: http.StatusServiceUnavailable},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many messages. Please slow down.", Status: http.StatusTooManyRequests},
	ErrEmptyMessage:      {Code: ErrEmptyMessage, Message: "Message is empty."},
	ErrSessionStopped:    {Code: ErrSessionStopped, Message: "Chat session is not running.", Status: http.StatusServiceUnavailable},

	// 3xxx: Bridge Request Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request body is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrTooManyRequests:       {Code: ErrTooManyRequests, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 5xxx: Internal Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}

// Sentinels usable as errors.Is targets; matching is by Code.
var (
	MalformedEnvelope = &CustomError{Code: ErrMalformedEnvelope}
	MalformedPayload  = &CustomError{Code: ErrMalformedPayload}
	ChannelClosed     = &CustomError{Code: ErrChannelClosed}
	ChannelFull       = &CustomError{Code: ErrChannelFull}
	RateLimited       = &CustomError{Code: ErrRateLimitExceeded}
	EmptyMessage      = &CustomError{Code: ErrEmptyMessage}
	SessionStopped    = &CustomError{Code: ErrSessionStopped}
)
