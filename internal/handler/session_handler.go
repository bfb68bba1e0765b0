/*
Package handler provides HTTP handler functions that read and drive the chat session.
*/
package handler

import (
	"context"
	"net/http"
	"time"

	"roomchat/internal/pkg/req"
	"roomchat/internal/pkg/resp"
)

// sessionCallTimeout bounds how long a request waits for the session loop.
const sessionCallTimeout = 5 * time.Second

type TextInput struct {
	// Text is the message body or the current content of the input box.
	Text string `json:"text"`
}

// HandleSnapshot returns the current session snapshot.
func HandleSnapshot(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), sessionCallTimeout)
		defer cancel()

		snap, err := deps.Session.Snapshot(ctx)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, snap)
	}
}

// HandleSubmitMessage sends the request text as a chat message.
func HandleSubmitMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input TextInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), sessionCallTimeout)
		defer cancel()

		if err := deps.Session.SubmitMessage(ctx, input.Text); err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleInputChanged records the current content of the presenter's input box.
func HandleInputChanged(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input TextInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), sessionCallTimeout)
		defer cancel()

		if err := deps.Session.InputChanged(ctx, input.Text); err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
