package handler

import (
	"context"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/stream"
	"roomchat/internal/configs"
)

// Session is the part of chat.Session the bridge drives.
type Session interface {
	Snapshot(ctx context.Context) (chat.Snapshot, error)
	SubmitMessage(ctx context.Context, text string) error
	InputChanged(ctx context.Context, text string) error
}

type AppDeps struct {
	Session Session
	Hub     *stream.Hub
	Config  *configs.AppConfig
}
