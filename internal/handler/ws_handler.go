/*
Package handler provides the HTTP handler function for the snapshot stream.

This file contains HandleStream, which rate limits the request, upgrades it to a WebSocket
and attaches the connection to the stream hub.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/limiter"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

// HandleStream creates an HTTP HandlerFunc that subscribes WebSocket clients to session snapshots.
func HandleStream(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("Stream connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrTooManyRequests))
			return
		}

		if deps.Hub == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrSessionStopped))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("Stream subscriber connected", "remote_ip", ip)

		deps.Hub.Serve(conn)
	}
}
