/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for upgrading the
HTTP connection to WebSocket and initiating the connection lifecycle against the chat
engine. Per-IP connect rate limiting runs as route middleware before this handler.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(engine *chat.Engine, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		conn := newWSConn(sock, ip, engine)
		engine.Connected(conn)

		go conn.WritePump()

		logx.Info("WebSocket connection established", "conn_id", conn.ID(), "ip", ip)

		conn.ReadPump()
	}
}
