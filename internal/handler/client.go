package handler

import (
	"net/http"

	"picturebridge/internal/logger"
	hub "picturebridge/internal/service/websocket"

	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SocketServer owns upgraded browser connections.
type SocketServer interface {
	Serve(conn *websocket.Conn, onCommand hub.CommandHandler)
}

// SocketHandler upgrades /socket requests and hands the connection to the
// hub. Commands read from the socket are passed to onCommand.
func SocketHandler(server SocketServer, onCommand hub.CommandHandler, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		logger.Info("Client connected from %s", r.RemoteAddr)
		server.Serve(connection, onCommand)
		logger.Info("Client from %s disconnected", r.RemoteAddr)
	}
}
