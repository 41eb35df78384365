package route

import (
	"net/http"

	"picturebridge/internal/config"
	"picturebridge/internal/handler"
	"picturebridge/internal/logger"
	"picturebridge/internal/middleware"
	"picturebridge/internal/repository"
	hub "picturebridge/internal/service/websocket"
)

// Services groups what the HTTP surface needs from the rest of the process.
type Services struct {
	Hub       *hub.HubService
	OnCommand hub.CommandHandler
	Pipeline  handler.PipelineStatus
	History   repository.CaptureRepository
	Logger    *logger.Logger
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(cfg *config.Config, s Services) http.Handler {
	mux := http.NewServeMux()

	// Browser socket
	mux.HandleFunc("/socket", handler.SocketHandler(s.Hub, s.OnCommand, s.Logger))

	// API endpoints
	mux.HandleFunc("/api/captures", handler.CapturesHandler(s.History, s.Logger))
	mux.HandleFunc("/api/captures/status",
		handler.CaptureStatusHandler(cfg.CaptureMode, s.Pipeline, s.Hub, s.History, s.Logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(s.Logger, logger.InfoFile))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(s.Logger, logger.WarningFile))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(s.Logger, logger.ErrorFile))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(s.Logger, logger.InfoFile))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(s.Logger, logger.WarningFile))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(s.Logger, logger.ErrorFile))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, s.Logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Web root, including captured pictures
	mux.Handle("/", http.FileServer(http.Dir(cfg.WebRoot)))

	return middleware.AuthMiddleware(cfg.Password)(mux)
}
