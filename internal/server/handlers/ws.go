package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tutorlab/liveboard/internal/server/hub"
	"github.com/tutorlab/liveboard/internal/validation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Клиенты доски живут на других origin (страница урока)
		return true
	},
}

// WSHandler handles websocket session connections
type WSHandler struct {
	logger *slog.Logger
	hub    *hub.Hub
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(logger *slog.Logger, h *hub.Hub) *WSHandler {
	return &WSHandler{
		logger: logger,
		hub:    h,
	}
}

// ServeWS обрабатывает GET /ws?session=<id>&role=<author|viewer>&client_id=<id>
// Поднимает websocket-соединение и подключает участника к комнате сессии
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		http.Error(w, "Invalid session parameter: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Роль обязана быть явной: single-writer контролируется сервером
	var role hub.Role
	switch r.URL.Query().Get("role") {
	case "author":
		role = hub.RoleAuthor
	case "viewer", "":
		role = hub.RoleViewer
	default:
		http.Error(w, "Invalid role parameter", http.StatusBadRequest)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed",
			"session_id", sessionID,
			"remote_addr", r.RemoteAddr,
			"error", err)
		return
	}

	client := hub.NewClient(h.hub, h.logger, conn, clientID, sessionID, role)
	client.Run(r.Context())
}
