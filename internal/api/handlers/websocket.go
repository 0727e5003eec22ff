package handlers

import (
	"net/http"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api/response"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/cantetik/hepsiemlak-todo-case/internal/websocket"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub      *websocket.Hub
	identity *service.IdentityService
	log      logging.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, identity *service.IdentityService, log logging.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		identity: identity,
		log:      log,
	}
}

// Handle upgrades a request carrying a currently valid access token in the
// token query parameter and streams the owner's todo events.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.Error(w, r, h.log, domain.ErrNoToken)
		return
	}

	user, err := h.identity.ValidateAccessToken(r.Context(), token)
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, user.Username)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
