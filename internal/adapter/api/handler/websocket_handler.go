package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "trueka/internal/infrastructure/websocket"
	"trueka/internal/usecase"
	"trueka/pkg/errors"
)

type WebSocketHandler struct {
	hub  *ws.Hub
	auth *usecase.AuthUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production deployments
	},
}

func NewWebSocketHandler(hub *ws.Hub, auth *usecase.AuthUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		hub:  hub,
		auth: auth,
	}
}

// HandleWebSocket upgrades the connection and registers it with the hub.
// Identity is optional: a token may arrive via the query string or the
// Authorization header, and an unresolvable token just means an anonymous
// connection.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		if header := c.Request().Header.Get("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
			token = header[7:]
		}
	}
	identity := h.auth.Resolve(c.Request().Context(), token)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(conn)
	client.Bind(identity)
	h.hub.Register(client)

	go client.ReadPump(h.hub)
	go client.WritePump()

	return nil
}
