package chat

import (
	"net/http"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	Hub      *Hub
	Emissor  *auth.Emissor
	Upgrader websocket.Upgrader
	Log      *zap.Logger
}

func NovoWSHandler(h *Hub, e *auth.Emissor, origens []string, log *zap.Logger) *WSHandler {
	return &WSHandler{
		Hub:     h,
		Emissor: e,
		Log:     log,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origemPermitida(origens),
		},
	}
}

func origemPermitida(origens []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origens {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeHTTP autentica o handshake (?token= ou Authorization: Bearer) antes do upgrade.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.TokenBearer(r)
	}
	if token == "" {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Authentication error")
		return
	}
	claims, err := h.Emissor.Validar(token)
	if err != nil {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Authentication error")
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("falha no upgrade do websocket", zap.Error(err))
		return
	}

	c := novoCliente(h.Hub, conn, claims.UserID, claims.Name, claims.Role)
	h.Hub.registrar(c)
	go c.writePump()
	c.readPump()
}
