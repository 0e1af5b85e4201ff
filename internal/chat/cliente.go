package chat

import (
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	tamanhoFila    = 64
)

// Cliente é uma conexão websocket de um usuário. Um usuário pode ter várias.
type Cliente struct {
	ID     string
	UserID uint
	Nome   string
	Role   models.Role

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func novoCliente(h *Hub, conn *websocket.Conn, userID uint, nome string, role models.Role) *Cliente {
	return &Cliente{
		ID:     uuid.NewString(),
		UserID: userID,
		Nome:   nome,
		Role:   role,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, tamanhoFila),
	}
}

// enfileirar não bloqueia; conexão lenta perde o evento.
// Chamado sempre com o lock do hub, o que impede envio em canal fechado.
func (c *Cliente) enfileirar(raw []byte) {
	select {
	case c.send <- raw:
	default:
		c.hub.Log.Warn("fila do chat cheia, evento descartado", zap.Uint("user_id", c.UserID))
	}
}

func (c *Cliente) readPump() {
	defer func() {
		c.hub.remover(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.Log.Warn("conexão de chat encerrada", zap.Uint("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		c.hub.tratar(c, raw)
	}
}

func (c *Cliente) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
