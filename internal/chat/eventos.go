package chat

import "encoding/json"

// Eventos trocados no websocket, no envelope {"event": ..., "data": ...}.
const (
	EventoEnviarMensagem  = "send_message"
	EventoReceberMensagem = "receive_message"
	EventoMensagemEnviada = "message_sent"
	EventoUsuarioOnline   = "user_online"
	EventoUsuarioOffline  = "user_offline"
	EventoUsuariosOnline  = "online_users"
	EventoErro            = "error"
)

type Evento struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type eventoRecebido struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type enviarMensagem struct {
	ReceiverID uint   `json:"receiverId"`
	Content    string `json:"content"`
}

type presencaData struct {
	UserID uint `json:"userId"`
}

type erroData struct {
	Message string `json:"message"`
}
