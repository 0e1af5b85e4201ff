package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/metrics"
	"github.com/Tirvu/api-parceiros/internal/models"
	"go.uber.org/zap"
)

const tempoOperacao = 5 * time.Second

// Hub guarda as conexões desta instância agrupadas por usuário (a "sala" user_<id>).
// Com Broker, toda entrega passa pela assinatura, inclusive a local.
type Hub struct {
	Servico  *Servico
	Presenca Presenca
	Broker   Broker
	Log      *zap.Logger

	mu    sync.RWMutex
	salas map[uint]map[*Cliente]struct{}
}

func NovoHub(s *Servico, p Presenca, b Broker, log *zap.Logger) *Hub {
	if p == nil {
		p = NovaPresencaMemoria()
	}
	return &Hub{Servico: s, Presenca: p, Broker: b, Log: log, salas: map[uint]map[*Cliente]struct{}{}}
}

// Rodar consome o broker até o contexto acabar. Sem broker apenas espera.
func (h *Hub) Rodar(ctx context.Context) error {
	if h.Broker == nil {
		<-ctx.Done()
		return nil
	}
	return h.Broker.Assinar(ctx, func(env Envelope) {
		h.entregar(env.Para, env.Payload)
	})
}

func (h *Hub) registrar(c *Cliente) {
	h.mu.Lock()
	sala, ok := h.salas[c.UserID]
	if !ok {
		sala = map[*Cliente]struct{}{}
		h.salas[c.UserID] = sala
	}
	sala[c] = struct{}{}
	metrics.ChatOnlineUsers.Set(float64(len(h.salas)))
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), tempoOperacao)
	defer cancel()

	primeira, err := h.Presenca.Conectar(ctx, c.UserID, c.ID)
	if err != nil {
		h.Log.Error("falha ao registrar presença", zap.Uint("user_id", c.UserID), zap.Error(err))
	}

	online, err := h.Presenca.Online(ctx)
	if err != nil {
		h.Log.Error("falha ao listar usuários online", zap.Error(err))
	}
	if online == nil {
		online = []uint{}
	}
	h.enviarPara(c, Evento{Event: EventoUsuariosOnline, Data: online})

	if primeira {
		h.emitir(nil, Evento{Event: EventoUsuarioOnline, Data: presencaData{UserID: c.UserID}})
	}
	h.Log.Info("chat conectado", zap.Uint("user_id", c.UserID), zap.String("conn", c.ID))
}

func (h *Hub) remover(c *Cliente) {
	h.mu.Lock()
	sala, ok := h.salas[c.UserID]
	if ok {
		if _, presente := sala[c]; presente {
			delete(sala, c)
			close(c.send)
		} else {
			ok = false
		}
		if len(sala) == 0 {
			delete(h.salas, c.UserID)
		}
	}
	metrics.ChatOnlineUsers.Set(float64(len(h.salas)))
	h.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tempoOperacao)
	defer cancel()
	ultima, err := h.Presenca.Desconectar(ctx, c.UserID, c.ID)
	if err != nil {
		h.Log.Error("falha ao remover presença", zap.Uint("user_id", c.UserID), zap.Error(err))
	}
	if ultima {
		h.emitir(nil, Evento{Event: EventoUsuarioOffline, Data: presencaData{UserID: c.UserID}})
	}
	h.Log.Info("chat desconectado", zap.Uint("user_id", c.UserID), zap.String("conn", c.ID))
}

// emitir manda o evento para a sala do usuário, ou para todos quando para é nil.
func (h *Hub) emitir(para *uint, ev Evento) {
	raw, err := json.Marshal(ev)
	if err != nil {
		h.Log.Error("falha ao serializar evento", zap.String("event", ev.Event), zap.Error(err))
		return
	}
	if h.Broker == nil {
		h.entregar(para, raw)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tempoOperacao)
	defer cancel()
	if err := h.Broker.Publicar(ctx, Envelope{Para: para, Payload: raw}); err != nil {
		h.Log.Error("falha ao publicar evento", zap.String("event", ev.Event), zap.Error(err))
	}
}

func (h *Hub) entregar(para *uint, raw []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if para != nil {
		for c := range h.salas[*para] {
			c.enfileirar(raw)
		}
		return
	}
	for _, sala := range h.salas {
		for c := range sala {
			c.enfileirar(raw)
		}
	}
}

// enviarPara responde só a uma conexão, sem passar pelo broker.
func (h *Hub) enviarPara(c *Cliente, ev Evento) {
	raw, err := json.Marshal(ev)
	if err != nil {
		h.Log.Error("falha ao serializar evento", zap.String("event", ev.Event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.salas[c.UserID][c]; ok {
		c.enfileirar(raw)
	}
}

func (h *Hub) erro(c *Cliente, msg string) {
	h.enviarPara(c, Evento{Event: EventoErro, Data: erroData{Message: msg}})
}

func (h *Hub) tratar(c *Cliente, raw []byte) {
	var in eventoRecebido
	if err := json.Unmarshal(raw, &in); err != nil {
		h.erro(c, "Evento inválido")
		return
	}

	switch in.Event {
	case EventoEnviarMensagem:
		h.enviarMensagem(c, in.Data)
	default:
		h.erro(c, "Evento desconhecido")
	}
}

func (h *Hub) enviarMensagem(c *Cliente, data json.RawMessage) {
	var req enviarMensagem
	if err := json.Unmarshal(data, &req); err != nil {
		h.erro(c, "Dados da mensagem inválidos")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.ReceiverID == 0 || req.Content == "" {
		h.erro(c, "Destinatário e conteúdo são obrigatórios")
		return
	}

	ident := auth.Identidade{UserID: c.UserID, Role: c.Role, Name: c.Nome}
	ok, err := h.Servico.PodeConversar(ident, req.ReceiverID)
	if err != nil {
		h.Log.Error("falha ao validar contato", zap.Error(err))
		h.erro(c, "Erro ao enviar mensagem")
		return
	}
	if !ok {
		h.erro(c, "Acesso negado.")
		return
	}

	msg := &models.Message{SenderID: c.UserID, ReceiverID: req.ReceiverID, Content: req.Content}
	if err := h.Servico.Repository.Criar(h.Servico.DB, msg); err != nil {
		h.Log.Error("falha ao gravar mensagem", zap.Error(err))
		h.erro(c, "Erro ao enviar mensagem")
		return
	}
	metrics.ChatMessages.Inc()

	destino := req.ReceiverID
	h.emitir(&destino, Evento{Event: EventoReceberMensagem, Data: msg})
	h.enviarPara(c, Evento{Event: EventoMensagemEnviada, Data: msg})
}
