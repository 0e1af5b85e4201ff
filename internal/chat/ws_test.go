package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type eventoLido struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ambienteWS struct {
	srv      *httptest.Server
	emissor  *auth.Emissor
	repo     *fakeRepo
	presenca *PresencaMemoria
}

func novoAmbienteWS(t *testing.T) *ambienteWS {
	t.Helper()
	repo := novoFakeRepo()
	presenca := NovaPresencaMemoria()
	hub := NovoHub(&Servico{Repository: repo}, presenca, nil, zap.NewNop())
	emissor := auth.NovoEmissorHMAC([]byte("segredo"), time.Hour)
	srv := httptest.NewServer(NovoWSHandler(hub, emissor, []string{"*"}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return &ambienteWS{srv: srv, emissor: emissor, repo: repo, presenca: presenca}
}

func (a *ambienteWS) conexoes(userID uint) int {
	a.presenca.mu.Lock()
	defer a.presenca.mu.Unlock()
	return len(a.presenca.conexoes[userID])
}

func (a *ambienteWS) conectar(t *testing.T, userID uint) *websocket.Conn {
	t.Helper()
	tok, err := a.emissor.Gerar(a.repo.users[userID])
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// esperar lê eventos até achar o nome pedido.
func esperar(t *testing.T, conn *websocket.Conn, nome string) json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev eventoLido
		require.NoError(t, conn.ReadJSON(&ev), "esperando %s", nome)
		if ev.Event == nome {
			return ev.Data
		}
	}
}

func TestWSRecusaTokenInvalido(t *testing.T) {
	a := novoAmbienteWS(t)
	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws?token=lixo"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(a.srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSAceitaBearer(t *testing.T) {
	a := novoAmbienteWS(t)
	tok, err := a.emissor.Gerar(a.repo.users[1])
	require.NoError(t, err)

	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(a.srv.URL, "http")+"/ws", h)
	require.NoError(t, err)
	defer conn.Close()

	var online []uint
	require.NoError(t, json.Unmarshal(esperar(t, conn, EventoUsuariosOnline), &online))
	assert.Equal(t, []uint{1}, online)
}

func TestWSPresencaEMensagens(t *testing.T) {
	a := novoAmbienteWS(t)

	admin := a.conectar(t, 1)
	esperar(t, admin, EventoUsuariosOnline)
	esperar(t, admin, EventoUsuarioOnline)

	parceiro := a.conectar(t, 10)
	var online []uint
	require.NoError(t, json.Unmarshal(esperar(t, parceiro, EventoUsuariosOnline), &online))
	assert.ElementsMatch(t, []uint{1, 10}, online)

	var p presencaData
	require.NoError(t, json.Unmarshal(esperar(t, admin, EventoUsuarioOnline), &p))
	assert.Equal(t, uint(10), p.UserID)

	// segunda aba do mesmo parceiro não gera novo user_online
	segunda := a.conectar(t, 10)
	esperar(t, segunda, EventoUsuariosOnline)

	require.NoError(t, parceiro.WriteJSON(map[string]any{
		"event": EventoEnviarMensagem,
		"data":  map[string]any{"receiverId": 1, "content": "  Olá, tudo bem?  "},
	}))

	var recebida models.Message
	require.NoError(t, json.Unmarshal(esperar(t, admin, EventoReceberMensagem), &recebida))
	assert.Equal(t, "Olá, tudo bem?", recebida.Content)
	assert.Equal(t, uint(10), recebida.SenderID)
	require.NotNil(t, recebida.Sender)
	assert.Equal(t, "Parceiro Um", recebida.Sender.Name)

	var enviada models.Message
	require.NoError(t, json.Unmarshal(esperar(t, parceiro, EventoMensagemEnviada), &enviada))
	assert.Equal(t, recebida.ID, enviada.ID)

	// parceiro não fala com consultor de outro
	require.NoError(t, parceiro.WriteJSON(map[string]any{
		"event": EventoEnviarMensagem,
		"data":  map[string]any{"receiverId": 21, "content": "oi"},
	}))
	var e erroData
	require.NoError(t, json.Unmarshal(esperar(t, parceiro, EventoErro), &e))
	assert.Equal(t, "Acesso negado.", e.Message)

	// fechar uma das abas não deixa o parceiro offline
	require.NoError(t, parceiro.Close())
	require.Eventually(t, func() bool { return a.conexoes(10) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, segunda.WriteJSON(map[string]any{
		"event": EventoEnviarMensagem,
		"data":  map[string]any{"receiverId": 1, "content": "ainda aqui"},
	}))
	_ = admin.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev eventoLido
		require.NoError(t, admin.ReadJSON(&ev))
		require.NotEqual(t, EventoUsuarioOffline, ev.Event)
		if ev.Event == EventoReceberMensagem {
			break
		}
	}

	// só fica offline quando a última conexão fecha
	require.NoError(t, segunda.Close())
	require.NoError(t, json.Unmarshal(esperar(t, admin, EventoUsuarioOffline), &p))
	assert.Equal(t, uint(10), p.UserID)
}

func TestWSMensagemInvalida(t *testing.T) {
	a := novoAmbienteWS(t)
	conn := a.conectar(t, 10)
	esperar(t, conn, EventoUsuariosOnline)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": EventoEnviarMensagem,
		"data":  map[string]any{"receiverId": 20, "content": "   "},
	}))
	var e erroData
	require.NoError(t, json.Unmarshal(esperar(t, conn, EventoErro), &e))
	assert.Equal(t, "Destinatário e conteúdo são obrigatórios", e.Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("não é json")))
	require.NoError(t, json.Unmarshal(esperar(t, conn, EventoErro), &e))
	assert.Equal(t, "Evento inválido", e.Message)
}

func TestOrigemPermitida(t *testing.T) {
	check := origemPermitida([]string{"https://parceiros.tirvu.com"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://parceiros.tirvu.com")
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://evil.com")
	assert.False(t, check(r))
}
