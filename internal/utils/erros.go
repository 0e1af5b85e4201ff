package utils

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErroApp é um erro com status HTTP e mensagem segura para o cliente.
type ErroApp struct {
	Status   int
	Mensagem string
	Causa    error
}

func (e *ErroApp) Error() string {
	if e.Causa != nil {
		return e.Mensagem + ": " + e.Causa.Error()
	}
	return e.Mensagem
}

func (e *ErroApp) Unwrap() error { return e.Causa }

func Validacao(msg string) *ErroApp     { return &ErroApp{Status: http.StatusBadRequest, Mensagem: msg} }
func NaoAutenticado(msg string) *ErroApp { return &ErroApp{Status: http.StatusUnauthorized, Mensagem: msg} }
func Proibido(msg string) *ErroApp      { return &ErroApp{Status: http.StatusForbidden, Mensagem: msg} }
func NaoEncontrado(msg string) *ErroApp { return &ErroApp{Status: http.StatusNotFound, Mensagem: msg} }

// AcessoNegado é o 403 padrão de posse/papel.
func AcessoNegado() *ErroApp { return Proibido("Acesso negado.") }

// EscreverErro traduz o erro para a resposta HTTP.
// Erros não classificados são logados com stack e viram 500 genérico.
func EscreverErro(w http.ResponseWriter, log *zap.Logger, err error) {
	var appErr *ErroApp
	if errors.As(err, &appErr) {
		JSONMensagem(w, appErr.Status, appErr.Mensagem)
		return
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		JSONMensagem(w, http.StatusNotFound, "Registro não encontrado")
		return
	case errors.Is(err, gorm.ErrDuplicatedKey):
		JSONMensagem(w, http.StatusBadRequest, "Registro duplicado")
		return
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		JSONMensagem(w, http.StatusBadRequest, "Registro possui vínculos e não pode ser removido")
		return
	}
	if log != nil {
		log.Error("erro interno", zap.Error(err), zap.Stack("stack"))
	}
	JSONMensagem(w, http.StatusInternalServerError, "Erro interno do servidor")
}
