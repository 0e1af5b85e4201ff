package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
)

type ctxKey string

const CtxIdentidade ctxKey = "identidade"

// Identidade é quem fez a requisição, extraída do token.
type Identidade struct {
	UserID uint
	Role   models.Role
	Name   string
}

func ComIdentidade(ctx context.Context, id Identidade) context.Context {
	return context.WithValue(ctx, CtxIdentidade, id)
}

func IdentidadeDe(ctx context.Context) (Identidade, bool) {
	id, ok := ctx.Value(CtxIdentidade).(Identidade)
	return id, ok
}

// TokenBearer extrai o token do cabeçalho Authorization.
func TokenBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func (e *Emissor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		raw := TokenBearer(r)
		if raw == "" {
			utils.JSONMensagem(w, http.StatusUnauthorized, "Token ausente")
			return
		}
		claims, err := e.Validar(raw)
		if err != nil {
			utils.JSONMensagem(w, http.StatusUnauthorized, "Token inválido")
			return
		}
		ctx := ComIdentidade(r.Context(), Identidade{UserID: claims.UserID, Role: claims.Role, Name: claims.Name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
