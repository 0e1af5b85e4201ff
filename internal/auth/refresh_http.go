package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	RefreshCookie = "rt"
	refreshPath   = "/api/auth"
)

func genRaw() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashRaw(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// Em localhost precisa ser Secure=false; em produção COOKIE_SECURE=true.
func (h *Handler) setRTCookie(w http.ResponseWriter, raw string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     refreshPath,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (h *Handler) clearRTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     refreshPath,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// emitirTokens gera o access token e grava um refresh token novo na família.
func (h *Handler) emitirTokens(w http.ResponseWriter, u models.User, familia string) (string, error) {
	access, err := h.Emissor.Gerar(u)
	if err != nil {
		return "", err
	}
	raw, err := genRaw()
	if err != nil {
		return "", err
	}
	if familia == "" {
		familia = fmt.Sprintf("fam-%d-%d", u.ID, h.agora().UnixNano())
	}
	rt := RefreshToken{
		UserID:    u.ID,
		FamilyID:  familia,
		Hash:      hashRaw(raw),
		ExpiresAt: h.agora().Add(h.RefreshTTL),
	}
	if err := h.Repository.SalvarRefresh(h.DB, &rt); err != nil {
		return "", err
	}
	h.setRTCookie(w, raw, rt.ExpiresAt)
	return access, nil
}

// POST /api/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Sessão ausente")
		return
	}
	hash := hashRaw(c.Value)

	cur, err := h.Repository.BuscarRefresh(h.DB, hash)
	if err != nil {
		h.clearRTCookie(w)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONMensagem(w, http.StatusUnauthorized, "Sessão inválida")
			return
		}
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if cur.RevokedAt != nil || h.agora().After(cur.ExpiresAt) {
		h.clearRTCookie(w)
		utils.JSONMensagem(w, http.StatusUnauthorized, "Sessão expirada")
		return
	}

	// o papel pode ter mudado desde o login
	u, err := h.Repository.BuscarPorID(h.DB, cur.UserID)
	if err != nil {
		h.clearRTCookie(w)
		utils.JSONMensagem(w, http.StatusUnauthorized, "Sessão inválida")
		return
	}

	if err := h.Repository.RevogarRefresh(h.DB, hash, h.agora()); err != nil {
		h.Log.Warn("falha ao revogar refresh token", zap.Error(err))
	}

	access, err := h.emitirTokens(w, *u, cur.FamilyID)
	if err != nil {
		h.clearRTCookie(w)
		utils.EscreverErro(w, h.Log, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"token":     access,
		"tokenType": "Bearer",
		"expiresIn": int(h.Emissor.TTL().Seconds()),
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		if err := h.Repository.RevogarRefresh(h.DB, hashRaw(c.Value), h.agora()); err != nil {
			h.Log.Warn("falha ao revogar refresh token", zap.Error(err))
		}
	}
	h.clearRTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
