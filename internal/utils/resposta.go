package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func JSONMensagem(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// LerJSON decodifica o corpo; corpo inválido vira 400.
func LerJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return Validacao("JSON inválido")
	}
	return nil
}

// LerJSONOpcional aceita corpo vazio.
func LerJSONOpcional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return Validacao("JSON inválido")
	}
	return nil
}
