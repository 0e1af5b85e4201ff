package utils

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// StatusWriter guarda o status escrito pelo handler para logs e métricas.
type StatusWriter struct {
	http.ResponseWriter
	Status int
}

func NovoStatusWriter(w http.ResponseWriter) *StatusWriter {
	return &StatusWriter{ResponseWriter: w, Status: http.StatusOK}
}

func (w *StatusWriter) WriteHeader(code int) {
	w.Status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack é necessário para o upgrade do websocket passar pelos middlewares.
func (w *StatusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer não suporta hijack")
	}
	w.Status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *StatusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
