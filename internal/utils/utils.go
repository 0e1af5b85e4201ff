package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// GerarSenhaTemporaria gera uma senha aleatória segura com o tamanho informado.
func GerarSenhaTemporaria(length int) (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		result[i] = chars[num.Int64()]
	}
	return string(result), nil
}

// IDDaRota lê um parâmetro numérico da rota do mux.
func IDDaRota(vars map[string]string, nome string) (uint, error) {
	id, err := strconv.ParseUint(vars[nome], 10, 64)
	if err != nil || id == 0 {
		return 0, Validacao("ID inválido")
	}
	return uint(id), nil
}

// ID lê o parâmetro {id} da requisição.
func ID(vars map[string]string) (uint, error) { return IDDaRota(vars, "id") }

// IntervaloDeDatas converte startDate/endDate (YYYY-MM-DD) em limites de dias inteiros.
// O fim é exclusivo: endDate=2024-01-31 cobre até 2024-02-01 00:00.
func IntervaloDeDatas(startDate, endDate string, loc *time.Location) (inicio, fim *time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	if s := strings.TrimSpace(startDate); s != "" {
		t, perr := time.ParseInLocation("2006-01-02", s, loc)
		if perr != nil {
			return nil, nil, Validacao("startDate inválida, use o formato AAAA-MM-DD")
		}
		inicio = &t
	}
	if s := strings.TrimSpace(endDate); s != "" {
		t, perr := time.ParseInLocation("2006-01-02", s, loc)
		if perr != nil {
			return nil, nil, Validacao("endDate inválida, use o formato AAAA-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		fim = &t
	}
	return inicio, fim, nil
}

// UintOpcional lê um filtro numérico opcional da query string.
func UintOpcional(s string) (*uint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, Validacao("Filtro numérico inválido")
	}
	u := uint(v)
	return &u, nil
}
