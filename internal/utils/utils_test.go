package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGerarSenhaTemporaria(t *testing.T) {
	a, err := GerarSenhaTemporaria(8)
	require.NoError(t, err)
	b, err := GerarSenhaTemporaria(8)
	require.NoError(t, err)

	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestSenhaHashECheck(t *testing.T) {
	hash, err := HashSenha("segredo")
	require.NoError(t, err)
	assert.True(t, CheckSenha(hash, "segredo"))
	assert.False(t, CheckSenha(hash, "outra"))
}

func TestIntervaloDeDatasCobreDiaInteiro(t *testing.T) {
	ini, fim, err := IntervaloDeDatas("2024-01-01", "2024-01-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *ini)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *fim)

	_, _, err = IntervaloDeDatas("01/01/2024", "", time.UTC)
	assert.Error(t, err)
}

func TestEscreverErro(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{Validacao("Nome é obrigatório"), http.StatusBadRequest, "Nome é obrigatório"},
		{AcessoNegado(), http.StatusForbidden, "Acesso negado."},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "Registro não encontrado"},
		{errors.New("boom"), http.StatusInternalServerError, "Erro interno do servidor"},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		EscreverErro(rr, nil, c.err)
		assert.Equal(t, c.status, rr.Code)
		assert.JSONEq(t, `{"message":"`+c.msg+`"}`, rr.Body.String())
	}
}

func TestUintOpcional(t *testing.T) {
	v, err := UintOpcional("12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), *v)

	v, err = UintOpcional("all")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = UintOpcional("x")
	assert.Error(t, err)
}
