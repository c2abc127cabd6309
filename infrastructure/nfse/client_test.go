package nfse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

func TestEnviarNota_Autorizada(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`<GerarNfseResposta><ListaNfse><CompNfse><Nfse><InfNfse><Numero>1</Numero><CodigoVerificacao>X1</CodigoVerificacao></InfNfse></Nfse></CompNfse><Protocolo>P1</Protocolo></ListaNfse></GerarNfseResposta>`))
	}))
	defer srv.Close()

	cliente := NewCliente(Ambiente(srv.URL), time.Second)
	resposta, err := cliente.EnviarNota(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	autorizada, ok := resposta.(ports.Autorizada)
	require.True(t, ok)
	assert.Equal(t, "P1", autorizada.Protocolo)
}

func TestEnviarNota_ErroDoServidor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cliente := NewCliente(Ambiente(srv.URL), time.Second)
	_, err := cliente.EnviarNota(context.Background(), []byte("<xml/>"))
	assert.ErrorIs(t, err, domain.ErrIndisponivel)
}

func TestEnviarNota_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cliente := NewCliente(Ambiente(srv.URL), 20*time.Millisecond)
	_, err := cliente.EnviarNota(context.Background(), []byte("<xml/>"))
	assert.ErrorIs(t, err, domain.ErrIndisponivel)
}

func TestEnviarNota_ServidorInacessivel(t *testing.T) {
	// porta reservada sem listener
	cliente := NewCliente(Ambiente("http://127.0.0.1:1"), time.Second)
	_, err := cliente.EnviarNota(context.Background(), []byte("<xml/>"))
	assert.ErrorIs(t, err, domain.ErrIndisponivel)
}
