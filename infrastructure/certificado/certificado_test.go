package certificado

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"
)

func novoContainer(t *testing.T, senha string) []byte {
	t.Helper()

	chave, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "FEITOSA SERVICOS LTDA"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &chave.PublicKey, chave)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	p12, err := pkcs12.Modern.Encode(chave, cert, nil, senha)
	require.NoError(t, err)
	return p12
}

func TestCarregar(t *testing.T) {
	p12 := novoContainer(t, "segredo")

	material, err := Carregar(p12, "segredo")
	require.NoError(t, err)
	assert.NotNil(t, material.Chave)
	assert.Equal(t, "FEITOSA SERVICOS LTDA", material.Certificado.Subject.CommonName)
}

func TestCarregar_SenhaErrada(t *testing.T) {
	p12 := novoContainer(t, "segredo")

	_, err := Carregar(p12, "errada")
	assert.ErrorIs(t, err, ErrSenhaIncorreta)
	assert.NotErrorIs(t, err, ErrContainerCorrompido)
}

func TestCarregar_ContainerCorrompido(t *testing.T) {
	_, err := Carregar([]byte("isto não é um PKCS#12"), "segredo")
	assert.ErrorIs(t, err, ErrContainerCorrompido)
	assert.NotErrorIs(t, err, ErrSenhaIncorreta)
}

func TestValidoEm(t *testing.T) {
	p12 := novoContainer(t, "segredo")
	material, err := Carregar(p12, "segredo")
	require.NoError(t, err)

	assert.NoError(t, material.ValidoEm(time.Now()))
	assert.ErrorIs(t, material.ValidoEm(time.Now().Add(48*time.Hour)), ErrCertificadoExpirado)
	assert.ErrorIs(t, material.ValidoEm(time.Now().Add(-48*time.Hour)), ErrCertificadoExpirado)
}
