package certificado

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

// Erros distintos por causa ajudam o operador a diagnosticar o problema do
// container sem inspecionar logs de criptografia.
var (
	ErrSenhaIncorreta           = errors.New("senha do PKCS#12 incorreta")
	ErrContainerCorrompido      = errors.New("container PKCS#12 corrompido")
	ErrChaveNaoEncontrada       = errors.New("container PKCS#12 sem chave privada")
	ErrCertificadoNaoEncontrado = errors.New("container PKCS#12 sem certificado")
	ErrCertificadoExpirado      = errors.New("certificado fora da janela de validade")
)

// Material é o resultado em memória da abertura do container: chave privada,
// certificado folha e cadeia. Nunca é gravado em armazenamento persistente nem
// logado; o chamador descarta após o uso.
type Material struct {
	Chave       *rsa.PrivateKey
	Certificado *x509.Certificate
	Cadeia      []*x509.Certificate
}

// Carregar extrai chave e certificado de um container PKCS#12 protegido por
// senha. Rejeita distintamente containers sem bag de chave e sem bag de
// certificado.
func Carregar(p12 []byte, senha string) (*Material, error) {
	chave, cert, cadeia, err := pkcs12.DecodeChain(p12, senha)
	if err != nil {
		return nil, classificar(err)
	}

	rsaChave, ok := chave.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: apenas chaves RSA são suportadas", ErrChaveNaoEncontrada)
	}
	if cert == nil {
		return nil, ErrCertificadoNaoEncontrado
	}

	return &Material{Chave: rsaChave, Certificado: cert, Cadeia: cadeia}, nil
}

// ValidoEm verifica a janela de validade do certificado folha no instante da
// assinatura. Assinar com certificado expirado produziria um documento fiscal
// irrecuperável, então a emissão falha fechada.
func (m *Material) ValidoEm(t time.Time) error {
	if t.Before(m.Certificado.NotBefore) || t.After(m.Certificado.NotAfter) {
		return fmt.Errorf("%w: válido de %s a %s", ErrCertificadoExpirado,
			m.Certificado.NotBefore.Format(time.RFC3339),
			m.Certificado.NotAfter.Format(time.RFC3339))
	}
	return nil
}

func classificar(err error) error {
	if errors.Is(err, pkcs12.ErrIncorrectPassword) {
		return fmt.Errorf("%w: %v", ErrSenhaIncorreta, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "private key missing"):
		return fmt.Errorf("%w: %v", ErrChaveNaoEncontrada, err)
	case strings.Contains(msg, "certificate missing"):
		return fmt.Errorf("%w: %v", ErrCertificadoNaoEncontrado, err)
	default:
		return fmt.Errorf("%w: %v", ErrContainerCorrompido, err)
	}
}
