package xmldsig

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"

	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

// Namespaces e algoritmos fixos da assinatura. O esquema da prefeitura exige
// RSA-SHA256 com canonicalização exclusiva.
const (
	nsXMLDSig        = "http://www.w3.org/2000/09/xmldsig#"
	algC14NExclusivo = "http://www.w3.org/2001/10/xml-exc-c14n#"
	algEnveloped     = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	algRSASHA256     = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	algSHA256        = "http://www.w3.org/2001/04/xmlenc#sha256"
)

var (
	ErrElementoNaoEncontrado = errors.New("elemento alvo da assinatura não encontrado")
	ErrAssinaturaInvalida    = errors.New("assinatura inválida")
)

// Signer mantém a chave privada e certificado usados para assinar/verificar.
type Signer struct {
	privKey *rsa.PrivateKey
	cert    *x509.Certificate
}

var _ ports.AssinadorXML = (*Signer)(nil)

// NewSigner cria um Signer a partir do material já extraído do PKCS#12.
func NewSigner(privKey *rsa.PrivateKey, cert *x509.Certificate) *Signer {
	return &Signer{privKey: privKey, cert: cert}
}
