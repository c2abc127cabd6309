package certificado

import (
	"fmt"
	"time"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/pdf"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/xmldsig"
)

// Fabrica constrói assinadores abrindo o container PKCS#12 a cada operação.
// O custo extra de decodificar por operação elimina qualquer janela em que a
// chave decifrada fique em memória compartilhada além do escopo de uma
// assinatura.
type Fabrica struct {
	p12   []byte
	senha string
	agora func() time.Time
}

var _ ports.FabricaAssinadores = (*Fabrica)(nil)

func NewFabrica(p12 []byte, senha string) *Fabrica {
	return &Fabrica{p12: p12, senha: senha, agora: time.Now}
}

// material abre o container e falha fechado se o certificado estiver fora da
// janela de validade no instante da assinatura.
func (f *Fabrica) material() (*Material, error) {
	if len(f.p12) == 0 {
		return nil, fmt.Errorf("%w: certificado PKCS#12 não configurado", domain.ErrConfiguracao)
	}
	m, err := Carregar(f.p12, f.senha)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguracao, err)
	}
	if err := m.ValidoEm(f.agora()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguracao, err)
	}
	return m, nil
}

func (f *Fabrica) AssinadorXML() (ports.AssinadorXML, error) {
	m, err := f.material()
	if err != nil {
		return nil, err
	}
	return xmldsig.NewSigner(m.Chave, m.Certificado), nil
}

func (f *Fabrica) AssinadorPDF() (ports.AssinadorPDF, error) {
	m, err := f.material()
	if err != nil {
		return nil, err
	}
	return pdf.NewSigner(m.Chave, m.Certificado, m.Cadeia), nil
}
