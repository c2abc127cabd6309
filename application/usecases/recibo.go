package usecases

import (
	"errors"
	"fmt"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

// Recibo é o resultado da assinatura de um recibo PDF. Assinado=false sinaliza
// o modo degradado: o PDF original foi servido sem assinatura porque o
// certificado não pôde ser carregado.
type Recibo struct {
	Pdf      []byte
	Assinado bool
}

// Recibos assina PDFs de recibo já renderizados.
type Recibos struct {
	fabrica ports.FabricaAssinadores
}

func NewRecibos(fabrica ports.FabricaAssinadores) *Recibos {
	return &Recibos{fabrica: fabrica}
}

// AssinarRecibo aplica a assinatura CMS sobre o PDF renderizado. Se o
// certificado estiver ausente ou inválido, devolve o PDF original com a flag
// de não assinado: servir um recibo sem assinatura é uma escolha operacional
// deliberada e visível, diferente do XML fiscal, que nunca segue sem
// assinatura. Falhas criptográficas na assinatura em si continuam sendo erro.
func (r *Recibos) AssinarRecibo(pdfBytes []byte) (Recibo, error) {
	assinador, err := r.fabrica.AssinadorPDF()
	if err != nil {
		if errors.Is(err, domain.ErrConfiguracao) {
			logger.WithError(err).Warn("certificado indisponível; servindo recibo sem assinatura")
			return Recibo{Pdf: pdfBytes, Assinado: false}, nil
		}
		return Recibo{}, err
	}

	comEspaco, err := assinador.ReservarEspaco(pdfBytes)
	if err != nil {
		return Recibo{}, fmt.Errorf("reservar espaço de assinatura: %w", err)
	}
	assinado, err := assinador.Assinar(comEspaco)
	if err != nil {
		return Recibo{}, fmt.Errorf("%w: %v", domain.ErrAssinatura, err)
	}
	return Recibo{Pdf: assinado, Assinado: true}, nil
}
