package usecases

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
)

type fakeAssinadorPDF struct {
	errReservar error
	errAssinar  error
}

func (f *fakeAssinadorPDF) ReservarEspaco(pdf []byte) ([]byte, error) {
	if f.errReservar != nil {
		return nil, f.errReservar
	}
	return append(append([]byte{}, pdf...), []byte("[espaco]")...), nil
}

func (f *fakeAssinadorPDF) Assinar(pdf []byte) ([]byte, error) {
	if f.errAssinar != nil {
		return nil, f.errAssinar
	}
	return append(append([]byte{}, pdf...), []byte("[cms]")...), nil
}

func TestAssinarRecibo(t *testing.T) {
	recibos := NewRecibos(&fakeFabrica{pdf: &fakeAssinadorPDF{}})

	recibo, err := recibos.AssinarRecibo([]byte("%PDF-1.4 recibo"))
	require.NoError(t, err)
	assert.True(t, recibo.Assinado)
	assert.Contains(t, string(recibo.Pdf), "[cms]")
}

func TestAssinarRecibo_ModoDegradado(t *testing.T) {
	fabrica := &fakeFabrica{errPDF: fmt.Errorf("%w: arquivo PKCS#12 não encontrado", domain.ErrConfiguracao)}
	recibos := NewRecibos(fabrica)

	original := []byte("%PDF-1.4 recibo")
	recibo, err := recibos.AssinarRecibo(original)
	require.NoError(t, err, "certificado ausente degrada, não falha")
	assert.False(t, recibo.Assinado)
	assert.Equal(t, original, recibo.Pdf, "o PDF original é servido intocado")
}

func TestAssinarRecibo_FalhaCriptografica(t *testing.T) {
	fabrica := &fakeFabrica{pdf: &fakeAssinadorPDF{errAssinar: errors.New("espaço insuficiente")}}
	recibos := NewRecibos(fabrica)

	_, err := recibos.AssinarRecibo([]byte("%PDF-1.4 recibo"))
	assert.ErrorIs(t, err, domain.ErrAssinatura,
		"erro na assinatura em si não entra no modo degradado")
}
