package pdf

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/digitorus/pkcs7"

	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

var (
	ErrSemEspacoReservado = errors.New("PDF sem espaço reservado para assinatura")
	ErrEspacoInsuficiente = errors.New("assinatura CMS maior que o espaço reservado")
	ErrByteRangeInvalido  = errors.New("declaração de /ByteRange inválida")
)

// Signer assina PDFs já renderizados com uma assinatura CMS destacada.
type Signer struct {
	chave  *rsa.PrivateKey
	cert   *x509.Certificate
	cadeia []*x509.Certificate
}

var _ ports.AssinadorPDF = (*Signer)(nil)

// NewSigner cria o assinador com o material extraído do PKCS#12.
func NewSigner(chave *rsa.PrivateKey, cert *x509.Certificate, cadeia []*x509.Certificate) *Signer {
	return &Signer{chave: chave, cert: cert, cadeia: cadeia}
}

// ReservarEspaco delega para a função do pacote; faz parte da porta para que o
// caso de uso prepare PDFs que ainda não têm dicionário de assinatura.
func (s *Signer) ReservarEspaco(pdf []byte) ([]byte, error) {
	return ReservarEspaco(pdf)
}

// Assinar é uma operação de patch, não de reserialização: calcula a assinatura
// CMS destacada sobre os dois intervalos de bytes que cercam o placeholder e
// sobrescreve o placeholder no lugar. O tamanho do arquivo e todos os demais
// offsets permanecem intactos, senão a tabela de referência cruzada do PDF
// ficaria inválida.
func (s *Signer) Assinar(pdf []byte) ([]byte, error) {
	saida := make([]byte, len(pdf))
	copy(saida, pdf)

	iniContents, fimContents, err := localizarContents(saida)
	if err != nil {
		return nil, err
	}

	a, b, c, d, err := resolverByteRange(saida, iniContents, fimContents)
	if err != nil {
		return nil, err
	}

	// Conteúdo assinado = bytes antes e depois do placeholder (com os
	// delimitadores < e > fora da assinatura, dentro do buraco).
	conteudo := make([]byte, 0, b+d)
	conteudo = append(conteudo, saida[a:a+b]...)
	conteudo = append(conteudo, saida[c:c+d]...)

	cms, err := s.assinarCMS(conteudo)
	if err != nil {
		return nil, err
	}

	hexCMS := make([]byte, hex.EncodedLen(len(cms)))
	hex.Encode(hexCMS, cms)
	if len(hexCMS) > fimContents-iniContents {
		return nil, fmt.Errorf("%w: %d > %d dígitos", ErrEspacoInsuficiente, len(hexCMS), fimContents-iniContents)
	}

	// Sobrescreve o placeholder; o restante da região permanece zerado para
	// que o tamanho do arquivo não mude.
	copy(saida[iniContents:], hexCMS)

	if len(saida) != len(pdf) {
		return nil, fmt.Errorf("tamanho do PDF alterado durante a assinatura: %d != %d", len(saida), len(pdf))
	}
	return saida, nil
}

func (s *Signer) assinarCMS(conteudo []byte) ([]byte, error) {
	signedData, err := pkcs7.NewSignedData(conteudo)
	if err != nil {
		return nil, fmt.Errorf("new signed data: %w", err)
	}
	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := signedData.AddSignerChain(s.cert, s.chave, s.cadeia, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("add signer chain: %w", err)
	}

	// O PDF exige assinatura destacada: o conteúdo não entra no CMS.
	signedData.Detach()

	return signedData.Finish()
}

// localizarContents encontra a região hex entre <...> do último /Contents.
func localizarContents(pdf []byte) (ini, fim int, err error) {
	idx := bytes.LastIndex(pdf, []byte("/Contents <"))
	if idx < 0 {
		return 0, 0, ErrSemEspacoReservado
	}
	ini = idx + len("/Contents <")
	rel := bytes.IndexByte(pdf[ini:], '>')
	if rel < 0 {
		return 0, 0, ErrSemEspacoReservado
	}
	fim = ini + rel
	for _, ch := range pdf[ini:fim] {
		if ch != '0' {
			return 0, 0, fmt.Errorf("%w: região /Contents não está zerada", ErrSemEspacoReservado)
		}
	}
	return ini, fim, nil
}

// resolverByteRange devolve os quatro valores [a b c d]. Se a declaração ainda
// contém o placeholder de asteriscos, os valores são calculados a partir da
// posição do /Contents e gravados no lugar, acolchoados com espaços para
// preservar o comprimento da declaração.
func resolverByteRange(pdf []byte, iniContents, fimContents int) (a, b, c, d int, err error) {
	idx := bytes.LastIndex(pdf, []byte("/ByteRange"))
	if idx < 0 {
		return 0, 0, 0, 0, ErrSemEspacoReservado
	}
	abre := bytes.IndexByte(pdf[idx:], '[')
	if abre < 0 {
		return 0, 0, 0, 0, ErrByteRangeInvalido
	}
	abre += idx
	fecha := bytes.IndexByte(pdf[abre:], ']')
	if fecha < 0 {
		return 0, 0, 0, 0, ErrByteRangeInvalido
	}
	fecha += abre

	decl := string(pdf[abre : fecha+1])
	if strings.ContainsRune(decl, '*') {
		// O buraco inclui os delimitadores < e > do literal hex.
		a = 0
		b = iniContents - 1
		c = fimContents + 1
		d = len(pdf) - c

		nova := fmt.Sprintf("[0 %d %d %d]", b, c, d)
		if len(nova) > len(decl) {
			return 0, 0, 0, 0, fmt.Errorf("%w: placeholder menor que os valores calculados", ErrByteRangeInvalido)
		}
		nova += strings.Repeat(" ", len(decl)-len(nova))
		copy(pdf[abre:], nova)
		return a, b, c, d, nil
	}

	partes := strings.Fields(strings.Trim(decl, "[]"))
	if len(partes) != 4 {
		return 0, 0, 0, 0, ErrByteRangeInvalido
	}
	vals := make([]int, 4)
	for i, p := range partes {
		v, convErr := strconv.Atoi(p)
		if convErr != nil || v < 0 {
			return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrByteRangeInvalido, decl)
		}
		vals[i] = v
	}
	a, b, c, d = vals[0], vals[1], vals[2], vals[3]
	if a+b > len(pdf) || c+d > len(pdf) || c < a+b {
		return 0, 0, 0, 0, fmt.Errorf("%w: intervalo fora do arquivo", ErrByteRangeInvalido)
	}
	return a, b, c, d, nil
}
