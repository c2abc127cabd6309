package pix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Limites de tamanho do BR Code. Nome e cidade são truncados no teto (um nome
// truncado não invalida o payload); chave e txid truncados invalidariam, então
// estouram em erro antes da codificação.
const (
	maxNome   = 25
	maxCidade = 15
	maxChave  = 77
	maxTxid   = 25
)

const guiPix = "br.gov.bcb.pix"

var (
	ErrCampoMuitoLongo = errors.New("campo excede o tamanho máximo do BR Code")
	ErrValorInvalido   = errors.New("valor da cobrança inválido")
)

// Cobranca descreve um pagamento apresentado pelo recebedor.
type Cobranca struct {
	Chave    string
	Nome     string
	Cidade   string
	Txid     string
	Valor    string // opcional; decimal com ponto, sem símbolo de moeda
	UnicoUso bool   // true = cobrança de apresentação única (método 12)
}

// Montar codifica a cobrança no formato TLV do BR Code / EMV QR e anexa o
// CRC-16. Cada campo é ID(2 dígitos) + TAMANHO(2 dígitos decimais, em bytes do
// valor) + VALOR; o bloco da conta do recebedor (26) é ele próprio uma
// sequência TLV aninhada. A saída é texto puro, consumível por QR ou
// copia-e-cola no app bancário.
func Montar(c Cobranca) (string, error) {
	if err := validarASCII("chave", c.Chave); err != nil {
		return "", err
	}
	if len(c.Chave) == 0 || len(c.Chave) > maxChave {
		return "", fmt.Errorf("%w: chave com %d bytes (máximo %d)", ErrCampoMuitoLongo, len(c.Chave), maxChave)
	}
	txid := c.Txid
	if txid == "" {
		txid = "***"
	}
	if err := validarASCII("txid", txid); err != nil {
		return "", err
	}
	if len(txid) > maxTxid {
		return "", fmt.Errorf("%w: txid com %d bytes (máximo %d)", ErrCampoMuitoLongo, len(txid), maxTxid)
	}

	nome := normalizar(c.Nome, maxNome)
	cidade := normalizar(c.Cidade, maxCidade)
	if nome == "" || cidade == "" {
		return "", fmt.Errorf("%w: nome e cidade do recebedor são obrigatórios", ErrValorInvalido)
	}

	var b strings.Builder
	b.WriteString(campo("00", "01")) // payload format indicator
	if c.UnicoUso {
		b.WriteString(campo("01", "12"))
	} else {
		b.WriteString(campo("01", "11"))
	}
	b.WriteString(campo("26", campo("00", guiPix)+campo("01", c.Chave)))
	b.WriteString(campo("52", "0000")) // merchant category code
	b.WriteString(campo("53", "986"))  // BRL
	if c.Valor != "" {
		valor, err := decimal.NewFromString(c.Valor)
		if err != nil || !valor.IsPositive() {
			return "", fmt.Errorf("%w: %q", ErrValorInvalido, c.Valor)
		}
		b.WriteString(campo("54", valor.StringFixed(2)))
	}
	b.WriteString(campo("58", "BR"))
	b.WriteString(campo("59", nome))
	b.WriteString(campo("60", cidade))
	b.WriteString(campo("62", campo("05", txid)))

	// O CRC cobre todo o payload mais o cabeçalho do próprio campo de CRC.
	b.WriteString("6304")
	crc := Checksum([]byte(b.String()))
	return fmt.Sprintf("%s%04X", b.String(), crc), nil
}

// campo codifica um TLV: o tamanho é a contagem de bytes do valor.
func campo(id, valor string) string {
	return fmt.Sprintf("%s%02d%s", id, len(valor), valor)
}

func validarASCII(nome, v string) error {
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 || v[i] > 0x7e {
			return fmt.Errorf("%w: %s contém byte não ASCII", ErrValorInvalido, nome)
		}
	}
	return nil
}

// normalizar converte para maiúsculas ASCII (acentos comuns do português são
// transliterados) e trunca no teto de tamanho do campo.
func normalizar(s string, max int) string {
	s = acentos.Replace(strings.ToUpper(strings.TrimSpace(s)))
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > max {
		out = out[:max]
	}
	return out
}

var acentos = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A",
	"É", "E", "Ê", "E",
	"Í", "I",
	"Ó", "O", "Ô", "O", "Õ", "O",
	"Ú", "U", "Ü", "U",
	"Ç", "C",
)
