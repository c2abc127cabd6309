package pdf

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/digitorus/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfRenderizado = []byte("%PDF-1.4\n" +
	"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
	"2 0 obj\n<< /Type /Pages /Count 1 /Kids [3 0 R] >>\nendobj\n" +
	"3 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n" +
	"trailer\n<< /Root 1 0 R >>\n%%EOF\n")

func novoSigner(t *testing.T) *Signer {
	t.Helper()

	chave, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(9),
		Subject:      pkix.Name{CommonName: "FEITOSA SERVICOS LTDA"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &chave.PublicKey, chave)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return NewSigner(chave, cert, nil)
}

func TestAssinar_PreservaTamanhoEOffsets(t *testing.T) {
	signer := novoSigner(t)

	comEspaco, err := ReservarEspaco(pdfRenderizado)
	require.NoError(t, err)

	assinado, err := signer.Assinar(comEspaco)
	require.NoError(t, err)

	assert.Equal(t, len(comEspaco), len(assinado), "assinar não pode mudar o tamanho do arquivo")

	// Nenhum byte fora do dicionário de assinatura reservado muda.
	idxDict := bytes.LastIndex(comEspaco, []byte("/ByteRange"))
	require.Positive(t, idxDict)
	assert.Equal(t, comEspaco[:idxDict], assinado[:idxDict])

	idxAbre := bytes.LastIndex(comEspaco, []byte("/Contents <"))
	require.Positive(t, idxAbre)
	ini := idxAbre + len("/Contents <")
	fimContents := ini + bytes.IndexByte(comEspaco[ini:], '>')
	assert.Equal(t, comEspaco[fimContents:], assinado[fimContents:])
}

func TestAssinar_CMSVerificavel(t *testing.T) {
	signer := novoSigner(t)

	comEspaco, err := ReservarEspaco(pdfRenderizado)
	require.NoError(t, err)
	assinado, err := signer.Assinar(comEspaco)
	require.NoError(t, err)

	a, b, c, d := byteRangeDe(t, assinado)

	// reconstitui o conteúdo assinado e valida o CMS destacado
	conteudo := append([]byte{}, assinado[a:a+b]...)
	conteudo = append(conteudo, assinado[c:c+d]...)

	hexCMS := assinado[a+b+1 : c-1] // entre os delimitadores < e >
	der := make([]byte, hex.DecodedLen(len(hexCMS)))
	_, err = hex.Decode(der, hexCMS)
	require.NoError(t, err)
	der = der[:tamanhoDER(t, der)]

	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)
	p7.Content = conteudo
	assert.NoError(t, p7.Verify())
}

func TestAssinar_SemPlaceholder(t *testing.T) {
	signer := novoSigner(t)
	_, err := signer.Assinar(pdfRenderizado)
	assert.ErrorIs(t, err, ErrSemEspacoReservado)
}

func TestReservarEspaco_Idempotente(t *testing.T) {
	comEspaco, err := ReservarEspaco(pdfRenderizado)
	require.NoError(t, err)

	deNovo, err := ReservarEspaco(comEspaco)
	require.NoError(t, err)
	assert.Equal(t, comEspaco, deNovo)
}

func TestReservarEspaco_EntradaInvalida(t *testing.T) {
	_, err := ReservarEspaco([]byte("não é um PDF"))
	assert.Error(t, err)
}

func byteRangeDe(t *testing.T, pdf []byte) (a, b, c, d int) {
	t.Helper()
	idx := bytes.LastIndex(pdf, []byte("/ByteRange"))
	require.Positive(t, idx)
	abre := bytes.IndexByte(pdf[idx:], '[') + idx
	fecha := bytes.IndexByte(pdf[abre:], ']') + abre
	partes := strings.Fields(string(pdf[abre+1 : fecha]))
	require.Len(t, partes, 4)
	vals := make([]int, 4)
	for i, p := range partes {
		v, err := strconv.Atoi(p)
		require.NoError(t, err)
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], vals[3]
}

// tamanhoDER lê o cabeçalho da estrutura para descartar o padding de zeros que
// completa a região /Contents.
func tamanhoDER(t *testing.T, der []byte) int {
	t.Helper()
	require.GreaterOrEqual(t, len(der), 2)
	if der[1]&0x80 == 0 {
		return 2 + int(der[1])
	}
	n := int(der[1] & 0x7f)
	require.GreaterOrEqual(t, len(der), 2+n)
	l := 0
	for i := 0; i < n; i++ {
		l = l<<8 | int(der[2+i])
	}
	return 2 + n + l
}
