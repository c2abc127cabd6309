package pdf

import (
	"bytes"
	"fmt"
	"strings"
)

// O ByteRange é declarado com asteriscos e sobrescrito na assinatura com os
// valores reais, acolchoado com espaços para não mudar nenhum offset.
const byteRangePlaceholder = "/ByteRange [0 ********** ********** **********]"

// tamanho reservado (em dígitos hex) para o CMS dentro de /Contents. Precisa
// acomodar a cadeia de certificados inteira.
const tamanhoContents = 8192

// ReservarEspaco anexa ao PDF renderizado uma atualização incremental com o
// dicionário de assinatura: /ByteRange com placeholder e /Contents zerado. O
// renderizador (fora deste módulo) é responsável por referenciar o campo de
// assinatura no AcroForm; aqui só se reserva a região de bytes que a etapa de
// assinatura vai sobrescrever no lugar.
func ReservarEspaco(pdf []byte) ([]byte, error) {
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		return nil, fmt.Errorf("entrada não é um PDF")
	}
	// Idempotente: se o renderizador já declarou um placeholder zerado, o
	// buffer segue direto para a assinatura.
	if _, _, err := localizarContents(pdf); err == nil {
		return pdf, nil
	}

	objNum := bytes.Count(pdf, []byte(" obj")) + 1

	var b bytes.Buffer
	b.Write(pdf)
	if !bytes.HasSuffix(pdf, []byte("\n")) {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d 0 obj\n", objNum)
	b.WriteString("<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached ")
	b.WriteString(byteRangePlaceholder)
	b.WriteString(" /Contents <")
	b.WriteString(strings.Repeat("0", tamanhoContents))
	b.WriteString("> >>\nendobj\n")

	return b.Bytes(), nil
}
