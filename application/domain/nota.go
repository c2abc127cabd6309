package domain

import (
	"fmt"
	"time"
)

// StatusNota é o estado da nota no ciclo de emissão.
type StatusNota string

const (
	// StatusPendenteEnvio nota criada e numerada, ainda não confirmada.
	StatusPendenteEnvio StatusNota = "PENDENTE_ENVIO"
	// StatusAutorizada aceita pela prefeitura.
	StatusAutorizada StatusNota = "AUTORIZADA"
	// StatusRejeitada erro de negócio da prefeitura; terminal.
	StatusRejeitada StatusNota = "REJEITADA"
	// StatusFallbackLocal prefeitura inacessível; XML assinado retido
	// localmente, elegível para reenvio manual.
	StatusFallbackLocal StatusNota = "FALLBACK_LOCAL"
)

// Nota é o documento fiscal de serviço. O número sequencial é atribuído
// exatamente uma vez na emissão e nunca reutilizado, mesmo que o envio falhe
// depois; lacunas na numeração são aceitáveis, duplicatas não.
type Nota struct {
	ID                string
	Numero            int64
	CodigoVerificacao string
	TomadorNome       string
	TomadorCpfCnpj    string
	Discriminacao     string
	Valor             string
	EmitidaEm         time.Time
	Status            StatusNota
	XML               []byte
	XMLAssinado       []byte
	Protocolo         string
	MensagemErro      string
}

// PedidoEmissao são os campos transacionais que o chamador fornece para
// emitir uma nota. Numeração, código de verificação e timestamp são
// atribuídos pelo emissor.
type PedidoEmissao struct {
	TomadorNome    string
	TomadorCpfCnpj string
	Discriminacao  string
	Valor          string
}

// transicoes válidas do ciclo de vida. Notas nunca são excluídas; correção é
// uma nota nova referenciando a original.
var transicoes = map[StatusNota][]StatusNota{
	StatusPendenteEnvio: {StatusAutorizada, StatusRejeitada, StatusFallbackLocal},
	StatusFallbackLocal: {StatusAutorizada, StatusRejeitada},
}

// Transicionar muda o status da nota validando a transição.
func (n *Nota) Transicionar(destino StatusNota) error {
	for _, s := range transicoes[n.Status] {
		if s == destino {
			n.Status = destino
			return nil
		}
	}
	return fmt.Errorf("transição inválida de %s para %s", n.Status, destino)
}
