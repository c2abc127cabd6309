package nfse

import (
	"encoding/xml"

	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

// gerarNfseResposta é o esquema tipado da resposta do webservice. O parse
// tipado substitui extração por expressão regular: uma forma de resposta
// inesperada vira o caso Malformada, nunca um campo vazio silencioso.
type gerarNfseResposta struct {
	XMLName   xml.Name `xml:"GerarNfseResposta"`
	ListaNfse *struct {
		CompNfse struct {
			Nfse struct {
				InfNfse struct {
					Numero            string `xml:"Numero"`
					CodigoVerificacao string `xml:"CodigoVerificacao"`
					DataEmissao       string `xml:"DataEmissao"`
				} `xml:"InfNfse"`
			} `xml:"Nfse"`
		} `xml:"CompNfse"`
		Protocolo string `xml:"Protocolo"`
	} `xml:"ListaNfse"`
	ListaMensagemRetorno *struct {
		Mensagens []mensagemRetorno `xml:"MensagemRetorno"`
	} `xml:"ListaMensagemRetorno"`
}

type mensagemRetorno struct {
	Codigo   string `xml:"Codigo"`
	Mensagem string `xml:"Mensagem"`
	Correcao string `xml:"Correcao"`
}

// ParseResposta classifica o corpo da resposta em uma das variantes tipadas.
func ParseResposta(corpo []byte) ports.RespostaPrefeitura {
	var resp gerarNfseResposta
	if err := xml.Unmarshal(corpo, &resp); err != nil {
		return ports.Malformada{Corpo: corpo}
	}

	if resp.ListaNfse != nil {
		inf := resp.ListaNfse.CompNfse.Nfse.InfNfse
		if inf.Numero != "" && inf.CodigoVerificacao != "" {
			return ports.Autorizada{
				NumeroNfse:        inf.Numero,
				CodigoVerificacao: inf.CodigoVerificacao,
				Protocolo:         resp.ListaNfse.Protocolo,
			}
		}
	}

	if resp.ListaMensagemRetorno != nil && len(resp.ListaMensagemRetorno.Mensagens) > 0 {
		m := resp.ListaMensagemRetorno.Mensagens[0]
		if m.Codigo != "" {
			return ports.Rejeitada{Codigo: m.Codigo, Mensagem: m.Mensagem}
		}
	}

	return ports.Malformada{Corpo: corpo}
}
