package nfse

import (
	"fmt"
	"regexp"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

const nsABRASF = "http://www.abrasf.org.br/nfse.xsd"

// Prestador é o bloco fixo de registro do emissor, vindo da configuração.
type Prestador struct {
	Cnpj               string
	InscricaoMunicipal string
	RazaoSocial        string
	CodigoMunicipio    string
	ItemListaServico   string
	Aliquota           string
}

// Montador expande pedidos de emissão no XML do RPS. Montagem pura: nenhum
// trabalho de rede ou criptografia acontece aqui, para que erros de aderência
// ao esquema e erros de assinatura sejam diagnosticados separadamente.
type Montador struct {
	Prestador Prestador
	Serie     string
}

var _ ports.MontadorRps = Montador{}

var soDigitos = regexp.MustCompile(`^[0-9]+$`)

// Validar rejeita campos malformados antes de qualquer alocação de número.
// O CPF/CNPJ do tomador precisa ter 11 dígitos (pessoa física) ou 14
// (pessoa jurídica); qualquer outra contagem é erro de validação.
func (m Montador) Validar(p domain.PedidoEmissao) error {
	if p.TomadorNome == "" || p.Discriminacao == "" {
		return fmt.Errorf("%w: tomador e discriminação são obrigatórios", domain.ErrValidacao)
	}
	if !soDigitos.MatchString(p.TomadorCpfCnpj) {
		return fmt.Errorf("%w: CPF/CNPJ deve conter apenas dígitos", domain.ErrValidacao)
	}
	if len(p.TomadorCpfCnpj) != 11 && len(p.TomadorCpfCnpj) != 14 {
		return fmt.Errorf("%w: CPF/CNPJ com %d dígitos", domain.ErrValidacao, len(p.TomadorCpfCnpj))
	}
	valor, err := decimal.NewFromString(p.Valor)
	if err != nil || !valor.IsPositive() {
		return fmt.Errorf("%w: valor de serviço inválido: %q", domain.ErrValidacao, p.Valor)
	}
	return nil
}

// MontarRps monta o XML não assinado na ordem fixa de elementos do esquema
// ABRASF. Determinístico: o timestamp de emissão vem do chamador e o valor é
// formatado com exatamente duas casas decimais.
func (m Montador) MontarRps(numero int64, p domain.PedidoEmissao, emissao time.Time) ([]byte, string, error) {
	if err := m.Validar(p); err != nil {
		return nil, "", err
	}
	valor, _ := decimal.NewFromString(p.Valor)

	elementoID := fmt.Sprintf("rps%d", numero)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	envio := doc.CreateElement("GerarNfseEnvio")
	envio.CreateAttr("xmlns", nsABRASF)

	rps := envio.CreateElement("Rps")
	inf := rps.CreateElement("InfDeclaracaoPrestacaoServico")
	inf.CreateAttr("Id", elementoID)

	idRps := inf.CreateElement("Rps")
	ident := idRps.CreateElement("IdentificacaoRps")
	ident.CreateElement("Numero").SetText(fmt.Sprintf("%d", numero))
	ident.CreateElement("Serie").SetText(m.Serie)
	ident.CreateElement("Tipo").SetText("1")
	idRps.CreateElement("DataEmissao").SetText(emissao.Format("2006-01-02"))
	idRps.CreateElement("Status").SetText("1")

	inf.CreateElement("Competencia").SetText(emissao.Format("2006-01-02"))

	servico := inf.CreateElement("Servico")
	valores := servico.CreateElement("Valores")
	valores.CreateElement("ValorServicos").SetText(valor.StringFixed(2))
	valores.CreateElement("Aliquota").SetText(m.Prestador.Aliquota)
	servico.CreateElement("IssRetido").SetText("2")
	servico.CreateElement("ItemListaServico").SetText(m.Prestador.ItemListaServico)
	servico.CreateElement("Discriminacao").SetText(p.Discriminacao)
	servico.CreateElement("CodigoMunicipio").SetText(m.Prestador.CodigoMunicipio)
	servico.CreateElement("ExigibilidadeISS").SetText("1")

	prestador := inf.CreateElement("Prestador")
	cpfCnpjP := prestador.CreateElement("CpfCnpj")
	cpfCnpjP.CreateElement("Cnpj").SetText(m.Prestador.Cnpj)
	prestador.CreateElement("InscricaoMunicipal").SetText(m.Prestador.InscricaoMunicipal)

	tomador := inf.CreateElement("Tomador")
	identTomador := tomador.CreateElement("IdentificacaoTomador")
	cpfCnpjT := identTomador.CreateElement("CpfCnpj")
	if len(p.TomadorCpfCnpj) == 11 {
		cpfCnpjT.CreateElement("Cpf").SetText(p.TomadorCpfCnpj)
	} else {
		cpfCnpjT.CreateElement("Cnpj").SetText(p.TomadorCpfCnpj)
	}
	tomador.CreateElement("RazaoSocial").SetText(p.TomadorNome)

	inf.CreateElement("OptanteSimplesNacional").SetText("1")
	inf.CreateElement("IncentivoFiscal").SetText("2")

	xml, err := doc.WriteToBytes()
	if err != nil {
		return nil, "", fmt.Errorf("serializar RPS: %w", err)
	}
	return xml, elementoID, nil
}
