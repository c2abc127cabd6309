package nfse

// Ambiente identifica o webservice municipal de destino.
type Ambiente string

const (
	Producao    Ambiente = "https://iss.fortaleza.ce.gov.br/nfse/ws"
	Homologacao Ambiente = "https://iss-homologacao.fortaleza.ce.gov.br/nfse/ws"
)

// BaseURL retorna a URL base do ambiente.
func (a Ambiente) BaseURL() string {
	return string(a)
}
