package ports

import (
	"context"
	"time"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
)

// AssinadorXML assina o elemento identificado por Id dentro do XML e valida
// assinaturas existentes.
type AssinadorXML interface {
	Assinar(xmlData []byte, elementoID string) ([]byte, error)
	Verificar(xmlData []byte) error
}

// AssinadorPDF aplica uma assinatura CMS destacada sobre um PDF já
// renderizado, sem alterar o tamanho do arquivo.
type AssinadorPDF interface {
	ReservarEspaco(pdf []byte) ([]byte, error)
	Assinar(pdf []byte) ([]byte, error)
}

// FabricaAssinadores constrói assinadores a partir do PKCS#12 configurado.
// O material da chave é decifrado por operação e descartado em seguida, nunca
// mantido em cache compartilhado entre requisições.
type FabricaAssinadores interface {
	AssinadorXML() (AssinadorXML, error)
	AssinadorPDF() (AssinadorPDF, error)
}

// MontadorRps monta o XML não assinado do RPS na ordem fixa de elementos do
// esquema municipal. Montagem é pura e determinística; validação acontece
// antes de qualquer alocação de número, criptografia ou rede.
type MontadorRps interface {
	Validar(p domain.PedidoEmissao) error
	MontarRps(numero int64, p domain.PedidoEmissao, emissao time.Time) (xml []byte, elementoID string, err error)
}

// RepositorioNotas persiste notas e aloca a numeração sequencial. A alocação
// deve ser atômica entre requisições concorrentes, inclusive entre múltiplas
// instâncias do emissor.
type RepositorioNotas interface {
	ProximoNumero(ctx context.Context) (int64, error)
	Salvar(ctx context.Context, nota *domain.Nota) error
	Atualizar(ctx context.Context, nota *domain.Nota) error
	Buscar(ctx context.Context, id string) (*domain.Nota, error)
	PendentesReenvio(ctx context.Context) ([]*domain.Nota, error)
}

// Prefeitura é o webservice municipal que autoriza notas.
type Prefeitura interface {
	EnviarNota(ctx context.Context, xmlAssinado []byte) (RespostaPrefeitura, error)
}

// RespostaPrefeitura é a variante tipada da resposta da prefeitura. Formas
// inesperadas de resposta são um caso distinto (Malformada), não um erro
// silencioso de extração.
type RespostaPrefeitura interface {
	respostaPrefeitura()
}

// Autorizada nota aceita; carrega os artefatos de verificação emitidos.
type Autorizada struct {
	NumeroNfse        string
	CodigoVerificacao string
	Protocolo         string
}

// Rejeitada erro de negócio; a mensagem é preservada literalmente.
type Rejeitada struct {
	Codigo   string
	Mensagem string
}

// Malformada resposta que não casa com o esquema esperado.
type Malformada struct {
	Corpo []byte
}

func (Autorizada) respostaPrefeitura() {}
func (Rejeitada) respostaPrefeitura()  {}
func (Malformada) respostaPrefeitura() {}
