package domain

import "errors"

// Taxonomia de erros da emissão. Os componentes de infraestrutura embrulham
// seus erros específicos em uma destas categorias para que os casos de uso
// decidam o destino da nota com errors.Is.
var (
	// ErrConfiguracao indica certificado ausente, senha errada ou certificado
	// expirado. Fatal para a requisição, nunca retentado automaticamente.
	ErrConfiguracao = errors.New("erro de configuração")

	// ErrValidacao indica campos de entrada malformados, rejeitados antes de
	// qualquer trabalho criptográfico ou de rede.
	ErrValidacao = errors.New("erro de validação")

	// ErrAssinatura indica falha criptográfica ou de canonicalização. A nota
	// nunca é persistida como assinada nem submetida.
	ErrAssinatura = errors.New("erro de assinatura")

	// ErrIndisponivel indica falha de rede ou timeout na prefeitura. Não é
	// fatal: a nota assinada é retida localmente (FALLBACK_LOCAL).
	ErrIndisponivel = errors.New("prefeitura indisponível")

	// ErrNotaNaoEncontrada nota inexistente no repositório.
	ErrNotaNaoEncontrada = errors.New("nota não encontrada")
)
