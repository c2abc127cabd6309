package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

var logger = logrus.WithField("component", "usecases")

// Emissor orquestra o ciclo de vida da nota: montagem, numeração, assinatura,
// envio e persistência do status. Cada requisição é independente e sem estado
// além da alocação do número sequencial.
type Emissor struct {
	montador    ports.MontadorRps
	fabrica     ports.FabricaAssinadores
	repositorio ports.RepositorioNotas
	prefeitura  ports.Prefeitura
	agora       func() time.Time
}

// NewEmissor cria o emissor com as dependências explícitas; nenhuma
// configuração é lida de estado global.
func NewEmissor(montador ports.MontadorRps, fabrica ports.FabricaAssinadores,
	repositorio ports.RepositorioNotas, prefeitura ports.Prefeitura) *Emissor {
	return &Emissor{
		montador:    montador,
		fabrica:     fabrica,
		repositorio: repositorio,
		prefeitura:  prefeitura,
		agora:       time.Now,
	}
}

// EmitirNota executa a emissão completa. Erros de validação e configuração
// voltam imediatamente, sem efeitos colaterais. A numeração é alocada antes da
// primeira tentativa de rede e nunca reutilizada: se o envio falhar depois, a
// lacuna fica. Falha de assinatura aborta antes de qualquer envio; uma nota
// fiscal nunca é submetida sem assinatura.
func (e *Emissor) EmitirNota(ctx context.Context, pedido domain.PedidoEmissao) (*domain.Nota, error) {
	if err := e.montador.Validar(pedido); err != nil {
		return nil, err
	}

	// Carrega o certificado antes de queimar um número da sequência: erro de
	// configuração não deve deixar rastro.
	assinador, err := e.fabrica.AssinadorXML()
	if err != nil {
		return nil, err
	}

	numero, err := e.repositorio.ProximoNumero(ctx)
	if err != nil {
		return nil, fmt.Errorf("alocar número sequencial: %w", err)
	}

	emissao := e.agora().UTC()
	xml, elementoID, err := e.montador.MontarRps(numero, pedido, emissao)
	if err != nil {
		return nil, err
	}

	nota := &domain.Nota{
		ID:                uuid.NewString(),
		Numero:            numero,
		CodigoVerificacao: uuid.NewString(),
		TomadorNome:       pedido.TomadorNome,
		TomadorCpfCnpj:    pedido.TomadorCpfCnpj,
		Discriminacao:     pedido.Discriminacao,
		Valor:             pedido.Valor,
		EmitidaEm:         emissao,
		Status:            domain.StatusPendenteEnvio,
		XML:               xml,
	}
	if err := e.repositorio.Salvar(ctx, nota); err != nil {
		return nil, fmt.Errorf("persistir nota %d: %w", numero, err)
	}

	assinado, err := assinador.Assinar(xml, elementoID)
	if err != nil {
		// A nota fica PENDENTE_ENVIO sem XML assinado; nada foi submetido.
		nota.MensagemErro = err.Error()
		if updErr := e.repositorio.Atualizar(ctx, nota); updErr != nil {
			logger.WithError(updErr).Error("falha ao registrar erro de assinatura")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAssinatura, err)
	}
	nota.XMLAssinado = assinado

	return e.submeter(ctx, nota)
}

// ReenviarNota reenvia manualmente uma nota em FALLBACK_LOCAL. Não há reenvio
// automático em segundo plano: a decisão de retentar é do operador.
func (e *Emissor) ReenviarNota(ctx context.Context, id string) (*domain.Nota, error) {
	nota, err := e.repositorio.Buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if nota.Status != domain.StatusFallbackLocal {
		return nil, fmt.Errorf("%w: nota %d está %s, reenvio só vale para %s",
			domain.ErrValidacao, nota.Numero, nota.Status, domain.StatusFallbackLocal)
	}
	return e.submeter(ctx, nota)
}

// PendentesReenvio lista as notas retidas localmente para o operador.
func (e *Emissor) PendentesReenvio(ctx context.Context) ([]*domain.Nota, error) {
	return e.repositorio.PendentesReenvio(ctx)
}

// submeter envia o XML assinado e aplica a transição de estado conforme a
// variante da resposta. Indisponibilidade é recuperada localmente: a nota
// assinada é retida, nunca perdida, e o chamador recebe um status definitivo.
func (e *Emissor) submeter(ctx context.Context, nota *domain.Nota) (*domain.Nota, error) {
	resposta, err := e.prefeitura.EnviarNota(ctx, nota.XMLAssinado)
	if err != nil {
		if !errors.Is(err, domain.ErrIndisponivel) {
			return nil, err
		}
		return e.reterLocalmente(ctx, nota, err.Error())
	}

	switch r := resposta.(type) {
	case ports.Autorizada:
		if err := nota.Transicionar(domain.StatusAutorizada); err != nil {
			return nil, err
		}
		nota.Protocolo = r.Protocolo
		if r.CodigoVerificacao != "" {
			nota.CodigoVerificacao = r.CodigoVerificacao
		}
		nota.MensagemErro = ""
		logger.WithFields(logrus.Fields{"numero": nota.Numero, "protocolo": nota.Protocolo}).
			Info("nota autorizada")

	case ports.Rejeitada:
		if err := nota.Transicionar(domain.StatusRejeitada); err != nil {
			return nil, err
		}
		// Mensagem preservada literalmente; um humano corrige a entrada e
		// emite uma nota nova.
		nota.MensagemErro = fmt.Sprintf("%s: %s", r.Codigo, r.Mensagem)
		logger.WithFields(logrus.Fields{"numero": nota.Numero, "codigo": r.Codigo}).
			Warn("nota rejeitada pela prefeitura")

	case ports.Malformada:
		// Sem confirmação utilizável; retém localmente em vez de perder a nota.
		return e.reterLocalmente(ctx, nota, "resposta da prefeitura malformada")

	default:
		return nil, fmt.Errorf("variante de resposta inesperada: %T", resposta)
	}

	if err := e.repositorio.Atualizar(ctx, nota); err != nil {
		return nil, fmt.Errorf("persistir status da nota %d: %w", nota.Numero, err)
	}
	return nota, nil
}

func (e *Emissor) reterLocalmente(ctx context.Context, nota *domain.Nota, motivo string) (*domain.Nota, error) {
	if nota.Status != domain.StatusFallbackLocal {
		if err := nota.Transicionar(domain.StatusFallbackLocal); err != nil {
			return nil, err
		}
	}
	nota.MensagemErro = motivo
	if err := e.repositorio.Atualizar(ctx, nota); err != nil {
		return nil, fmt.Errorf("reter nota %d localmente: %w", nota.Numero, err)
	}
	logger.WithField("numero", nota.Numero).Warn("prefeitura inacessível; nota retida para reenvio manual")
	return nota, nil
}
