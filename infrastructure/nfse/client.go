package nfse

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

var logger = logrus.WithField("component", "nfse")

// TimeoutPadrao limita a espera pela prefeitura. Esgotado o prazo, a nota vai
// para FALLBACK_LOCAL em vez de bloquear a requisição indefinidamente.
const TimeoutPadrao = 30 * time.Second

// Cliente envia notas assinadas ao webservice municipal.
type Cliente struct {
	rest     *resty.Client
	ambiente Ambiente
}

var _ ports.Prefeitura = (*Cliente)(nil)

// NewCliente cria o cliente HTTP com timeout limitado.
func NewCliente(ambiente Ambiente, timeout time.Duration) *Cliente {
	if timeout <= 0 {
		timeout = TimeoutPadrao
	}
	rest := resty.New().SetTimeout(timeout)
	return &Cliente{rest: rest, ambiente: ambiente}
}

// EnviarNota submete o XML assinado. Erros de transporte (conexão, timeout)
// voltam como ErrIndisponivel; o chamador decide reter a nota localmente. Uma
// submissão que expirou nunca é retentada dentro da mesma requisição.
func (c *Cliente) EnviarNota(ctx context.Context, xmlAssinado []byte) (ports.RespostaPrefeitura, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(xmlAssinado).
		SetHeader("Content-Type", "text/xml; charset=utf-8").
		Post(c.ambiente.BaseURL() + "/gerar")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndisponivel, err)
	}

	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrIndisponivel, resp.StatusCode())
	}

	logger.WithFields(logrus.Fields{
		"status": resp.StatusCode(),
		"bytes":  len(resp.Body()),
	}).Debug("resposta da prefeitura recebida")

	return ParseResposta(resp.Body()), nil
}
