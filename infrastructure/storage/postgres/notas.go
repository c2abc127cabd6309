package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

// Store abre o pool de conexões com o Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore conecta usando o DSN configurado.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Close libera o pool.
func (s *Store) Close() {
	if s == nil || s.Pool == nil {
		return
	}
	s.Pool.Close()
}

const esquema = `
CREATE TABLE IF NOT EXISTS nfse_numeracao (
    id            smallint PRIMARY KEY,
    ultimo_numero bigint NOT NULL
);

CREATE TABLE IF NOT EXISTS notas (
    id                 text PRIMARY KEY,
    numero             bigint NOT NULL UNIQUE,
    codigo_verificacao text NOT NULL,
    tomador_nome       text NOT NULL,
    tomador_cpf_cnpj   text NOT NULL,
    discriminacao      text NOT NULL,
    valor              text NOT NULL,
    emitida_em         timestamptz NOT NULL,
    status             text NOT NULL,
    xml                bytea,
    xml_assinado       bytea,
    protocolo          text NOT NULL DEFAULT '',
    mensagem_erro      text NOT NULL DEFAULT ''
);`

// CriarEsquema cria as tabelas se não existirem.
func (s *Store) CriarEsquema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, esquema)
	return err
}

// RepositorioNotas persiste notas no Postgres.
type RepositorioNotas struct {
	pool *pgxpool.Pool
}

var _ ports.RepositorioNotas = (*RepositorioNotas)(nil)

func NewRepositorioNotas(pool *pgxpool.Pool) *RepositorioNotas {
	return &RepositorioNotas{pool: pool}
}

// ProximoNumero aloca o próximo número sequencial em uma única instrução
// atômica de upsert. Duas emissões concorrentes, inclusive de instâncias
// diferentes do emissor, nunca recebem o mesmo número; lacunas de tentativas
// abandonadas são toleradas.
func (r *RepositorioNotas) ProximoNumero(ctx context.Context) (int64, error) {
	query := `
INSERT INTO nfse_numeracao (id, ultimo_numero)
VALUES (1, 1)
ON CONFLICT (id) DO UPDATE SET ultimo_numero = nfse_numeracao.ultimo_numero + 1
RETURNING ultimo_numero`
	var numero int64
	if err := r.pool.QueryRow(ctx, query).Scan(&numero); err != nil {
		return 0, fmt.Errorf("alocar número: %w", err)
	}
	return numero, nil
}

func (r *RepositorioNotas) Salvar(ctx context.Context, nota *domain.Nota) error {
	query := `
INSERT INTO notas (id, numero, codigo_verificacao, tomador_nome, tomador_cpf_cnpj,
                   discriminacao, valor, emitida_em, status, xml, xml_assinado, protocolo, mensagem_erro)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.pool.Exec(ctx, query,
		nota.ID, nota.Numero, nota.CodigoVerificacao, nota.TomadorNome, nota.TomadorCpfCnpj,
		nota.Discriminacao, nota.Valor, nota.EmitidaEm, string(nota.Status),
		nota.XML, nota.XMLAssinado, nota.Protocolo, nota.MensagemErro)
	if err != nil {
		return fmt.Errorf("salvar nota %s: %w", nota.ID, err)
	}
	return nil
}

func (r *RepositorioNotas) Atualizar(ctx context.Context, nota *domain.Nota) error {
	query := `
UPDATE notas
SET status = $2, xml_assinado = $3, protocolo = $4, mensagem_erro = $5, codigo_verificacao = $6
WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		nota.ID, string(nota.Status), nota.XMLAssinado, nota.Protocolo, nota.MensagemErro, nota.CodigoVerificacao)
	if err != nil {
		return fmt.Errorf("atualizar nota %s: %w", nota.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotaNaoEncontrada
	}
	return nil
}

func (r *RepositorioNotas) Buscar(ctx context.Context, id string) (*domain.Nota, error) {
	query := `
SELECT id, numero, codigo_verificacao, tomador_nome, tomador_cpf_cnpj,
       discriminacao, valor, emitida_em, status, xml, xml_assinado, protocolo, mensagem_erro
FROM notas
WHERE id = $1`
	nota, err := escanear(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotaNaoEncontrada
	}
	if err != nil {
		return nil, fmt.Errorf("buscar nota %s: %w", id, err)
	}
	return nota, nil
}

// PendentesReenvio lista notas em FALLBACK_LOCAL, assinadas e numeradas mas
// ainda não confirmadas, elegíveis para reenvio manual pelo operador.
func (r *RepositorioNotas) PendentesReenvio(ctx context.Context) ([]*domain.Nota, error) {
	query := `
SELECT id, numero, codigo_verificacao, tomador_nome, tomador_cpf_cnpj,
       discriminacao, valor, emitida_em, status, xml, xml_assinado, protocolo, mensagem_erro
FROM notas
WHERE status = $1
ORDER BY numero`
	rows, err := r.pool.Query(ctx, query, string(domain.StatusFallbackLocal))
	if err != nil {
		return nil, fmt.Errorf("listar pendentes: %w", err)
	}
	defer rows.Close()

	var notas []*domain.Nota
	for rows.Next() {
		nota, err := escanear(rows)
		if err != nil {
			return nil, err
		}
		notas = append(notas, nota)
	}
	return notas, rows.Err()
}

type escaneavel interface {
	Scan(dest ...any) error
}

func escanear(row escaneavel) (*domain.Nota, error) {
	var nota domain.Nota
	var status string
	err := row.Scan(&nota.ID, &nota.Numero, &nota.CodigoVerificacao, &nota.TomadorNome,
		&nota.TomadorCpfCnpj, &nota.Discriminacao, &nota.Valor, &nota.EmitidaEm,
		&status, &nota.XML, &nota.XMLAssinado, &nota.Protocolo, &nota.MensagemErro)
	if err != nil {
		return nil, err
	}
	nota.Status = domain.StatusNota(status)
	return &nota, nil
}
