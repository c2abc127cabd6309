package setup

import (
	"context"
	"time"

	"github.com/Feitosa98/emissor-fiscal/application/ports"
	"github.com/Feitosa98/emissor-fiscal/application/usecases"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/certificado"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/nfse"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/pix"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/storage/memoria"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/storage/postgres"
)

// Config reúne tudo que o emissor precisa; passada explicitamente, sem estado
// global nem linha de configuração em cache.
type Config struct {
	P12         []byte
	Senha       string
	Ambiente    nfse.Ambiente
	Prestador   nfse.Prestador
	Serie       string
	Timeout     time.Duration
	PostgresDSN string // vazio = repositório em memória (instância única)
	Recebedor   pix.Recebedor
}

// App é a aplicação montada.
type App struct {
	Emissor   *usecases.Emissor
	Recibos   *usecases.Recibos
	Fabrica   ports.FabricaAssinadores
	Recebedor pix.Recebedor

	store *postgres.Store
}

// NewSetup cria a aplicação com as dependências concretas.
func NewSetup(ctx context.Context, cfg Config) (*App, error) {
	fabrica := certificado.NewFabrica(cfg.P12, cfg.Senha)
	montador := nfse.Montador{Prestador: cfg.Prestador, Serie: cfg.Serie}
	cliente := nfse.NewCliente(cfg.Ambiente, cfg.Timeout)

	app := &App{
		Fabrica:   fabrica,
		Recibos:   usecases.NewRecibos(fabrica),
		Recebedor: cfg.Recebedor,
	}

	var repositorio ports.RepositorioNotas
	if cfg.PostgresDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.CriarEsquema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		app.store = store
		repositorio = postgres.NewRepositorioNotas(store.Pool)
	} else {
		repositorio = memoria.NewRepositorioNotas()
	}

	app.Emissor = usecases.NewEmissor(montador, fabrica, repositorio, cliente)
	return app, nil
}

// Fechar libera os recursos da aplicação.
func (a *App) Fechar() {
	if a.store != nil {
		a.store.Close()
	}
}
