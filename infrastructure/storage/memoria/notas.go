package memoria

import (
	"context"
	"sync"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/application/ports"
)

// RepositorioNotas guarda notas em memória. Serve os testes e o modo de
// instância única do CLI; em produção com múltiplas instâncias a numeração
// atômica exige o repositório Postgres.
type RepositorioNotas struct {
	mu           sync.Mutex
	ultimoNumero int64
	notas        map[string]*domain.Nota
}

var _ ports.RepositorioNotas = (*RepositorioNotas)(nil)

func NewRepositorioNotas() *RepositorioNotas {
	return &RepositorioNotas{notas: make(map[string]*domain.Nota)}
}

func (r *RepositorioNotas) ProximoNumero(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ultimoNumero++
	return r.ultimoNumero, nil
}

func (r *RepositorioNotas) Salvar(_ context.Context, nota *domain.Nota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *nota
	r.notas[nota.ID] = &c
	return nil
}

func (r *RepositorioNotas) Atualizar(_ context.Context, nota *domain.Nota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notas[nota.ID]; !ok {
		return domain.ErrNotaNaoEncontrada
	}
	c := *nota
	r.notas[nota.ID] = &c
	return nil
}

func (r *RepositorioNotas) Buscar(_ context.Context, id string) (*domain.Nota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nota, ok := r.notas[id]
	if !ok {
		return nil, domain.ErrNotaNaoEncontrada
	}
	c := *nota
	return &c, nil
}

func (r *RepositorioNotas) PendentesReenvio(_ context.Context) ([]*domain.Nota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pendentes []*domain.Nota
	for _, nota := range r.notas {
		if nota.Status == domain.StatusFallbackLocal {
			c := *nota
			pendentes = append(pendentes, &c)
		}
	}
	return pendentes, nil
}
