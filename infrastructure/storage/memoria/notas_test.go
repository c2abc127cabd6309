package memoria

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
)

func TestProximoNumero_Concorrente(t *testing.T) {
	repo := NewRepositorioNotas()
	ctx := context.Background()

	const goroutines = 50
	numeros := make(chan int64, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.ProximoNumero(ctx)
			assert.NoError(t, err)
			numeros <- n
		}()
	}
	wg.Wait()
	close(numeros)

	vistos := make(map[int64]bool)
	for n := range numeros {
		assert.False(t, vistos[n], "número %d emitido duas vezes", n)
		vistos[n] = true
	}
	assert.Len(t, vistos, goroutines)
}

func TestSalvarBuscarAtualizar(t *testing.T) {
	repo := NewRepositorioNotas()
	ctx := context.Background()

	nota := &domain.Nota{
		ID:     "n1",
		Numero: 1,
		Status: domain.StatusPendenteEnvio,
	}
	require.NoError(t, repo.Salvar(ctx, nota))

	lida, err := repo.Buscar(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), lida.Numero)

	// o repositório devolve cópias, não aliases do estado interno
	lida.Protocolo = "alterado fora do repositório"
	relida, err := repo.Buscar(ctx, "n1")
	require.NoError(t, err)
	assert.Empty(t, relida.Protocolo)

	nota.Status = domain.StatusAutorizada
	nota.Protocolo = "P1"
	require.NoError(t, repo.Atualizar(ctx, nota))

	relida, err = repo.Buscar(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAutorizada, relida.Status)
	assert.Equal(t, "P1", relida.Protocolo)
}

func TestBuscarAtualizar_NaoEncontrada(t *testing.T) {
	repo := NewRepositorioNotas()
	ctx := context.Background()

	_, err := repo.Buscar(ctx, "inexistente")
	assert.ErrorIs(t, err, domain.ErrNotaNaoEncontrada)

	err = repo.Atualizar(ctx, &domain.Nota{ID: "inexistente"})
	assert.ErrorIs(t, err, domain.ErrNotaNaoEncontrada)
}

func TestPendentesReenvio(t *testing.T) {
	repo := NewRepositorioNotas()
	ctx := context.Background()

	require.NoError(t, repo.Salvar(ctx, &domain.Nota{ID: "a", Status: domain.StatusAutorizada}))
	require.NoError(t, repo.Salvar(ctx, &domain.Nota{ID: "b", Status: domain.StatusFallbackLocal}))
	require.NoError(t, repo.Salvar(ctx, &domain.Nota{ID: "c", Status: domain.StatusFallbackLocal}))
	require.NoError(t, repo.Salvar(ctx, &domain.Nota{ID: "d", Status: domain.StatusRejeitada}))

	pendentes, err := repo.PendentesReenvio(ctx)
	require.NoError(t, err)
	require.Len(t, pendentes, 2)
	for _, nota := range pendentes {
		assert.Equal(t, domain.StatusFallbackLocal, nota.Status)
	}
}
