package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransicionar(t *testing.T) {
	validas := []struct{ de, para StatusNota }{
		{StatusPendenteEnvio, StatusAutorizada},
		{StatusPendenteEnvio, StatusRejeitada},
		{StatusPendenteEnvio, StatusFallbackLocal},
		{StatusFallbackLocal, StatusAutorizada},
		{StatusFallbackLocal, StatusRejeitada},
	}
	for _, c := range validas {
		nota := Nota{Status: c.de}
		assert.NoError(t, nota.Transicionar(c.para), "%s -> %s", c.de, c.para)
		assert.Equal(t, c.para, nota.Status)
	}

	invalidas := []struct{ de, para StatusNota }{
		{StatusAutorizada, StatusRejeitada},
		{StatusAutorizada, StatusPendenteEnvio},
		{StatusRejeitada, StatusAutorizada},
		{StatusRejeitada, StatusFallbackLocal},
		{StatusFallbackLocal, StatusPendenteEnvio},
		{StatusFallbackLocal, StatusFallbackLocal},
	}
	for _, c := range invalidas {
		nota := Nota{Status: c.de}
		assert.Error(t, nota.Transicionar(c.para), "%s -> %s", c.de, c.para)
		assert.Equal(t, c.de, nota.Status, "status não muda em transição inválida")
	}
}
