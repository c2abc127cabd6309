package pix

// Recebedor é a configuração fixa do beneficiário das cobranças.
type Recebedor struct {
	Chave  string
	Nome   string
	Cidade string
}

// Cobranca prepara uma cobrança deste recebedor. Txid vazio vira o marcador
// "***" na codificação.
func (r Recebedor) Cobranca(valor, txid string, unicoUso bool) Cobranca {
	return Cobranca{
		Chave:    r.Chave,
		Nome:     r.Nome,
		Cidade:   r.Cidade,
		Txid:     txid,
		Valor:    valor,
		UnicoUso: unicoUso,
	}
}
