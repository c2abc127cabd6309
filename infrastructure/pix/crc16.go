package pix

// Parâmetros do CRC-16/CCITT-FALSE exigidos pelo BR Code: polinômio 0x1021,
// valor inicial 0xFFFF, sem reflexão de entrada ou saída.
const (
	polinomio    = 0x1021
	valorInicial = 0xFFFF
)

// Checksum calcula o CRC-16/CCITT-FALSE sobre os bytes do payload. O padrão
// manda incluir o ID e o tamanho do próprio campo de CRC ("6304") no cálculo.
func Checksum(data []byte) uint16 {
	crc := uint16(valorInicial)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ polinomio
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
