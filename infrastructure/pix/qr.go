package pix

import "github.com/skip2/go-qrcode"

// QrPng renderiza o payload como PNG de QR code pronto para exibição.
func QrPng(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, 300)
}
