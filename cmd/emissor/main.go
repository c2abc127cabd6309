package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Feitosa98/emissor-fiscal/application/domain"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/nfse"
	"github.com/Feitosa98/emissor-fiscal/infrastructure/pix"
	"github.com/Feitosa98/emissor-fiscal/setup"
)

// O CLI emite notas, gera cobranças PIX e assina recibos PDF de acordo com as
// flags, escrevendo artefatos na saída padrão ou no arquivo pedido.
func main() {
	mode := flag.String("mode", "", "operation: emitir, reenviar, pendentes, pix, sign, verify, sign-pdf")
	p12Path := flag.String("p12", os.Getenv("EMISSOR_P12"), "path to PKCS#12 file with certificate and private key")
	pass := flag.String("pass", os.Getenv("EMISSOR_P12_SENHA"), "password for the PKCS#12 container")
	filePath := flag.String("file", "", "input file (XML or PDF depending on mode)")
	out := flag.String("out", "", "output file (defaults to stdout)")

	tomador := flag.String("tomador", "", "payer name (emitir)")
	cpfCnpj := flag.String("cpfcnpj", "", "payer CPF (11 digits) or CNPJ (14 digits) (emitir)")
	descricao := flag.String("descricao", "", "service description (emitir)")
	valor := flag.String("valor", "", "service or charge amount, e.g. 100.00")
	txid := flag.String("txid", "", "PIX transaction id (pix)")
	notaID := flag.String("nota", "", "note id (reenviar)")
	qr := flag.Bool("qr", false, "emit PIX payload as QR PNG instead of text")
	homologacao := flag.Bool("homologacao", false, "use the staging municipal webservice")
	flag.Parse()

	ctx := context.Background()

	var p12 []byte
	if strings.TrimSpace(*p12Path) != "" {
		var err error
		p12, err = os.ReadFile(*p12Path)
		if err != nil {
			log.Fatalf("failed to read PKCS#12 file: %v", err)
		}
	}

	ambiente := nfse.Producao
	if *homologacao {
		ambiente = nfse.Homologacao
	}

	cfg := setup.Config{
		P12:      p12,
		Senha:    *pass,
		Ambiente: ambiente,
		Prestador: nfse.Prestador{
			Cnpj:               os.Getenv("EMISSOR_CNPJ"),
			InscricaoMunicipal: os.Getenv("EMISSOR_INSCRICAO"),
			RazaoSocial:        os.Getenv("EMISSOR_RAZAO_SOCIAL"),
			CodigoMunicipio:    os.Getenv("EMISSOR_MUNICIPIO"),
			ItemListaServico:   os.Getenv("EMISSOR_ITEM_SERVICO"),
			Aliquota:           os.Getenv("EMISSOR_ALIQUOTA"),
		},
		Serie:       os.Getenv("EMISSOR_SERIE"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Recebedor: pix.Recebedor{
			Chave:  os.Getenv("PIX_CHAVE"),
			Nome:   os.Getenv("PIX_NOME"),
			Cidade: os.Getenv("PIX_CIDADE"),
		},
	}

	app, err := setup.NewSetup(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up application: %v", err)
	}
	defer app.Fechar()

	switch *mode {
	case "emitir":
		nota, err := app.Emissor.EmitirNota(ctx, domain.PedidoEmissao{
			TomadorNome:    *tomador,
			TomadorCpfCnpj: *cpfCnpj,
			Discriminacao:  *descricao,
			Valor:          *valor,
		})
		if err != nil {
			log.Fatalf("emission failed: %v", err)
		}
		fmt.Printf("nota %d: %s", nota.Numero, nota.Status)
		if nota.Protocolo != "" {
			fmt.Printf(" (protocolo %s)", nota.Protocolo)
		}
		fmt.Println()
		escrever(*out, nota.XMLAssinado)

	case "reenviar":
		nota, err := app.Emissor.ReenviarNota(ctx, *notaID)
		if err != nil {
			log.Fatalf("resubmission failed: %v", err)
		}
		fmt.Printf("nota %d: %s\n", nota.Numero, nota.Status)

	case "pendentes":
		notas, err := app.Emissor.PendentesReenvio(ctx)
		if err != nil {
			log.Fatalf("listing failed: %v", err)
		}
		for _, n := range notas {
			fmt.Printf("%s\tnota %d\t%s\t%s\n", n.ID, n.Numero, n.EmitidaEm.Format("2006-01-02"), n.MensagemErro)
		}

	case "pix":
		payload, err := pix.Montar(app.Recebedor.Cobranca(*valor, *txid, *txid != ""))
		if err != nil {
			log.Fatalf("failed to build PIX payload: %v", err)
		}
		if *qr {
			png, err := pix.QrPng(payload)
			if err != nil {
				log.Fatalf("failed to encode QR: %v", err)
			}
			escrever(*out, png)
			return
		}
		fmt.Println(payload)

	case "sign", "verify":
		xmlData := lerEntrada(*filePath)
		assinador, err := app.Fabrica.AssinadorXML()
		if err != nil {
			log.Fatalf("failed to load PKCS#12: %v", err)
		}
		if *mode == "verify" {
			if err := assinador.Verificar(xmlData); err != nil {
				log.Fatalf("signature verification failed: %v", err)
			}
			fmt.Println("signature valid")
			return
		}
		id := flag.Arg(0)
		if id == "" {
			log.Fatalf("sign mode requires the target element Id as argument")
		}
		assinado, err := assinador.Assinar(xmlData, id)
		if err != nil {
			log.Fatalf("error signing XML: %v", err)
		}
		escrever(*out, assinado)

	case "sign-pdf":
		pdfData := lerEntrada(*filePath)
		recibo, err := app.Recibos.AssinarRecibo(pdfData)
		if err != nil {
			log.Fatalf("error signing PDF: %v", err)
		}
		if !recibo.Assinado {
			fmt.Fprintln(os.Stderr, "warning: serving unsigned PDF (certificate unavailable)")
		}
		escrever(*out, recibo.Pdf)

	default:
		log.Fatalf("invalid or missing mode: %q", *mode)
	}
}

// lerEntrada lê do arquivo indicado ou da entrada padrão.
func lerEntrada(filePath string) []byte {
	if strings.TrimSpace(filePath) != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatalf("failed to read input file: %v", err)
		}
		return data
	}
	data, err := os.ReadFile("/dev/stdin")
	if err != nil {
		log.Fatalf("failed to read from stdin: %v", err)
	}
	return data
}

func escrever(out string, data []byte) {
	if out == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatalf("failed to write output: %v", err)
		}
		return
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", out, err)
	}
}
