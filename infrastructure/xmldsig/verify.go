package xmldsig

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

// Verificar valida a assinatura envelopada de um documento: recanonicaliza o
// elemento referenciado, compara o digest com o DigestValue embutido e checa a
// assinatura RSA do SignedInfo com o certificado presente no KeyInfo. É a
// propriedade de correção verificável externamente: qualquer byte alterado no
// conteúdo assinado invalida o digest.
func (s *Signer) Verificar(xmlData []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlData); err != nil {
		return fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return errors.New("empty XML document")
	}

	sigEl := findSignatureElement(root)
	if sigEl == nil {
		return errors.New("signature element not found")
	}

	var signedInfo *etree.Element
	var signatureValue string
	var keyInfo *etree.Element
	for _, child := range sigEl.Child {
		if el, ok := child.(*etree.Element); ok {
			switch strings.TrimPrefix(el.Tag, "ds:") {
			case "SignedInfo":
				signedInfo = el
			case "SignatureValue":
				signatureValue = strings.TrimSpace(el.Text())
			case "KeyInfo":
				keyInfo = el
			}
		}
	}
	if signedInfo == nil || keyInfo == nil || signatureValue == "" {
		return errors.New("incomplete signature structure")
	}

	// Recupera a referência (URI="#Id") e o digest declarado
	ref := signedInfo.FindElement(".//ds:Reference")
	if ref == nil {
		ref = signedInfo.FindElement(".//Reference")
	}
	if ref == nil {
		return errors.New("missing Reference in SignedInfo")
	}
	uriAttr := ref.SelectAttr("URI")
	if uriAttr == nil || !strings.HasPrefix(uriAttr.Value, "#") {
		return errors.New("Reference URI must be a fragment")
	}
	elementoID := uriAttr.Value[1:]

	dv := ref.FindElement(".//ds:DigestValue")
	if dv == nil {
		dv = ref.FindElement(".//DigestValue")
	}
	if dv == nil {
		return errors.New("missing DigestValue in Reference")
	}
	digestDeclarado := strings.TrimSpace(dv.Text())

	alvo := findElementByID(root, elementoID)
	if alvo == nil {
		return fmt.Errorf("%w: Id=%q", ErrElementoNaoEncontrado, elementoID)
	}

	// Refaz os transforms da assinatura: enveloped + exc-c14n
	canon := dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	alvoCopy := alvo.Copy()
	removeSignatureElements(alvoCopy)
	removeWhitespaceNodes(alvoCopy)
	alvoCanon, err := canon.Canonicalize(alvoCopy)
	if err != nil {
		return fmt.Errorf("failed to canonicalize target element: %w", err)
	}
	alvoDigest := sha256.Sum256(alvoCanon)
	if base64.StdEncoding.EncodeToString(alvoDigest[:]) != digestDeclarado {
		return fmt.Errorf("%w: digest mismatch", ErrAssinaturaInvalida)
	}

	// Canonicaliza o SignedInfo garantindo a declaração do namespace ds
	siCopy := signedInfo.Copy()
	if siCopy.SelectAttr("xmlns:ds") == nil {
		siCopy.CreateAttr("xmlns:ds", nsXMLDSig)
	}
	removeWhitespaceNodes(siCopy)
	siCanon, err := canon.Canonicalize(siCopy)
	if err != nil {
		return fmt.Errorf("failed to canonicalize SignedInfo: %w", err)
	}
	siHash := sha256.Sum256(siCanon)

	sigBytes, err := base64.StdEncoding.DecodeString(signatureValue)
	if err != nil {
		return fmt.Errorf("signature value is not valid base64: %w", err)
	}

	// Verifica com o certificado embutido no KeyInfo, permitindo validação
	// offline sem consulta externa de chave.
	cert, err := certificadoDoKeyInfo(keyInfo)
	if err != nil {
		return err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("certificate does not contain an RSA public key")
	}
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, siHash[:], sigBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrAssinaturaInvalida, err)
	}
	return nil
}

// certificadoDoKeyInfo extrai e decodifica o X509Certificate embutido.
func certificadoDoKeyInfo(keyInfo *etree.Element) (*x509.Certificate, error) {
	certEl := keyInfo.FindElement(".//ds:X509Certificate")
	if certEl == nil {
		certEl = keyInfo.FindElement(".//X509Certificate")
	}
	if certEl == nil {
		return nil, errors.New("X509Certificate not found in KeyInfo")
	}
	der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(certEl.Text()))
	if err != nil {
		return nil, fmt.Errorf("embedded certificate is not valid base64: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded certificate: %w", err)
	}
	return cert, nil
}
