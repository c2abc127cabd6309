package xmldsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

// Assinar localiza o elemento com atributo Id igual a elementoID, calcula o
// digest SHA256 da sua forma canônica (Exclusive C14N, após o transform de
// enveloped signature) e insere um <ds:Signature> como último filho do próprio
// elemento assinado. O KeyInfo embute o certificado DER em base64 para que o
// validador da prefeitura verifique sem consulta externa de chave.
//
// A saída é determinística: entradas idênticas produzem bytes idênticos. Não
// há timestamps nem identificadores aleatórios na assinatura, e RSA
// PKCS#1 v1.5 não usa padding aleatório.
func (s *Signer) Assinar(xmlData []byte, elementoID string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlData); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("empty XML document")
	}

	alvo := findElementByID(root, elementoID)
	if alvo == nil {
		return nil, fmt.Errorf("%w: Id=%q", ErrElementoNaoEncontrado, elementoID)
	}

	// Preparar o canonicalizador Exclusive C14N (sem prefixos adicionais)
	canon := dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")

	// Transform de enveloped signature sobre uma cópia do alvo: remove
	// assinaturas existentes e espaços em branco supérfluos antes do digest.
	alvoCopy := alvo.Copy()
	removeSignatureElements(alvoCopy)
	removeWhitespaceNodes(alvoCopy)

	alvoCanon, err := canon.Canonicalize(alvoCopy)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize target element: %w", err)
	}
	alvoDigest := sha256.Sum256(alvoCanon)
	alvoDigestB64 := base64.StdEncoding.EncodeToString(alvoDigest[:])

	// <ds:Reference URI="#Id"> com os transforms enveloped e exc-c14n
	ref := etree.NewElement("ds:Reference")
	ref.CreateAttr("URI", "#"+elementoID)
	transforms := etree.NewElement("ds:Transforms")
	envTransform := etree.NewElement("ds:Transform")
	envTransform.CreateAttr("Algorithm", algEnveloped)
	transforms.AddChild(envTransform)
	canTransform := etree.NewElement("ds:Transform")
	canTransform.CreateAttr("Algorithm", algC14NExclusivo)
	transforms.AddChild(canTransform)
	ref.AddChild(transforms)
	dm := etree.NewElement("ds:DigestMethod")
	dm.CreateAttr("Algorithm", algSHA256)
	ref.AddChild(dm)
	dv := etree.NewElement("ds:DigestValue")
	dv.SetText(alvoDigestB64)
	ref.AddChild(dv)

	// <ds:SignedInfo> com CanonicalizationMethod e SignatureMethod
	signedInfo := etree.NewElement("ds:SignedInfo")
	signedInfo.CreateAttr("xmlns:ds", nsXMLDSig)
	cm := etree.NewElement("ds:CanonicalizationMethod")
	cm.CreateAttr("Algorithm", algC14NExclusivo)
	sm := etree.NewElement("ds:SignatureMethod")
	sm.CreateAttr("Algorithm", algRSASHA256)
	signedInfo.AddChild(cm)
	signedInfo.AddChild(sm)
	signedInfo.AddChild(ref)

	// Canonicaliza o SignedInfo e assina o hash com RSA-SHA256
	siCopy := signedInfo.Copy()
	removeWhitespaceNodes(siCopy)
	siCanon, err := canon.Canonicalize(siCopy)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize SignedInfo: %w", err)
	}
	siHash := sha256.Sum256(siCanon)
	sigBytes, err := rsa.SignPKCS1v15(rand.Reader, s.privKey, crypto.SHA256, siHash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign SignedInfo: %w", err)
	}
	sigB64 := base64.StdEncoding.EncodeToString(sigBytes)

	// <ds:KeyInfo> embute o certificado DER (base64, sem cabeçalho PEM)
	keyInfo := etree.NewElement("ds:KeyInfo")
	x509Data := etree.NewElement("ds:X509Data")
	x509Cert := etree.NewElement("ds:X509Certificate")
	x509Cert.SetText(base64.StdEncoding.EncodeToString(s.cert.Raw))
	x509Data.AddChild(x509Cert)
	keyInfo.AddChild(x509Data)

	// Monta o <ds:Signature> e anexa como último filho do elemento assinado
	signatureEl := etree.NewElement("ds:Signature")
	signatureEl.CreateAttr("xmlns:ds", nsXMLDSig)
	signatureEl.AddChild(signedInfo)
	sigVal := etree.NewElement("ds:SignatureValue")
	sigVal.SetText(sigB64)
	signatureEl.AddChild(sigVal)
	signatureEl.AddChild(keyInfo)

	alvo.AddChild(signatureEl)

	out := etree.NewDocument()
	out.SetRoot(root)
	return out.WriteToBytes()
}
