package xmldsig

import (
	"strings"

	"github.com/beevik/etree"
)

// findElementByID busca em profundidade o elemento com atributo Id igual ao
// identificador pedido.
func findElementByID(el *etree.Element, id string) *etree.Element {
	if attr := el.SelectAttr("Id"); attr != nil && attr.Value == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findElementByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// findSignatureElement busca em profundidade o primeiro elemento <Signature>.
func findSignatureElement(el *etree.Element) *etree.Element {
	for _, child := range el.ChildElements() {
		if isSignature(child) {
			return child
		}
		if found := findSignatureElement(child); found != nil {
			return found
		}
	}
	return nil
}

func isSignature(el *etree.Element) bool {
	return strings.EqualFold(el.Tag, "Signature") || strings.HasSuffix(el.Tag, ":Signature")
}

// removeSignatureElements elimina quaisquer elementos <Signature> existentes (transform enveloped).
func removeSignatureElements(el *etree.Element) {
	var newChildren []etree.Token
	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			if isSignature(c) {
				continue
			}
			removeSignatureElements(c)
			newChildren = append(newChildren, c)
		default:
			newChildren = append(newChildren, c)
		}
	}
	el.Child = newChildren
}

// removeWhitespaceNodes remove nós de texto que contêm apenas espaços em branco
func removeWhitespaceNodes(el *etree.Element) {
	var newChildren []etree.Token
	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			removeWhitespaceNodes(c)
			newChildren = append(newChildren, c)
		case *etree.CharData:
			if strings.TrimSpace(c.Data) != "" {
				newChildren = append(newChildren, c)
			}
		default:
			newChildren = append(newChildren, c)
		}
	}
	el.Child = newChildren
}
