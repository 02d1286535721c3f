package services

import (
	"fmt"
	"strings"

	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"

	"github.com/beevik/etree"
)

const (
	NamespaceRDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceCC       = "http://creativecommons.org/ns#"
	NamespaceCCLegacy = "http://web.resource.org/cc/"
)

// ParseLicenseDocument reads a license response or RDF payload.
func ParseLicenseDocument(raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidLicenseDocument, err)
	}
	if doc.Root() == nil {
		return nil, domainerrors.ErrInvalidLicenseDocument
	}
	return doc, nil
}

// FetchLicenseRDF reduces a license document to its rdf:RDF element, keeping
// only the cc:Work and cc:License descriptions, and serializes the result.
func FetchLicenseRDF(doc *etree.Document) (string, error) {
	if doc == nil || doc.Root() == nil {
		return "", domainerrors.ErrInvalidLicenseDocument
	}
	found := findRDF(doc.Root())
	if found == nil {
		return "", domainerrors.ErrInvalidLicenseDocument
	}

	out := etree.NewElement(found.FullTag())
	for _, attr := range found.Attr {
		out.CreateAttr(attr.FullKey(), attr.Value)
	}
	for _, decl := range inheritedNamespaces(found) {
		if out.SelectAttr(decl.FullKey()) == nil {
			out.CreateAttr(decl.FullKey(), decl.Value)
		}
	}
	for _, child := range found.ChildElements() {
		if isCCNamespace(child.NamespaceURI()) && (child.Tag == "Work" || child.Tag == "License") {
			out.AddChild(child.Copy())
		}
	}

	result := etree.NewDocument()
	result.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	result.SetRoot(out)
	result.Indent(2)
	rendered, err := result.WriteToString()
	if err != nil {
		return "", fmt.Errorf("render license rdf: %w", err)
	}
	return rendered, nil
}

// LicenseURI returns the license URI declared by an RDF document: the
// rdf:about of cc:License, falling back to the cc:license resource of cc:Work.
func LicenseURI(doc *etree.Document) string {
	if doc == nil || doc.Root() == nil {
		return ""
	}
	found := findRDF(doc.Root())
	if found == nil {
		return ""
	}
	fallback := ""
	for _, child := range found.ChildElements() {
		if !isCCNamespace(child.NamespaceURI()) {
			continue
		}
		switch child.Tag {
		case "License":
			if about := rdfAttr(child, "about"); about != "" {
				return about
			}
		case "Work":
			for _, link := range child.ChildElements() {
				if link.Tag == "license" && isCCNamespace(link.NamespaceURI()) && fallback == "" {
					fallback = rdfAttr(link, "resource")
				}
			}
		}
	}
	return fallback
}

func findRDF(el *etree.Element) *etree.Element {
	if el.Tag == "RDF" && el.NamespaceURI() == NamespaceRDF {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findRDF(child); found != nil {
			return found
		}
	}
	return nil
}

// inheritedNamespaces collects xmlns declarations from ancestors of el, nearest first.
func inheritedNamespaces(el *etree.Element) []etree.Attr {
	seen := map[string]struct{}{}
	var out []etree.Attr
	for parent := el.Parent(); parent != nil; parent = parent.Parent() {
		for _, attr := range parent.Attr {
			if attr.Space != "xmlns" && !(attr.Space == "" && attr.Key == "xmlns") {
				continue
			}
			key := attr.FullKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, attr)
		}
	}
	return out
}

func rdfAttr(el *etree.Element, key string) string {
	for _, attr := range el.Attr {
		if attr.Key == key && attr.NamespaceURI() == NamespaceRDF {
			return strings.TrimSpace(attr.Value)
		}
	}
	return ""
}

func isCCNamespace(uri string) bool {
	return uri == NamespaceCC || uri == NamespaceCCLegacy
}
