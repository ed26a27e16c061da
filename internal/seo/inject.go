package seo

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type metaTag struct {
	attr string // "name" or "property"
	key  string
}

// managedTags is the fixed set of head meta tags kept in sync.
var managedTags = []metaTag{
	{"name", "description"},
	{"name", "keywords"},
	{"property", "og:title"},
	{"property", "og:description"},
	{"property", "og:image"},
	{"property", "og:url"},
	{"property", "og:type"},
	{"name", "twitter:card"},
	{"name", "twitter:title"},
	{"name", "twitter:description"},
	{"name", "twitter:image"},
}

// Sync makes the head of doc reflect meta. Tags are created when missing and
// updated in place when present, so repeated calls leave a single copy of each.
func Sync(doc *html.Node, meta Metadata, siteURL string) error {
	head := find(doc, atom.Head)
	if head == nil {
		return fmt.Errorf("document has no head")
	}
	siteURL = strings.TrimRight(siteURL, "/")

	ogTitle := firstNonEmpty(meta.OGTitle, meta.Title)
	ogDesc := firstNonEmpty(meta.OGDescription, meta.Description)
	image := absolute(siteURL, meta.OGImage)
	canonical := siteURL + meta.CanonicalPath

	values := map[string]string{
		"description":         meta.Description,
		"keywords":            meta.Keywords,
		"og:title":            ogTitle,
		"og:description":      ogDesc,
		"og:image":            image,
		"og:url":              canonical,
		"og:type":             "website",
		"twitter:card":        "summary_large_image",
		"twitter:title":       ogTitle,
		"twitter:description": ogDesc,
		"twitter:image":       image,
	}

	setTitle(head, meta.Title)
	for _, t := range managedTags {
		upsert(head, atom.Meta, t.attr, t.key, "content", values[t.key])
	}
	upsert(head, atom.Link, "rel", "canonical", "href", canonical)
	return nil
}

// Injector resolves metadata for a route and applies it to a page.
type Injector struct {
	table   *Table
	siteURL string
}

// NewInjector binds a table to the public site URL used for absolute links.
func NewInjector(table *Table, siteURL string) *Injector {
	return &Injector{table: table, siteURL: siteURL}
}

// Metadata returns the entry that Navigate would apply for path.
func (i *Injector) Metadata(path string) Metadata {
	return i.table.Lookup(path)
}

// Navigate applies the metadata for path to doc. The router calls it after resolving a route.
func (i *Injector) Navigate(doc *html.Node, path string) error {
	return Sync(doc, i.table.Lookup(path), i.siteURL)
}

// Render parses page, applies the metadata for path and writes the result to w.
func (i *Injector) Render(w io.Writer, page []byte, path string) error {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	if err := i.Navigate(doc, path); err != nil {
		return err
	}
	return html.Render(w, doc)
}

func setTitle(head *html.Node, title string) {
	el := childElement(head, atom.Title)
	if el == nil {
		el = &html.Node{Type: html.ElementNode, Data: "title", DataAtom: atom.Title}
		head.AppendChild(el)
	}
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

// upsert finds the head element a with keyAttr=key, sets valAttr=val on it and
// drops any duplicates.
func upsert(head *html.Node, a atom.Atom, keyAttr, key, valAttr, val string) {
	var found *html.Node
	for c := head.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && c.DataAtom == a && attr(c, keyAttr) == key {
			if found == nil {
				found = c
			} else {
				head.RemoveChild(c)
			}
		}
		c = next
	}
	if found == nil {
		found = &html.Node{
			Type:     html.ElementNode,
			Data:     a.String(),
			DataAtom: a,
			Attr:     []html.Attribute{{Key: keyAttr, Val: key}},
		}
		head.AppendChild(found)
	}
	setAttr(found, valAttr, val)
}

func childElement(parent *html.Node, a atom.Atom) *html.Node {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func absolute(siteURL, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return siteURL + "/" + strings.TrimLeft(ref, "/")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
