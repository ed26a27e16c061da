package seo

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const tableYAML = `
default:
  title: Tayoga
  description: Jóga studio
  keywords: jóga
  og_image: /img/og.jpg
pages:
  /:
    title: Tayoga | Jóga studio
    description: Lekce jógy v centru
  /rozvrh/:
    title: Rozvrh lekcí
    description: Týdenní rozvrh
    og_title: Rozvrh | Tayoga
    og_image: https://cdn.example/rozvrh.jpg
`

func mustTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := ParseTable([]byte(tableYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tbl
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":            "/",
		"/":           "/",
		"/rozvrh/":    "/rozvrh",
		"rozvrh":      "/rozvrh",
		"/rozvrh?a=1": "/rozvrh",
		"/o-nas#team": "/o-nas",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Fatalf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	tbl := mustTable(t)

	m := tbl.Lookup("/rozvrh")
	if m.Title != "Rozvrh lekcí" || m.CanonicalPath != "/rozvrh" {
		t.Fatalf("rozvrh = %+v", m)
	}
	m = tbl.Lookup("/neexistuje")
	if m.Title != "Tayoga" || m.CanonicalPath != "/" {
		t.Fatalf("fallback = %+v", m)
	}
}

func TestParseTableRequiresDefault(t *testing.T) {
	if _, err := ParseTable([]byte("pages: {}\n")); err == nil {
		t.Fatal("expected error without default title")
	}
	if _, err := ParseTable([]byte("default: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seo.yaml")
	if err := os.WriteFile(path, []byte(tableYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl.Pages) != 2 {
		t.Fatalf("pages = %d", len(tbl.Pages))
	}
	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func parse(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func render(t *testing.T, doc *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func headValue(doc *html.Node, a atom.Atom, keyAttr, key, valAttr string) (string, int) {
	head := find(doc, atom.Head)
	var val string
	count := 0
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a && attr(c, keyAttr) == key {
			count++
			val = attr(c, valAttr)
		}
	}
	return val, count
}

func TestNavigateCreatesTags(t *testing.T) {
	inj := NewInjector(mustTable(t), "https://tayoga.cz/")
	doc := parse(t, `<!doctype html><html><head><meta charset="utf-8"></head><body><div id="root"></div></body></html>`)

	if err := inj.Navigate(doc, "/rozvrh/"); err != nil {
		t.Fatal(err)
	}
	title := childElement(find(doc, atom.Head), atom.Title)
	if title == nil || title.FirstChild.Data != "Rozvrh lekcí" {
		t.Fatal("title not set")
	}
	checks := []struct {
		a       atom.Atom
		keyAttr string
		key     string
		valAttr string
		want    string
	}{
		{atom.Meta, "name", "description", "content", "Týdenní rozvrh"},
		{atom.Meta, "property", "og:title", "content", "Rozvrh | Tayoga"},
		{atom.Meta, "property", "og:description", "content", "Týdenní rozvrh"},
		{atom.Meta, "property", "og:image", "content", "https://cdn.example/rozvrh.jpg"},
		{atom.Meta, "property", "og:url", "content", "https://tayoga.cz/rozvrh"},
		{atom.Meta, "property", "og:type", "content", "website"},
		{atom.Meta, "name", "twitter:card", "content", "summary_large_image"},
		{atom.Meta, "name", "twitter:title", "content", "Rozvrh | Tayoga"},
		{atom.Link, "rel", "canonical", "href", "https://tayoga.cz/rozvrh"},
	}
	for _, c := range checks {
		got, n := headValue(doc, c.a, c.keyAttr, c.key, c.valAttr)
		if n != 1 || got != c.want {
			t.Fatalf("%s: got %q (x%d), want %q", c.key, got, n, c.want)
		}
	}
}

func TestNavigateIsIdempotent(t *testing.T) {
	inj := NewInjector(mustTable(t), "https://tayoga.cz")
	doc := parse(t, `<html><head><title>old</title><meta name="description" content="old"></head><body></body></html>`)

	if err := inj.Navigate(doc, "/"); err != nil {
		t.Fatal(err)
	}
	once := render(t, doc)
	if err := inj.Navigate(doc, "/"); err != nil {
		t.Fatal(err)
	}
	if twice := render(t, doc); twice != once {
		t.Fatalf("second pass changed the document:\n%s\n%s", once, twice)
	}
	if _, n := headValue(doc, atom.Meta, "name", "description", "content"); n != 1 {
		t.Fatalf("description tags = %d", n)
	}
}

func TestNavigateUpdatesAcrossRoutes(t *testing.T) {
	inj := NewInjector(mustTable(t), "https://tayoga.cz")
	doc := parse(t, `<html><head></head><body></body></html>`)

	_ = inj.Navigate(doc, "/rozvrh")
	_ = inj.Navigate(doc, "/kontakt")

	got, n := headValue(doc, atom.Meta, "property", "og:image", "content")
	if n != 1 || got != "https://tayoga.cz/img/og.jpg" {
		t.Fatalf("og:image = %q (x%d)", got, n)
	}
	canon, n := headValue(doc, atom.Link, "rel", "canonical", "href")
	if n != 1 || canon != "https://tayoga.cz/" {
		t.Fatalf("canonical = %q (x%d)", canon, n)
	}
}

func TestSyncCollapsesDuplicates(t *testing.T) {
	doc := parse(t, `<html><head><meta name="keywords" content="a"><meta name="keywords" content="b"></head></html>`)
	if err := Sync(doc, Metadata{Title: "x", Keywords: "jóga", CanonicalPath: "/"}, "https://tayoga.cz"); err != nil {
		t.Fatal(err)
	}
	got, n := headValue(doc, atom.Meta, "name", "keywords", "content")
	if n != 1 || got != "jóga" {
		t.Fatalf("keywords = %q (x%d)", got, n)
	}
}

func TestRender(t *testing.T) {
	inj := NewInjector(mustTable(t), "https://tayoga.cz")
	var buf bytes.Buffer
	if err := inj.Render(&buf, []byte(`<html><head></head><body>hi</body></html>`), "/rozvrh"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<title>Rozvrh lekcí</title>") {
		t.Fatalf("rendered = %s", buf.String())
	}
}
