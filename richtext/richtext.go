// Package richtext translates meeting chat messages that arrive as sanitized
// HTML, leaving markup, code and opted-out elements untouched.
package richtext

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/orbitsmeet/livetl"
)

// DefaultIgnoredTags are elements whose text is never translated.
var DefaultIgnoredTags = []string{"code", "pre", "script", "style", "kbd", "samp", "textarea"}

// NoTranslateAttr marks an element whose subtree is left as is.
const NoTranslateAttr = "data-no-translate"

// Backend is the part of the translation service the translator needs.
// *livetl.Service satisfies it.
type Backend interface {
	BatchTranslate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]*livetl.Result, error)
	DetectLanguage(ctx context.Context, text string) string
}

// Result is a translated chat message.
type Result struct {
	Content         string // Translated HTML fragment
	SourceLang      string // Source language, detected when not supplied
	Direction       string // Text direction of the target language
	TranslatedCount int    // Text nodes rewritten
	CachedCount     int    // Unique texts answered from the cache
	TotalNodes      int    // Translatable text nodes found
}

// Translator extracts text nodes from an HTML fragment, translates the unique
// ones in a single batch and writes them back in place.
type Translator struct {
	backend     Backend
	ignoredTags map[string]bool
}

// Option configures a Translator.
type Option func(*Translator)

// WithIgnoredTags replaces the default ignored element list.
func WithIgnoredTags(tags ...string) Option {
	return func(t *Translator) {
		t.ignoredTags = make(map[string]bool, len(tags))
		for _, tag := range tags {
			t.ignoredTags[strings.ToLower(tag)] = true
		}
	}
}

// New creates a Translator backed by backend.
func New(backend Backend, opts ...Option) *Translator {
	t := &Translator{backend: backend}
	WithIgnoredTags(DefaultIgnoredTags...)(t)

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// textNode is a translatable text node and its trimmed content.
type textNode struct {
	node *html.Node
	text string
}

// Translate translates the HTML fragment content. An empty sourceLang is
// detected from the message text. When source and target match, the content
// is returned unchanged.
func (t *Translator) Translate(ctx context.Context, content, sourceLang, targetLang string) (*Result, error) {
	if targetLang == "" {
		return nil, errors.New("richtext: target language is required")
	}

	doc, err := parseFragment(content)
	if err != nil {
		return nil, fmt.Errorf("richtext: failed to parse HTML: %w", err)
	}

	nodes := t.extract(doc.Selection)
	result := &Result{
		Content:    content,
		SourceLang: sourceLang,
		Direction:  livetl.GetDirection(targetLang),
		TotalNodes: len(nodes),
	}
	if len(nodes) == 0 {
		return result, nil
	}

	// Unique texts in document order
	var unique []string
	index := make(map[string]int)
	for _, n := range nodes {
		if _, ok := index[n.text]; !ok {
			index[n.text] = len(unique)
			unique = append(unique, n.text)
		}
	}

	if result.SourceLang == "" {
		result.SourceLang = t.backend.DetectLanguage(ctx, strings.Join(unique, "\n"))
	}
	if livetl.BaseLanguage(result.SourceLang) == livetl.BaseLanguage(targetLang) {
		return result, nil
	}

	translated, err := t.backend.BatchTranslate(ctx, unique, result.SourceLang, targetLang)
	if err != nil {
		return nil, err
	}

	for _, r := range translated {
		if r != nil && r.FromCache {
			result.CachedCount++
		}
	}

	for _, n := range nodes {
		r := translated[index[n.text]]
		if r == nil {
			continue
		}
		n.node.Data = preserveWhitespace(n.node.Data, r.Translation)
		result.TranslatedCount++
	}

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("richtext: failed to serialize HTML: %w", err)
	}
	result.Content = out

	return result, nil
}

// parseFragment parses content as the children of a <body> and hangs the
// result off a detached container, so serializing the document yields the
// fragment without an html/head/body wrapper.
func parseFragment(content string) (*goquery.Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(container), nil
}

// extract collects non-blank text nodes outside ignored subtrees.
func (t *Translator) extract(root *goquery.Selection) []textNode {
	var nodes []textNode

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && t.skip(n) {
			return
		}

		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				nodes = append(nodes, textNode{node: n, text: trimmed})
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range root.Nodes {
		walk(n)
	}
	return nodes
}

func (t *Translator) skip(n *html.Node) bool {
	if t.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == NoTranslateAttr {
			return true
		}
	}
	return false
}

// preserveWhitespace preserves the original leading/trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 && trailingLen < len(original) {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + translated + trailing
}
