package richtext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/orbitsmeet/livetl"
)

// fakeBackend translates from a fixed table and records what it was asked.
type fakeBackend struct {
	translations map[string]string
	cached       map[string]bool
	detected     string
	err          error

	batches  [][]string
	detectIn string
}

func (f *fakeBackend) BatchTranslate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]*livetl.Result, error) {
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}

	results := make([]*livetl.Result, len(texts))
	for i, text := range texts {
		translation, ok := f.translations[text]
		if !ok {
			translation = "[" + text + "]"
		}
		results[i] = &livetl.Result{Translation: translation, FromCache: f.cached[text], Confidence: 0.9}
	}
	return results, nil
}

func (f *fakeBackend) DetectLanguage(ctx context.Context, text string) string {
	f.detectIn = text
	if f.detected == "" {
		return "en"
	}
	return f.detected
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		translations: map[string]string{
			"Hello":        "Hola",
			"Good morning": "Buenos días",
			"see":          "ver",
		},
		cached: map[string]bool{},
	}
}

func TestTranslator_Basic(t *testing.T) {
	backend := newBackend()
	tr := New(backend)

	res, err := tr.Translate(context.Background(), `<p>Hello</p><p><b>Good morning</b></p>`, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	want := `<p>Hola</p><p><b>Buenos días</b></p>`
	if res.Content != want {
		t.Errorf("Content = %q, want %q", res.Content, want)
	}
	if res.TotalNodes != 2 || res.TranslatedCount != 2 {
		t.Errorf("TotalNodes=%d TranslatedCount=%d, want 2 and 2", res.TotalNodes, res.TranslatedCount)
	}
	if res.Direction != "ltr" {
		t.Errorf("Direction = %q, want ltr", res.Direction)
	}
	if strings.Contains(res.Content, "<body>") || strings.Contains(res.Content, "<html>") {
		t.Errorf("Output should be a fragment, got %q", res.Content)
	}
}

func TestTranslator_IgnoredContent(t *testing.T) {
	backend := newBackend()
	tr := New(backend)

	content := `<p>Hello</p><code>Hello</code><pre>raw</pre><span data-no-translate>Good morning</span>`
	res, err := tr.Translate(context.Background(), content, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	want := `<p>Hola</p><code>Hello</code><pre>raw</pre><span data-no-translate="">Good morning</span>`
	if res.Content != want {
		t.Errorf("Content = %q, want %q", res.Content, want)
	}
	if res.TotalNodes != 1 {
		t.Errorf("TotalNodes = %d, want 1", res.TotalNodes)
	}
}

func TestTranslator_DeduplicatesAndPreservesWhitespace(t *testing.T) {
	backend := newBackend()
	tr := New(backend)

	res, err := tr.Translate(context.Background(), `<li> Hello </li><li>Hello</li>`, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if res.Content != `<li> Hola </li><li>Hola</li>` {
		t.Errorf("Content = %q", res.Content)
	}
	if len(backend.batches) != 1 || len(backend.batches[0]) != 1 {
		t.Errorf("Expected one batch with one unique text, got %v", backend.batches)
	}
	if res.TranslatedCount != 2 {
		t.Errorf("TranslatedCount = %d, want 2", res.TranslatedCount)
	}
}

func TestTranslator_CachedCount(t *testing.T) {
	backend := newBackend()
	backend.cached["Hello"] = true
	tr := New(backend)

	res, err := tr.Translate(context.Background(), `<p>Hello</p> <p>Good morning</p>`, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.CachedCount != 1 {
		t.Errorf("CachedCount = %d, want 1", res.CachedCount)
	}
}

func TestTranslator_DetectsSource(t *testing.T) {
	backend := newBackend()
	backend.detected = "en"
	tr := New(backend)

	res, err := tr.Translate(context.Background(), `<p>Hello</p>`, "", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.SourceLang != "en" {
		t.Errorf("SourceLang = %q, want en", res.SourceLang)
	}
	if backend.detectIn != "Hello" {
		t.Errorf("Detection input = %q", backend.detectIn)
	}
}

func TestTranslator_SameLanguage(t *testing.T) {
	backend := newBackend()
	tr := New(backend)

	content := `<p>Hello</p>`
	res, err := tr.Translate(context.Background(), content, "en", "en-US")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.Content != content {
		t.Errorf("Content should be unchanged, got %q", res.Content)
	}
	if len(backend.batches) != 0 {
		t.Error("No translation should be requested for the same language")
	}
}

func TestTranslator_RTLTarget(t *testing.T) {
	tr := New(newBackend())

	res, err := tr.Translate(context.Background(), `<p>Hello</p>`, "en", "ar")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.Direction != "rtl" {
		t.Errorf("Direction = %q, want rtl", res.Direction)
	}
}

func TestTranslator_NoText(t *testing.T) {
	backend := newBackend()
	tr := New(backend)

	res, err := tr.Translate(context.Background(), `<br><img src="x.png">`, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.TotalNodes != 0 || len(backend.batches) != 0 {
		t.Errorf("Expected nothing to translate, got %+v", res)
	}
}

func TestTranslator_BackendError(t *testing.T) {
	backend := newBackend()
	backend.err = errors.New("provider down")
	tr := New(backend)

	if _, err := tr.Translate(context.Background(), `<p>Hello</p>`, "en", "es"); err == nil {
		t.Error("Expected backend error to propagate")
	}
}

func TestTranslator_MissingTarget(t *testing.T) {
	tr := New(newBackend())
	if _, err := tr.Translate(context.Background(), `<p>Hello</p>`, "en", ""); err == nil {
		t.Error("Expected error for missing target language")
	}
}

func TestTranslator_CustomIgnoredTags(t *testing.T) {
	tr := New(newBackend(), WithIgnoredTags("em"))

	res, err := tr.Translate(context.Background(), `<em>Hello</em><code>see</code>`, "en", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.Content != `<em>Hello</em><code>ver</code>` {
		t.Errorf("Content = %q", res.Content)
	}
}

func TestPreserveWhitespace(t *testing.T) {
	tests := []struct {
		original, translated, want string
	}{
		{"Hello", "Hola", "Hola"},
		{"  Hello", "Hola", "  Hola"},
		{"Hello  ", "Hola", "Hola  "},
		{"\n\tHello\n", "Hola", "\n\tHola\n"},
	}

	for _, tt := range tests {
		if got := preserveWhitespace(tt.original, tt.translated); got != tt.want {
			t.Errorf("preserveWhitespace(%q, %q) = %q, want %q", tt.original, tt.translated, got, tt.want)
		}
	}
}
