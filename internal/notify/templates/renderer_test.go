package templates

import (
	"strings"
	"testing"
)

func TestPairRender(t *testing.T) {
	p := MustPair("greet", "Hello {{.Name}}", "<p>Hello {{.Name}}</p>")

	text, html, err := p.Render(map[string]string{"Name": `Tom & "Jerry" <b>`})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if text != `Hello Tom & "Jerry" <b>` {
		t.Fatalf("text variant must not escape, got %q", text)
	}
	if !strings.Contains(html, "Tom &amp; &#34;Jerry&#34; &lt;b&gt;") {
		t.Fatalf("html variant not escaped: %q", html)
	}
}

func TestPairRenderMissingKey(t *testing.T) {
	p := MustPair("bad", "Hello {{.Missing}}", "<p>{{.Missing}}</p>")
	if _, _, err := p.Render(map[string]string{"Name": "x"}); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestNewPairRequiresBothVariants(t *testing.T) {
	if _, err := NewPair("empty", "text only", ""); err == nil {
		t.Fatalf("expected error when html template is empty")
	}
	if _, err := NewPair("broken", "{{.Name", "<p></p>"); err == nil {
		t.Fatalf("expected parse error")
	}
}
