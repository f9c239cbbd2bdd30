package templates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Pair renders the plain-text and HTML variants of one email from the same
// data. The HTML variant goes through html/template, so every interpolated
// value is escaped for its context.
type Pair struct {
	name string
	text *texttemplate.Template
	html *htmltemplate.Template
}

// NewPair compiles both variants with strict missing-key semantics.
func NewPair(name, text, html string) (*Pair, error) {
	if text == "" || html == "" {
		return nil, fmt.Errorf("templates: %s: text and html templates required", name)
	}
	t, err := texttemplate.New(name + ".txt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("templates: parse %s text: %w", name, err)
	}
	h, err := htmltemplate.New(name + ".html").Option("missingkey=error").Parse(html)
	if err != nil {
		return nil, fmt.Errorf("templates: parse %s html: %w", name, err)
	}
	return &Pair{name: name, text: t, html: h}, nil
}

// MustPair is NewPair for package-level templates known to be valid.
func MustPair(name, text, html string) *Pair {
	p, err := NewPair(name, text, html)
	if err != nil {
		panic(err)
	}
	return p
}

// Render executes both variants.
func (p *Pair) Render(data any) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := p.text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("templates: execute %s text: %w", p.name, err)
	}
	if err := p.html.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("templates: execute %s html: %w", p.name, err)
	}
	return tb.String(), hb.String(), nil
}
