// Package markdown renders markdown previews with Goldmark, GFM extensions and syntax highlighting.
package markdown

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Heading is an entry of the preview outline
type Heading struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Result contains a rendered preview
type Result struct {
	HTML     string    `json:"html"`
	Title    string    `json:"title"`
	Headings []Heading `json:"headings"`
}

// Renderer converts untrusted markdown into HTML. Raw HTML in the source
// is dropped.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a markdown renderer with extensions
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	return &Renderer{md: md}
}

// Render converts markdown source to HTML and collects its headings
func (r *Renderer) Render(source []byte) (*Result, error) {
	doc := r.md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, err
	}

	headings := collectHeadings(doc, source)
	title := ""
	if len(headings) > 0 {
		title = headings[0].Title
	}

	return &Result{
		HTML:     buf.String(),
		Title:    title,
		Headings: headings,
	}, nil
}

// collectHeadings walks the AST for headings. IDs come from the
// auto heading id parser option.
func collectHeadings(doc ast.Node, source []byte) []Heading {
	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		h := Heading{
			Level: heading.Level,
			Title: extractText(heading, source),
		}
		if id, ok := heading.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				h.ID = string(b)
			}
		}
		headings = append(headings, h)
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// extractText extracts text content from a node
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.WriteString(extractText(child, source))
	}
	return buf.String()
}
