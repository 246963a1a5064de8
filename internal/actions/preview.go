package actions

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/CageChen/filedeck/internal/config"
	"github.com/CageChen/filedeck/internal/files"
	"github.com/CageChen/filedeck/internal/metrics"
)

// Kind is how a file is previewed.
type Kind string

// Preview kinds.
const (
	KindImage       Kind = "image"
	KindText        Kind = "text"
	KindUnavailable Kind = "unavailable"
)

// MessageUnavailable is shown for files without a preview.
const MessageUnavailable = "Preview not available for this file type"

// Classifier decides the preview kind from a file name.
type Classifier interface {
	IsImageFile(name string) bool
	IsTextFile(name string) bool
	IsMarkdownFile(name string) bool
}

// Extensions is a Classifier over fixed extension lists. Entries are
// lowercase and include the leading dot.
type Extensions struct {
	Image    []string
	Text     []string
	Markdown []string
}

// DefaultExtensions is used when no Classifier is configured. It holds the
// same lists as the default configuration.
var DefaultExtensions = defaultExtensions()

func defaultExtensions() Extensions {
	cfg := config.DefaultConfig()
	return Extensions{
		Image:    cfg.ImageExtensions,
		Text:     cfg.TextExtensions,
		Markdown: cfg.MarkdownExtensions,
	}
}

func (e Extensions) IsImageFile(name string) bool    { return matchExt(name, e.Image) }
func (e Extensions) IsTextFile(name string) bool     { return matchExt(name, e.Text) }
func (e Extensions) IsMarkdownFile(name string) bool { return matchExt(name, e.Markdown) }

func matchExt(name string, exts []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext != "" && ext == e {
			return true
		}
	}
	return false
}

// Classify returns the preview kind of a file name.
func Classify(c Classifier, name string) Kind {
	switch {
	case c.IsImageFile(name):
		return KindImage
	case c.IsTextFile(name):
		return KindText
	default:
		return KindUnavailable
	}
}

// Preview is the read-only view of one file.
type Preview struct {
	Kind      Kind   `json:"kind"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Text      string `json:"text,omitempty"`
	HTML      string `json:"html,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Previewable reports whether a record has an image or text preview.
func (d *Dispatcher) Previewable(rec files.Record) bool {
	return Classify(d.classifier(), rec.Name) != KindUnavailable
}

func (d *Dispatcher) classifier() Classifier {
	if d.cfg.Classifier == nil {
		return DefaultExtensions
	}
	return d.cfg.Classifier
}

// Preview builds the preview of rec. Images are shown by URL, text files
// are fetched, and everything else gets the unavailable message. Only
// rec.Name is used to address the file. Nothing on the server changes.
func (d *Dispatcher) Preview(ctx context.Context, rec files.Record) (*Preview, error) {
	c := d.classifier()
	// The listing's url field is untrusted: content is always read from the
	// file server's own endpoint for the name.
	fileURL := d.lister.FileURL(rec.Name)
	p := &Preview{
		Kind: Classify(c, rec.Name),
		Name: rec.Name,
		URL:  fileURL,
	}

	switch p.Kind {
	case KindImage:
	case KindText:
		text, truncated, err := d.fetchText(ctx, fileURL)
		if err != nil {
			metrics.RecordAction("preview", "error")
			d.notifier.Notify(Errorf("Failed to preview %s: %v", rec.Name, err))
			return nil, err
		}
		p.Text = text
		p.Truncated = truncated
		if c.IsMarkdownFile(rec.Name) {
			if result, err := d.markdown.Render([]byte(text)); err == nil {
				p.HTML = result.HTML
			}
		}
	default:
		p.Message = MessageUnavailable
	}

	metrics.RecordAction("preview", string(p.Kind))
	return p, nil
}

// fetchText reads at most PreviewLimit bytes of the file.
func (d *Dispatcher) fetchText(ctx context.Context, target string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false, &files.NetworkError{Op: "GET", URL: target, Err: err}
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", false, &files.NetworkError{Op: "GET", URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, &files.NetworkError{Op: "GET", URL: target, StatusCode: resp.StatusCode}
	}

	limit := int64(d.cfg.PreviewLimit.Bytes())
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", false, &files.NetworkError{Op: "GET", URL: target, Err: err}
	}
	truncated := int64(len(data)) > limit
	if truncated {
		data = data[:limit]
	}
	return strings.ToValidUTF8(string(data), "�"), truncated, nil
}
