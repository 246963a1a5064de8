// Package actions runs user actions against the file server and keeps the
// rendered list in sync with the server afterwards.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/CageChen/filedeck/internal/files"
	"github.com/CageChen/filedeck/internal/logging"
	"github.com/CageChen/filedeck/internal/markdown"
	"github.com/CageChen/filedeck/internal/metrics"
	"github.com/CageChen/filedeck/internal/render"
	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
)

// Action errors that involve no request to the server.
var (
	ErrCancelled   = errors.New("action cancelled")
	ErrNoSelection = errors.New("no file selected")
	ErrTooLarge    = errors.New("file exceeds upload limit")
)

// Lister fetches the current listing.
type Lister interface {
	FetchList(ctx context.Context) (files.Snapshot, error)
	FileURL(name string) string
	UploadURL() string
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Config holds dispatcher settings.
type Config struct {
	Classifier   Classifier
	MaxUpload    datasize.ByteSize
	PreviewLimit datasize.ByteSize
}

// Dispatcher handles refresh, delete, upload and preview.
type Dispatcher struct {
	lister   Lister
	renderer *render.Renderer
	client   *http.Client
	notifier Notifier
	cfg      Config
	markdown *markdown.Renderer
}

// New creates a dispatcher. A nil client uses http.DefaultClient and a nil
// notifier discards notices.
func New(lister Lister, renderer *render.Renderer, client *http.Client, notifier Notifier, cfg Config) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	if cfg.PreviewLimit == 0 {
		cfg.PreviewLimit = datasize.MB
	}
	return &Dispatcher{
		lister:   lister,
		renderer: renderer,
		client:   client,
		notifier: notifier,
		cfg:      cfg,
		markdown: markdown.NewRenderer(),
	}
}

// Renderer returns the renderer owning the display.
func (d *Dispatcher) Renderer() *render.Renderer {
	return d.renderer
}

// Refresh fetches the listing and redraws it. On failure the display shows
// the failed state instead of the previous list, unless ctx itself was
// cancelled or timed out.
func (d *Dispatcher) Refresh(ctx context.Context) (render.State, error) {
	snap, err := d.lister.FetchList(ctx)
	if err != nil && ctx.Err() != nil {
		// The caller went away; the shared display is left as it was.
		logging.L().Debug("file list refresh abandoned", zap.Error(err))
		return d.renderer.State(), err
	}
	if err != nil {
		metrics.RecordRefresh(err, 0)
		logging.L().Warn("file list refresh failed", zap.Error(err))
		d.notifier.Notify(Errorf("Failed to load file list: %v", err))
		return d.renderer.RenderFailure(err), err
	}
	metrics.RecordRefresh(nil, snap.Len())
	logging.L().Debug("file list refreshed",
		zap.Int("files", snap.Len()),
		zap.String("source", snap.Source),
	)
	return d.renderer.Render(snap), nil
}

// Delete removes one named file after confirmation, then refreshes. A
// declined confirmation sends nothing and leaves the display as is.
func (d *Dispatcher) Delete(ctx context.Context, name string, confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm(ctx, fmt.Sprintf("Are you sure you want to delete %s?", name)) {
		metrics.RecordAction("delete", "cancelled")
		return ErrCancelled
	}

	fileURL := d.lister.FileURL(name)
	if err := d.send(ctx, http.MethodDelete, fileURL, nil, ""); err != nil {
		metrics.RecordAction("delete", "error")
		logging.L().Warn("delete failed", zap.String("file", name), zap.Error(err))
		d.notifier.Notify(Errorf("Failed to delete %s: %v", name, err))
		return err
	}

	metrics.RecordAction("delete", "ok")
	logging.L().Info("file deleted", zap.String("file", name))
	d.notifier.Notify(Infof("Deleted %s", name))
	// A failed refresh is already shown as the failed list state.
	_, _ = d.Refresh(ctx)
	return nil
}

// send issues a request and drains the response, mapping failures to
// NetworkError.
func (d *Dispatcher) send(ctx context.Context, method, target string, body io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &files.NetworkError{Op: method, URL: target, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &files.NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &files.NetworkError{Op: method, URL: target, StatusCode: resp.StatusCode}
	}
	return nil
}
