// Package render owns the displayed file list and turns snapshots into rows.
package render

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/CageChen/filedeck/internal/files"
)

//go:embed templates/*.html
var templateFS embed.FS

// Status describes what the file list currently shows.
type Status string

// Display statuses.
const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// Placeholder messages shown instead of rows.
const (
	MessageEmpty   = "No files uploaded yet"
	MessageFailed  = "Failed to load file list"
	MessageLoading = "Loading files..."
)

// Row is one rendered file record. Action URLs carry the escaped record
// name so handlers receive the identity directly.
type Row struct {
	Name        string    `json:"name"`
	Size        string    `json:"size"`
	Modified    string    `json:"modified"`
	URL         string    `json:"url"`
	DeleteURL   string    `json:"deleteUrl"`
	PreviewURL  string    `json:"previewUrl"`
	Bytes       int64     `json:"bytes"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	Previewable bool      `json:"previewable"`
}

// State is the UI state of the file list. It is only replaced by Render
// and RenderFailure.
type State struct {
	Status     Status    `json:"status"`
	Rows       []Row     `json:"rows"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	Version    uint64    `json:"version"`
	RenderedAt time.Time `json:"renderedAt"`
}

// Options configures a Renderer.
type Options struct {
	DateLayout string
	// APIPrefix is prepended to delete and preview action URLs
	APIPrefix string
	// Previewable reports whether a record gets a preview action
	Previewable func(files.Record) bool
}

// Renderer converts snapshots into rows and keeps the current display.
type Renderer struct {
	opts Options
	tmpl *template.Template

	mu       sync.RWMutex
	state    State
	snapshot files.Snapshot
	subs     []func(State)
	now      func() time.Time

	// deliverMu orders subscriber calls; delivered is the last version sent.
	deliverMu sync.Mutex
	delivered uint64
}

// New creates a renderer showing the loading state.
func New(opts Options) *Renderer {
	if opts.DateLayout == "" {
		opts.DateLayout = files.DefaultDateLayout
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}
	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))

	return &Renderer{
		opts:  opts,
		tmpl:  tmpl,
		state: State{Status: StatusLoading, Message: MessageLoading, Rows: []Row{}},
		now:   time.Now,
	}
}

// Subscribe registers a callback invoked with new states in version order.
// A state superseded before it could be delivered is skipped. Callbacks run
// one at a time and must not call back into Render.
func (r *Renderer) Subscribe(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// Render replaces the display with the rows of snapshot.
func (r *Renderer) Render(snapshot files.Snapshot) State {
	rows := make([]Row, 0, len(snapshot.Records))
	for _, rec := range snapshot.Records {
		rows = append(rows, r.row(rec))
	}

	next := State{Status: StatusReady, Rows: rows}
	if len(rows) == 0 {
		next.Status = StatusEmpty
		next.Message = MessageEmpty
	}
	return r.replace(next, snapshot)
}

// RenderFailure replaces the display with the failed-to-load state. The
// previous rows are dropped.
func (r *Renderer) RenderFailure(err error) State {
	next := State{Status: StatusFailed, Message: MessageFailed, Rows: []Row{}}
	if err != nil {
		next.Error = err.Error()
	}
	return r.replace(next, files.Snapshot{})
}

func (r *Renderer) replace(next State, snapshot files.Snapshot) State {
	r.mu.Lock()
	next.Version = r.state.Version + 1
	next.RenderedAt = r.now()
	r.state = next
	r.snapshot = snapshot
	r.mu.Unlock()

	r.deliver(next)
	return next
}

func (r *Renderer) deliver(next State) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()
	if next.Version <= r.delivered {
		return
	}
	r.delivered = next.Version

	r.mu.RLock()
	subs := make([]func(State), len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	for _, fn := range subs {
		fn(next)
	}
}

func (r *Renderer) row(rec files.Record) Row {
	escaped := url.PathEscape(rec.Name)
	row := Row{
		Name:       rec.Name,
		Size:       files.FormatSize(rec.Size),
		Modified:   files.FormatDate(rec.Modified, r.opts.DateLayout),
		URL:        rec.URL,
		DeleteURL:  r.opts.APIPrefix + "/files/" + escaped,
		PreviewURL: r.opts.APIPrefix + "/preview/" + escaped,
		Bytes:      rec.Size,
		ModifiedAt: rec.Modified,
	}
	if r.opts.Previewable != nil {
		row.Previewable = r.opts.Previewable(rec)
	}
	return row
}

// State returns the current display state.
func (r *Renderer) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Lookup returns the record displayed under name.
func (r *Renderer) Lookup(name string) (files.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot.Find(name)
}

// WriteList writes the file list fragment for state.
func (r *Renderer) WriteList(w io.Writer, state State) error {
	return r.tmpl.ExecuteTemplate(w, "list.html", state)
}

// PageData is the data of the full page.
type PageData struct {
	Title string
	State State
}

// WritePage writes the full page around the current state.
func (r *Renderer) WritePage(w io.Writer, title string) error {
	return r.tmpl.ExecuteTemplate(w, "page.html", PageData{Title: title, State: r.State()})
}
