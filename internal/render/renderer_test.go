package render

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CageChen/filedeck/internal/files"
)

func snapshot(records ...files.Record) files.Snapshot {
	return files.Snapshot{Records: records, FetchedAt: time.Now(), Source: files.FormatJSON}
}

func TestRender_Empty(t *testing.T) {
	r := New(Options{})
	state := r.Render(snapshot())

	if state.Status != StatusEmpty {
		t.Fatalf("expected empty status, got %s", state.Status)
	}
	if state.Message != MessageEmpty {
		t.Errorf("expected placeholder message, got %q", state.Message)
	}

	var buf bytes.Buffer
	if err := r.WriteList(&buf, state); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}
	if !strings.Contains(buf.String(), MessageEmpty) {
		t.Errorf("expected placeholder in HTML, got %s", buf.String())
	}
	if strings.Contains(buf.String(), "<table") {
		t.Error("expected no table for empty snapshot")
	}
}

func TestRender_Rows(t *testing.T) {
	r := New(Options{
		Previewable: func(rec files.Record) bool { return rec.Ext() == ".png" },
	})
	modified := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)
	state := r.Render(snapshot(
		files.Record{Name: "pic.png", URL: "http://fs/files/pic.png", Size: 1536, Modified: modified},
		files.Record{Name: "a b.bin", URL: "http://fs/files/a%20b.bin", Size: 10},
	))

	if state.Status != StatusReady || len(state.Rows) != 2 {
		t.Fatalf("unexpected state: %+v", state)
	}
	row := state.Rows[0]
	if row.Size != "1.5 KB" {
		t.Errorf("expected size 1.5 KB, got %q", row.Size)
	}
	if row.Modified != "2024-05-01 09:30" {
		t.Errorf("unexpected modified %q", row.Modified)
	}
	if !row.Previewable || state.Rows[1].Previewable {
		t.Error("expected only the png row to be previewable")
	}
	if state.Rows[1].DeleteURL != "/api/files/a%20b.bin" {
		t.Errorf("unexpected delete url %q", state.Rows[1].DeleteURL)
	}
	if state.Rows[1].Modified != "-" {
		t.Errorf("expected - for unknown date, got %q", state.Rows[1].Modified)
	}
}

func TestRender_EscapesUntrustedNames(t *testing.T) {
	r := New(Options{})
	state := r.Render(snapshot(files.Record{
		Name: `"><script>alert(1)</script>.txt`,
		URL:  "javascript:alert(1)",
	}))

	var buf bytes.Buffer
	if err := r.WriteList(&buf, state); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("expected script tag to be escaped, got %s", out)
	}
	if strings.Contains(out, `href="javascript:`) {
		t.Errorf("expected javascript url to be filtered, got %s", out)
	}
}

func TestRenderFailure_ReplacesRows(t *testing.T) {
	r := New(Options{})
	r.Render(snapshot(files.Record{Name: "keep.txt"}))

	state := r.RenderFailure(errors.New("connection refused"))
	if state.Status != StatusFailed || len(state.Rows) != 0 {
		t.Fatalf("expected failed state without rows, got %+v", state)
	}
	if state.Message != MessageFailed || state.Error != "connection refused" {
		t.Errorf("unexpected failure state: %+v", state)
	}
	if _, ok := r.Lookup("keep.txt"); ok {
		t.Error("expected previous snapshot to be dropped")
	}

	var buf bytes.Buffer
	if err := r.WriteList(&buf, state); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}
	if !strings.Contains(buf.String(), "error-message") {
		t.Errorf("expected error class, got %s", buf.String())
	}
}

func TestSubscribeAndVersion(t *testing.T) {
	r := New(Options{})
	var seen []uint64
	r.Subscribe(func(s State) { seen = append(seen, s.Version) })

	r.Render(snapshot())
	r.Render(snapshot(files.Record{Name: "x"}))

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("unexpected versions %v", seen)
	}
	if r.State().Version != 2 {
		t.Errorf("expected current version 2, got %d", r.State().Version)
	}
	if rec, ok := r.Lookup("x"); !ok || rec.Name != "x" {
		t.Error("expected lookup of displayed record")
	}
}

func TestWritePage(t *testing.T) {
	r := New(Options{})
	r.Render(snapshot(files.Record{Name: "doc.md", Size: 2048}))

	var buf bytes.Buffer
	if err := r.WritePage(&buf, "Files"); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<title>Files</title>", `data-name="doc.md"`, "2 KB", `id="uploadForm"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestWriteTable(t *testing.T) {
	r := New(Options{})

	var buf bytes.Buffer
	if err := WriteTable(&buf, r.Render(snapshot())); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != MessageEmpty {
		t.Errorf("expected placeholder, got %q", buf.String())
	}

	buf.Reset()
	if err := WriteTable(&buf, r.Render(snapshot(files.Record{Name: "big.iso", Size: 3 * 1024 * 1024}))); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if !strings.Contains(buf.String(), "big.iso") || !strings.Contains(buf.String(), "3 MB") {
		t.Errorf("unexpected table output:\n%s", buf.String())
	}
}

func TestSubscribe_DeliversInVersionOrder(t *testing.T) {
	r := New(Options{})
	var (
		mu      sync.Mutex
		seen    []uint64
		first   = make(chan struct{})
		release = make(chan struct{})
	)
	r.Subscribe(func(s State) {
		if s.Version == 1 {
			close(first)
			<-release
		}
		mu.Lock()
		seen = append(seen, s.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Render(snapshot())
	}()
	<-first
	go func() {
		defer wg.Done()
		r.RenderFailure(errors.New("down"))
	}()

	deadline := time.Now().Add(2 * time.Second)
	for r.State().Version != 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.State().Version != 2 {
		t.Fatal("second render did not replace the state")
	}
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("states delivered out of order: %v", seen)
	}
}

func TestDeliver_SkipsSupersededStates(t *testing.T) {
	r := New(Options{})
	var seen []uint64
	r.Subscribe(func(s State) { seen = append(seen, s.Version) })

	r.deliver(State{Version: 2})
	r.deliver(State{Version: 1})
	r.deliver(State{Version: 2})

	if len(seen) != 1 || seen[0] != 2 {
		t.Errorf("expected only version 2, got %v", seen)
	}
}
