package files

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input  int64
		output string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1234567, "1.18 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{2048 * 1024 * 1024 * 1024, "2048 GB"},
		{-1, "0 Bytes"},
	}

	for _, tt := range tests {
		got := FormatSize(tt.input)
		if got != tt.output {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.output)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}, ""); got != "-" {
		t.Errorf("expected - for zero time, got %q", got)
	}
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	if got := FormatDate(ts, ""); got != "2024-03-09 14:05" {
		t.Errorf("unexpected default format: %q", got)
	}
	if got := FormatDate(ts, "02/01/2006"); got != "09/03/2024" {
		t.Errorf("unexpected custom format: %q", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		contentType string
		body        string
		want        string
	}{
		{"application/json", "", FormatJSON},
		{"text/html; charset=utf-8", "[]", FormatIndex},
		{"", "  [{}]", FormatJSON},
		{"", `{"files":[]}`, FormatJSON},
		{"text/plain", "<html></html>", FormatIndex},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.contentType, []byte(tt.body)); got != tt.want {
			t.Errorf("DetectFormat(%q, %q) = %q, want %q", tt.contentType, tt.body, got, tt.want)
		}
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestParseJSON(t *testing.T) {
	base := mustURL(t, "http://example.com/files/")
	body := `{"files":[
		{"name":"a b.txt","size":1536,"modified":1700000000000},
		{"name":"docs","isDir":true},
		{"name":"c.png","size":10,"modified":"2024-01-02T03:04:05Z","url":"/raw/c.png"},
		{"name":"a b.txt","size":1}
	]}`

	records, err := Parse(FormatJSON, []byte(body), base)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}

	if records[0].Name != "a b.txt" || records[0].Size != 1536 {
		t.Errorf("record 0 mismatch: %+v", records[0])
	}
	if records[0].URL != "http://example.com/files/a%20b.txt" {
		t.Errorf("unexpected url %q", records[0].URL)
	}
	if !records[0].Modified.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("unexpected modified %v", records[0].Modified)
	}
	if records[1].URL != "http://example.com/raw/c.png" {
		t.Errorf("unexpected url %q", records[1].URL)
	}
}

func TestParseJSON_BareArray(t *testing.T) {
	records, err := Parse(FormatJSON, []byte(`[{"name":"x","size":3,"modified":1000}]`), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 1 || records[0].Name != "x" || records[0].Size != 3 {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestParseJSON_Malformed(t *testing.T) {
	bodies := []string{
		`{"files":[`,
		`{"other":[]}`,
		`[{"size":3}]`,
		`[{"name":"x","size":-3}]`,
		`[{"name":"x","modified":"yesterday"}]`,
	}
	for _, body := range bodies {
		_, err := Parse(FormatJSON, []byte(body), nil)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Parse(%q): expected ParseError, got %v", body, err)
		}
	}
}

const tableIndex = `<!DOCTYPE html>
<html><head><title>Index of /files/</title></head><body>
<h1>Index of /files/</h1>
<table>
<tr><th>Name</th><th>Size</th><th>Last Modified</th></tr>
<tr><td><a href="sub/">sub/</a></td><td>-</td><td>Mon Jan  2 15:04:05 2006
</td></tr>
<tr><td><a href="notes%20v2.md">notes%20v2.md</a></td><td>1536</td><td>Tue Mar  5 10:00:00 2024
</td></tr>
<tr><td><a href="pic.png">pic.png</a></td><td>42</td><td>garbage</td></tr>
</table></body></html>`

func TestParseIndex_Table(t *testing.T) {
	base := mustURL(t, "http://example.com/files/")
	records, err := Parse(FormatIndex, []byte(tableIndex), base)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}

	notes := records[0]
	if notes.Name != "notes v2.md" {
		t.Errorf("expected unescaped name, got %q", notes.Name)
	}
	if notes.URL != "http://example.com/files/notes%20v2.md" {
		t.Errorf("unexpected url %q", notes.URL)
	}
	if notes.Size != 1536 {
		t.Errorf("expected size 1536, got %d", notes.Size)
	}
	want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if !notes.Modified.Equal(want) {
		t.Errorf("expected modified %v, got %v", want, notes.Modified)
	}
	if !records[1].Modified.IsZero() {
		t.Errorf("expected zero time for unparsable cell, got %v", records[1].Modified)
	}
}

func TestParseIndex_Pre(t *testing.T) {
	body := `<html><body><h1>Index of /files/</h1><hr><pre>
<a href="../">../</a>
<a href="?C=N;O=D">Name</a>
<a href="report.csv">report.csv</a>
<a href="bad%zz">bad%zz</a>
</pre><hr></body></html>`

	records, err := Parse(FormatIndex, []byte(body), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	if records[0].Name != "report.csv" {
		t.Errorf("unexpected name %q", records[0].Name)
	}
	if records[1].Name != "bad%zz" {
		t.Errorf("expected raw name for invalid escape, got %q", records[1].Name)
	}
}

func TestParseIndex_Empty(t *testing.T) {
	records, err := Parse(FormatIndex, []byte("<html><body><h1>Index of /</h1></body></html>"), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %+v", records)
	}
}

func TestLister_FetchList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"one.txt","size":1,"modified":0}]`))
	}))
	defer ts.Close()

	l, err := NewLister(ts.URL+"/", nil)
	if err != nil {
		t.Fatalf("NewLister failed: %v", err)
	}
	snap, err := l.FetchList(context.Background())
	if err != nil {
		t.Fatalf("FetchList failed: %v", err)
	}
	if snap.Len() != 1 || snap.Source != FormatJSON {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if _, ok := snap.Find("one.txt"); !ok {
		t.Error("expected one.txt in snapshot")
	}
	if snap.Records[0].URL != ts.URL+"/files/one.txt" {
		t.Errorf("unexpected url %q", snap.Records[0].URL)
	}
}

func TestLister_FetchList_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	l, _ := NewLister(ts.URL, nil)

	_, err := l.FetchList(context.Background())
	var nerr *NetworkError
	if !errors.As(err, &nerr) || nerr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected NetworkError with status 500, got %v", err)
	}

	ts.Close()
	_, err = l.FetchList(context.Background())
	if !errors.As(err, &nerr) || nerr.StatusCode != 0 {
		t.Fatalf("expected transport NetworkError, got %v", err)
	}
}

func TestParseServerURL(t *testing.T) {
	if _, err := ParseServerURL("ftp://example.com"); err == nil {
		t.Error("expected error for ftp scheme")
	}
	u, err := ParseServerURL("http://example.com/base/")
	if err != nil {
		t.Fatalf("ParseServerURL failed: %v", err)
	}
	if u.String() != "http://example.com/base" {
		t.Errorf("expected trailing slash stripped, got %s", u)
	}
}

func TestParse_ForeignURLsStayOnServer(t *testing.T) {
	base := mustURL(t, "http://example.com/files/")

	body := `[
		{"name":"notes.txt","size":5,"url":"http://169.254.169.254/latest/meta-data"},
		{"name":"b.txt","size":1,"url":"https://example.com/files/b.txt"},
		{"name":"c.txt","size":1,"url":"//other.host/c.txt"}
	]`
	records, err := Parse(FormatJSON, []byte(body), base)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []string{
		"http://example.com/files/notes.txt",
		"http://example.com/files/b.txt",
		"http://example.com/files/c.txt",
	}
	for i, rec := range records {
		if rec.URL != want[i] {
			t.Errorf("record %q url = %q, want %q", rec.Name, rec.URL, want[i])
		}
	}

	index := `<html><body><pre><a href="http://other.host/secret.txt">secret.txt</a></pre></body></html>`
	records, err = Parse(FormatIndex, []byte(index), base)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 1 || records[0].URL != "http://example.com/files/secret.txt" {
		t.Errorf("unexpected index records %+v", records)
	}
}
