package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Lister fetches the current file set from a file server.
type Lister struct {
	baseURL    *url.URL
	httpClient *http.Client
	now        func() time.Time
}

// NewLister creates a lister for the file server at serverURL. A nil client
// uses http.DefaultClient.
func NewLister(serverURL string, client *http.Client) (*Lister, error) {
	u, err := ParseServerURL(serverURL)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Lister{baseURL: u, httpClient: client, now: time.Now}, nil
}

// ParseServerURL validates a file server base URL and strips any trailing
// slash.
func ParseServerURL(serverURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", serverURL)
	}
	return u, nil
}

// ListURL returns the listing endpoint.
func (l *Lister) ListURL() string {
	return l.baseURL.String() + "/files/"
}

// FileURL returns the endpoint of a single named file. The name is escaped.
func (l *Lister) FileURL(name string) string {
	return l.ListURL() + url.PathEscape(name)
}

// UploadURL returns the upload endpoint.
func (l *Lister) UploadURL() string {
	return l.baseURL.String() + "/upload"
}

// Client returns the HTTP client used for requests.
func (l *Lister) Client() *http.Client {
	return l.httpClient
}

// FetchList reads the listing endpoint and returns the parsed snapshot.
func (l *Lister) FetchList(ctx context.Context) (Snapshot, error) {
	listURL := l.ListURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return Snapshot{}, &NetworkError{Op: "GET", URL: listURL, Err: err}
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, &NetworkError{Op: "GET", URL: listURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Snapshot{}, &NetworkError{Op: "GET", URL: listURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, &NetworkError{Op: "GET", URL: listURL, Err: err}
	}

	base, _ := url.Parse(listURL)
	format := DetectFormat(resp.Header.Get("Content-Type"), body)
	records, err := Parse(format, body, base)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Records:   records,
		FetchedAt: l.now(),
		Source:    format,
	}, nil
}
