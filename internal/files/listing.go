package files

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Listing formats understood by Parse.
const (
	FormatJSON  = "json"
	FormatIndex = "index"
)

// modifiedLayouts are tried in order when the listing carries a textual
// modification time.
var modifiedLayouts = []string{
	time.RFC3339Nano,
	time.ANSIC,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-Jan-2006 15:04",
}

// DetectFormat picks the listing format from the content type, falling
// back to the first non-space byte of the body.
func DetectFormat(contentType string, body []byte) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return FormatJSON
	case strings.Contains(ct, "html"):
		return FormatIndex
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatIndex
}

// Parse decodes a listing body in the given format. Relative URLs are
// resolved against base.
func Parse(format string, body []byte, base *url.URL) ([]Record, error) {
	var (
		records []Record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = parseJSON(body, base)
	case FormatIndex:
		records, err = parseIndex(body, base)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, &ParseError{Format: format, Err: err}
	}
	return dedupe(records), nil
}

// jsonEntry is one element of a structured listing.
type jsonEntry struct {
	Name     string          `json:"name"`
	URL      string          `json:"url"`
	Size     *int64          `json:"size"`
	Modified json.RawMessage `json:"modified"`
	IsDir    bool            `json:"isDir"`
}

func parseJSON(body []byte, base *url.URL) ([]Record, error) {
	var entries []jsonEntry
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Files *[]jsonEntry `json:"files"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		if wrapped.Files == nil {
			return nil, errors.New(`missing "files" field`)
		}
		entries = *wrapped.Files
	} else if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	for i, e := range entries {
		if e.IsDir {
			continue
		}
		if e.Name == "" {
			return nil, fmt.Errorf("entry %d: missing name", i)
		}
		var size int64
		if e.Size != nil {
			if *e.Size < 0 {
				return nil, fmt.Errorf("entry %q: negative size %d", e.Name, *e.Size)
			}
			size = *e.Size
		}
		modified, err := parseModified(e.Modified)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Name, err)
		}
		records = append(records, Record{
			Name:     e.Name,
			URL:      recordURL(base, e.URL, e.Name),
			Size:     size,
			Modified: modified,
		})
	}
	return records, nil
}

// parseModified accepts epoch milliseconds or a textual timestamp.
func parseModified(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		return parseTimeText(s)
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(raw), 64)
		if ferr != nil {
			return time.Time{}, fmt.Errorf("invalid modified value %s", raw)
		}
		ms = int64(f)
	}
	return time.UnixMilli(ms), nil
}

func parseTimeText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return time.Time{}, nil
	}
	for _, layout := range modifiedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid modified time %q", s)
}

func parseIndex(body []byte, base *url.URL) ([]Record, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var records []Record
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if rec, ok := recordFromAnchor(n, base); ok {
				records = append(records, rec)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return records, nil
}

// recordFromAnchor builds a record from a listing link. Directory links,
// parent links and sort links are skipped.
func recordFromAnchor(a *html.Node, base *url.URL) (Record, bool) {
	href, ok := attr(a, "href")
	if !ok || href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
		return Record{}, false
	}
	if strings.HasSuffix(href, "/") {
		return Record{}, false
	}

	text := strings.TrimSpace(textContent(a))
	if text == "" {
		text = href[strings.LastIndex(href, "/")+1:]
	}
	name := unescapeName(text)
	rec := Record{
		Name: name,
		URL:  recordURL(base, href, name),
	}

	// Table listings carry size and modification time in the cells that
	// follow the link's cell.
	if cell := ancestor(a, atom.Td); cell != nil {
		cells := followingCells(cell)
		if len(cells) > 0 {
			if sizeText := strings.TrimSpace(textContent(cells[0])); sizeText == "-" {
				return Record{}, false
			} else if size, err := strconv.ParseInt(sizeText, 10, 64); err == nil && size >= 0 {
				rec.Size = size
			}
		}
		if len(cells) > 1 {
			if t, err := parseTimeText(textContent(cells[1])); err == nil {
				rec.Modified = t
			}
		}
	}
	return rec, true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func ancestor(n *html.Node, a atom.Atom) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == a {
			return p
		}
	}
	return nil
}

func followingCells(td *html.Node) []*html.Node {
	var cells []*html.Node
	for s := td.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.DataAtom == atom.Td {
			cells = append(cells, s)
		}
	}
	return cells
}

// unescapeName decodes a URL-escaped name for display, keeping the raw
// text when it is not a valid escape sequence.
func unescapeName(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

// recordURL resolves href against base. An empty href, or one pointing at
// another scheme or host, is replaced by the escaped name under base.
func recordURL(base *url.URL, href, name string) string {
	fallback := resolve(base, url.PathEscape(name))
	if href == "" {
		return fallback
	}
	resolved := resolve(base, href)
	if base == nil {
		return resolved
	}
	u, err := url.Parse(resolved)
	if err != nil || u.Scheme != base.Scheme || u.Host != base.Host {
		return fallback
	}
	return resolved
}

func resolve(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// dedupe keeps the first record for each name, preserving order.
func dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		out = append(out, r)
	}
	return out
}
