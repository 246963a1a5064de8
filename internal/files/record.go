// Package files fetches file listings from a file server and normalizes them into snapshots.
package files

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Record holds the metadata of a single file in a listing.
type Record struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Ext returns the lowercased extension of the record name, including the dot.
func (r Record) Ext() string {
	return strings.ToLower(path.Ext(r.Name))
}

// Snapshot is one complete listing of files at a point in time.
type Snapshot struct {
	Records   []Record  `json:"records"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source"`
}

// Len returns the number of records in the snapshot
func (s Snapshot) Len() int {
	return len(s.Records)
}

// Find returns the record with the given name.
func (s Snapshot) Find(name string) (Record, bool) {
	for _, r := range s.Records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}

// NetworkError reports a request that failed or returned a non-2xx status.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: server returned %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError reports a listing response that could not be understood.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s listing: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
