package filestore

import (
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/CageChen/filedeck/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head>
<title>Index of {{.Path}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 8px; }
tr:nth-child(even) { background-color: #f2f2f2; }
</style></head><body>
<h1>Index of {{.Path}}</h1>
<table>
<tr><th>Name</th><th>Size</th><th>Last Modified</th></tr>
{{- range .Entries}}
<tr><td><a href="{{.Href}}">{{.Label}}</a></td><td>{{.Size}}</td><td>{{.Modified}}</td></tr>
{{- end}}
</table></body></html>
`))

type indexEntry struct {
	Href     string
	Label    string
	Size     string
	Modified string
}

// jsonEntry mirrors the structured listing: modified is epoch milliseconds.
type jsonEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
	IsDir    bool   `json:"isDir,omitempty"`
}

// Server exposes a Store over HTTP.
type Server struct {
	store     *Store
	maxUpload int64
}

// NewServer creates a file server for store. maxUpload caps request bodies
// on upload; zero disables the cap.
func NewServer(store *Store, maxUpload int64) *Server {
	return &Server{store: store, maxUpload: maxUpload}
}

// Router returns the gin engine serving the file API. middleware runs after
// recovery and request logging.
func (s *Server) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.Use(gin.Recovery())
	r.Use(logging.Middleware())
	r.Use(middleware...)

	r.GET("/files/", s.List)
	r.GET("/files/:name", s.Get)
	r.DELETE("/files/:name", s.Delete)
	r.POST("/upload", s.Upload)
	return r
}

// List returns the store listing as JSON or as an autoindex page.
func (s *Server) List(c *gin.Context) {
	entries, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open directory"})
		return
	}

	if wantsJSON(c) {
		out := make([]jsonEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, jsonEntry{
				Name:     e.Name,
				Size:     e.Size,
				Modified: e.ModTime.UnixMilli(),
				IsDir:    e.IsDir,
			})
		}
		c.JSON(http.StatusOK, gin.H{"files": out})
		return
	}

	rows := make([]indexEntry, 0, len(entries))
	for _, e := range entries {
		row := indexEntry{
			Href:     url.PathEscape(e.Name),
			Label:    e.Name,
			Size:     strconv.FormatInt(e.Size, 10),
			Modified: e.ModTime.UTC().Format(time.ANSIC),
		}
		if e.IsDir {
			row.Href += "/"
			row.Label += "/"
			row.Size = "-"
		}
		rows = append(rows, row)
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := indexTemplate.Execute(c.Writer, gin.H{"Path": c.Request.URL.Path, "Entries": rows}); err != nil {
		logging.L().Error("render index failed", zap.Error(err))
	}
}

func wantsJSON(c *gin.Context) bool {
	if c.Query("format") == "json" {
		return true
	}
	if c.Query("format") == "html" {
		return false
	}
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEJSON
}

// Get serves the raw content of a file.
func (s *Server) Get(c *gin.Context) {
	p, err := s.store.Path(c.Param("name"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.File(p)
}

// Delete removes a file.
func (s *Server) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := s.store.Remove(name); err != nil {
		writeStoreError(c, err)
		return
	}
	logging.L().Info("file removed", zap.String("file", name))
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "file deleted"})
}

// Upload stores every file part of a multipart request.
func (s *Server) Upload(c *gin.Context) {
	if s.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart body"})
		return
	}

	var stored []string
	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed multipart body"})
			return
		}
		if part.FileName() == "" {
			_ = part.Close()
			continue
		}

		requested := part.FileName()
		name, n, err := s.store.Save(requested, part)
		_ = part.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			case errors.Is(err, ErrInvalidName):
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
			default:
				logging.L().Error("store upload failed", zap.String("file", requested), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file: " + requested})
			}
			return
		}
		logging.L().Info("file stored", zap.String("file", name), zap.Int64("bytes", n))
		stored = append(stored, name)
	}

	if len(stored) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file data received"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Files uploaded successfully",
		"files":   stored,
	})
}

func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
	case os.IsNotExist(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case os.IsPermission(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
