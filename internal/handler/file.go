package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/CageChen/filedeck/internal/actions"
	"github.com/CageChen/filedeck/internal/files"
	"github.com/gin-gonic/gin"
)

// FileHandler handles the per-file actions: delete, upload and preview.
type FileHandler struct {
	dispatcher *actions.Dispatcher
}

// NewFileHandler creates a new file handler
func NewFileHandler(dispatcher *actions.Dispatcher) *FileHandler {
	return &FileHandler{dispatcher: dispatcher}
}

func nameParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("name"), "/")
}

// DeleteFile deletes the named file. The page asks the user first and sends
// confirm=true; without it nothing is sent to the file server.
func (h *FileHandler) DeleteFile(c *gin.Context) {
	name := nameParam(c)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file name is required"})
		return
	}

	confirmed := actions.ConfirmFunc(func(context.Context, string) bool {
		return c.Query("confirm") == "true"
	})
	err := h.dispatcher.Delete(c.Request.Context(), name, confirmed)
	switch {
	case errors.Is(err, actions.ErrCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": "delete not confirmed"})
	case err != nil:
		c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
	default:
		writeState(c, h.dispatcher.Renderer(), h.dispatcher.Renderer().State())
	}
}

// Upload forwards the multipart field "file" to the file server.
func (h *FileHandler) Upload(c *gin.Context) {
	sel := &actions.Selection{}
	if fh, err := c.FormFile(actions.UploadField); err == nil {
		sel.Select(selectedFromHeader(fh))
	}

	err := h.dispatcher.Upload(c.Request.Context(), sel)
	switch {
	case errors.Is(err, actions.ErrNoSelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a file first"})
	case errors.Is(err, actions.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
	default:
		writeState(c, h.dispatcher.Renderer(), h.dispatcher.Renderer().State())
	}
}

func selectedFromHeader(fh *multipart.FileHeader) actions.SelectedFile {
	return actions.SelectedFile{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// GetPreview returns the preview of a file shown in the current list.
func (h *FileHandler) GetPreview(c *gin.Context) {
	name := nameParam(c)
	rec, ok := h.dispatcher.Renderer().Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	p, err := h.dispatcher.Preview(c.Request.Context(), rec)
	if err != nil {
		c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// upstreamStatus maps a file server failure to the status we answer with.
func upstreamStatus(err error) int {
	var netErr *files.NetworkError
	if errors.As(err, &netErr) && netErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
