// Package handler provides the HTTP handlers of the filedeck UI server.
package handler

import (
	"bytes"
	"net/http"

	"github.com/CageChen/filedeck/internal/actions"
	"github.com/CageChen/filedeck/internal/render"
	"github.com/gin-gonic/gin"
)

// ListHandler serves the page and the file list.
type ListHandler struct {
	dispatcher *actions.Dispatcher
	title      string
}

// NewListHandler creates a list handler. The page is titled title.
func NewListHandler(dispatcher *actions.Dispatcher, title string) *ListHandler {
	if title == "" {
		title = "File Upload Server"
	}
	return &ListHandler{dispatcher: dispatcher, title: title}
}

// GetPage refreshes the list and returns the full page.
func (h *ListHandler) GetPage(c *gin.Context) {
	_, _ = h.dispatcher.Refresh(c.Request.Context())

	var buf bytes.Buffer
	if err := h.dispatcher.Renderer().WritePage(&buf, h.title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GetList refreshes the list and returns the new state, as JSON or, with
// ?format=html, as the list fragment. A failed refresh is still a 200: the
// failure is part of the state.
func (h *ListHandler) GetList(c *gin.Context) {
	state, _ := h.dispatcher.Refresh(c.Request.Context())
	writeState(c, h.dispatcher.Renderer(), state)
}

func writeState(c *gin.Context, r *render.Renderer, state render.State) {
	if c.Query("format") != "html" {
		c.JSON(http.StatusOK, state)
		return
	}
	var buf bytes.Buffer
	if err := r.WriteList(&buf, state); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
