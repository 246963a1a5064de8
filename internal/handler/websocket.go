package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/CageChen/filedeck/internal/actions"
	"github.com/CageChen/filedeck/internal/logging"
	"github.com/CageChen/filedeck/internal/render"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is a message pushed to pages.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// RenderPayload carries a new list state and its HTML fragment.
type RenderPayload struct {
	State render.State `json:"state"`
	HTML  string       `json:"html"`
}

// Hub pushes re-renders and notices to every connected page. It is the
// Notifier of the UI dispatcher.
type Hub struct {
	renderer *render.Renderer
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
}

// NewHub creates a hub that follows the states of renderer.
func NewHub(renderer *render.Renderer) *Hub {
	h := &Hub{
		renderer: renderer,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}
	renderer.Subscribe(h.OnRender)
	return h
}

// HandleWS upgrades the connection and sends the current state.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() {
		h.removeClient(conn)
		_ = conn.Close()
	}()

	lock := h.addClient(conn)
	if msg, err := h.renderMessage(h.renderer.State()); err == nil {
		lock.Lock()
		err = conn.WriteMessage(websocket.TextMessage, msg)
		lock.Unlock()
		if err != nil {
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// OnRender broadcasts a new list state.
func (h *Hub) OnRender(state render.State) {
	data, err := h.renderMessage(state)
	if err != nil {
		logging.L().Error("render broadcast failed", zap.Error(err))
		return
	}
	h.broadcast(data)
}

// Notify broadcasts a notice.
func (h *Hub) Notify(n actions.Notice) {
	data, err := json.Marshal(WSMessage{Type: "notice", Payload: n})
	if err != nil {
		return
	}
	h.broadcast(data)
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) renderMessage(state render.State) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.renderer.WriteList(&buf, state); err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{
		Type:    "render",
		Payload: RenderPayload{State: state, HTML: buf.String()},
	})
}

func (h *Hub) addClient(conn *websocket.Conn) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock := &sync.Mutex{}
	h.clients[conn] = lock
	return lock
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *Hub) broadcast(data []byte) {
	type client struct {
		conn *websocket.Conn
		lock *sync.Mutex
	}
	h.mu.RLock()
	clients := make([]client, 0, len(h.clients))
	for conn, lock := range h.clients {
		clients = append(clients, client{conn, lock})
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		cl.lock.Lock()
		err := cl.conn.WriteMessage(websocket.TextMessage, data)
		cl.lock.Unlock()
		if err != nil {
			h.removeClient(cl.conn)
		}
	}
}
