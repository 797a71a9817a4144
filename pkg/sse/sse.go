package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/gin-gonic/gin"
)

// Client is one connected event-stream consumer.
type Client struct {
	id     string
	groups map[string]bool
	ch     chan string
	done   chan struct{}
}

// Hub fans events out to clients grouped by topic (here: one group per
// tracked alert).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]bool // group -> clientID set
	retryMs int
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]bool),
		retryMs: 5000,
	}
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: id, groups: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[id] = c
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		for g := range c.groups {
			delete(h.groups[g], id)
		}
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

func (h *Hub) Join(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.groups[group] = true
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]bool)
	}
	h.groups[group][id] = true
}

// SendToGroup delivers to every member; slow clients drop events rather
// than block the sender.
func (h *Hub) SendToGroup(group, data string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.groups[group] {
		if c := h.clients[id]; c != nil {
			select {
			case c.ch <- formatData(data):
			default:
			}
		}
	}
}

func (h *Hub) SendToGroupJSON(group string, v interface{}) {
	b, _ := json.Marshal(v)
	h.SendToGroup(group, string(b))
}

// GroupSize reports how many clients currently watch a group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Serve streams events to the client until it disconnects. The caller is
// responsible for RemoveClient afterwards.
func (h *Hub) Serve(c *gin.Context, client *Client) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-client.done:
			return false
		case <-c.Request.Context().Done():
			return false
		case msg := <-client.ch:
			fmt.Fprint(w, msg)
			return true
		}
	})
}

func formatData(data string) string {
	return fmt.Sprintf("data: %s\n\n", data)
}
