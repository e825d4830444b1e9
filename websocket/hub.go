package websocket

import (
	"log"
	"resonance/types"
	"sync"
	"time"
)

// AllJobs is the topic of clients that follow every scan job
const AllJobs = "all"

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Stop()
	BroadcastProgress(jobID, msgType, status, currentFile, message string, progress float64)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	// Registered clients mapped by job ID
	clients map[string]map[*Client]bool

	// Broadcast channel for sending messages to all clients of a job
	broadcast chan types.ProgressMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Last message seen per job, replayed to clients that join mid-scan
	latest map[string]types.ProgressMessage

	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.ProgressMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latest:     make(map[string]types.ProgressMessage),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.jobID] == nil {
				h.clients[client.jobID] = make(map[*Client]bool)
			}
			h.clients[client.jobID][client] = true
			if last, ok := h.latest[client.jobID]; ok {
				client.offer(last)
			}
			h.mu.Unlock()
			log.Printf("WebSocket client connected for job %s", client.jobID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client.jobID, client)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected for job %s", client.jobID)

		case message := <-h.broadcast:
			h.mu.Lock()
			h.latest[message.JobID] = message
			h.deliverLocked(message.JobID, message)
			if message.JobID != AllJobs {
				// Also send to "all" clients for any job update
				h.deliverLocked(AllJobs, message)
			}
			h.mu.Unlock()
		}
	}
}

// deliverLocked sends message to every client of topic, dropping slow ones
func (h *hub) deliverLocked(topic string, message types.ProgressMessage) {
	clients, ok := h.clients[topic]
	if !ok {
		return
	}
	for client := range clients {
		if !client.offer(message) {
			h.removeLocked(topic, client)
		}
	}
}

func (h *hub) removeLocked(topic string, client *Client) {
	clients, ok := h.clients[topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.send)
	}
	if len(clients) == 0 {
		delete(h.clients, topic)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, clients := range h.clients {
		for client := range clients {
			h.removeLocked(topic, client)
		}
	}
}

// Stop ends the event loop and closes every client
func (h *hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// BroadcastProgress sends a progress message to all clients of a specific job
func (h *hub) BroadcastProgress(jobID, msgType, status, currentFile, message string, progress float64) {
	progressMsg := types.ProgressMessage{
		JobID:       jobID,
		Type:        msgType,
		Progress:    progress,
		Status:      status,
		CurrentFile: currentFile,
		Message:     message,
		Timestamp:   time.Now(),
	}

	select {
	case h.broadcast <- progressMsg:
	default:
		log.Printf("WebSocket broadcast channel full, dropping message for job %s", jobID)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
