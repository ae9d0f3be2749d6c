package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/elijahnyp/home_commander/command"
	"github.com/elijahnyp/home_commander/state"
	. "github.com/elijahnyp/home_commander/util"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Data interface{} `json:"data"`
	Type string      `json:"type"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn *websocket.Conn
	send chan WebSocketMessage
	hub  *WSHub
}

// WSHub maintains the set of active clients and broadcasts messages
type WSHub struct {
	clients    map[*WSClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// SystemStatus is the body of /api/status
type SystemStatus struct {
	Devices     []state.DeviceStatus `json:"devices"`
	HistorySize int                  `json:"history_size"`
	Timestamp   int64                `json:"timestamp"`
}

var wsHub *WSHub

var commander *Controller

func init() {
	wsHub = NewHub()
	go wsHub.Run()
}

// NewHub creates a new WebSocket hub
func NewHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WebSocketMessage, 64),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the WebSocket hub
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			Logger.Info().Msg("Client connected to WebSocket")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				Logger.Info().Msg("Client disconnected from WebSocket")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastUpdate queues an update for all connected clients. It never
// blocks; updates are dropped when the hub is behind.
func (h *WSHub) BroadcastUpdate(messageType string, data interface{}) {
	select {
	case h.broadcast <- WebSocketMessage{Type: messageType, Data: data}:
	default:
	}
}

// readPump drains the connection so close frames are noticed.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for message := range c.send {
		if err := c.conn.WriteJSON(message); err != nil {
			return
		}
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		Logger.Debug().Err(err).Msg("Error writing close message")
	}
}

// ServeWebSocket handles websocket requests from the peer. The current
// status is sent first so clients do not have to poll.
func ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan WebSocketMessage, 256),
		hub:  wsHub,
	}
	client.send <- WebSocketMessage{Type: "status", Data: currentStatus()}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func currentStatus() SystemStatus {
	devices, depth := commander.Status()
	if devices == nil {
		devices = []state.DeviceStatus{}
	}
	return SystemStatus{Devices: devices, HistorySize: depth, Timestamp: time.Now().Unix()}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("Error encoding response")
	}
}

// APISystemStatus returns every device and the undo depth as JSON
func APISystemStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentStatus())
}

// APIHistory returns the pending undo entries, most recent first
func APIHistory(w http.ResponseWriter, r *http.Request) {
	entries := commander.History()
	if entries == nil {
		entries = []command.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// APICommand accepts the same instructions as the command topic in a POST
// body.
func APICommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "unable to read body", http.StatusBadRequest)
		return
	}
	reply := commander.Handle(string(body))
	status := http.StatusOK
	if !reply.OK {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, reply)
}
