package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"pinpoint-notes/pinpoint/broker"
	"pinpoint-notes/pinpoint/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketServiceInterface defines the operations provided by the WebSocket service
type WebSocketServiceInterface interface {
	Start()
	Stop()
	HandleConnection(c *gin.Context)
	BroadcastMessage(message []byte)
	GetBrokerChannel() chan broker.Message
	SetBrokerInputChannel(ch <-chan broker.Message)
}

// Client represents a connected WebSocket client
type Client struct {
	ID       string
	UserID   string
	DeviceID string
	Hub      *WebSocketService
	Conn     *websocket.Conn
	Send     chan []byte
}

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WebSocketService pushes change events to the connected devices of the
// account that made a change. Events arrive from the broker on per-user
// subjects; routing is by account, and the device that caused the change is
// skipped because it already holds the result.
type WebSocketService struct {
	// Client management
	clients      map[string]*Client
	register     chan *Client
	unregister   chan *Client
	broadcast    chan []byte
	clientsMutex sync.RWMutex

	// Configuration
	upgrader websocket.Upgrader
	natsURL  string
	subjects []string

	// Message channels
	brokerMessages chan broker.Message

	// Control
	isRunning bool
	stopChan  chan struct{}

	// For testing
	brokerInputChannel <-chan broker.Message
}

// NewWebSocketService creates a new WebSocket service
func NewWebSocketService(natsURL string) WebSocketServiceInterface {
	return &WebSocketService{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		natsURL:  natsURL,
		subjects: []string{broker.SyncEventsWildcard},

		brokerMessages: make(chan broker.Message, 256),

		isRunning: false,
		stopChan:  make(chan struct{}),

		brokerInputChannel: nil,
	}
}

// GetBrokerChannel returns the internal broker message channel - useful for testing
func (ws *WebSocketService) GetBrokerChannel() chan broker.Message {
	return ws.brokerMessages
}

// SetBrokerInputChannel allows setting a custom channel for broker messages - useful for testing
func (ws *WebSocketService) SetBrokerInputChannel(ch <-chan broker.Message) {
	ws.brokerInputChannel = ch
}

// BroadcastMessage sends a message to all connected clients
func (ws *WebSocketService) BroadcastMessage(message []byte) {
	ws.broadcast <- message
}

// Start begins the hub and connects it to the broker.
func (ws *WebSocketService) Start() {
	if ws.isRunning {
		return
	}
	ws.isRunning = true

	// Start the main hub routine
	go ws.run()

	// If a custom broker input channel was provided (for testing), use it
	if ws.brokerInputChannel != nil {
		go ws.forwardBrokerMessages(ws.brokerInputChannel)
		return
	}

	consumer, err := broker.InitConsumer(ws.natsURL, ws.subjects, "websocket-group")
	if err != nil {
		log.Printf("Failed to initialize broker consumer: %v", err)
		log.Println("WebSocket service will run without live sync events")
		return
	}
	go ws.forwardBrokerMessages(consumer.Messages())
}

// forwardBrokerMessages forwards messages from the broker channel to our internal channel
func (ws *WebSocketService) forwardBrokerMessages(brokerChan <-chan broker.Message) {
	for msg := range brokerChan {
		if !ws.isRunning {
			return
		}

		select {
		case ws.brokerMessages <- msg:
		default:
			log.Printf("Warning: broker message channel is full, discarding message")
		}
	}

	log.Println("Broker message channel closed, WebSocket service will no longer receive sync events")
}

// Stop gracefully shuts down the WebSocket service
func (ws *WebSocketService) Stop() {
	if !ws.isRunning {
		return
	}

	ws.isRunning = false
	close(ws.stopChan)

	// Close all client connections
	ws.clientsMutex.Lock()
	for _, client := range ws.clients {
		if client != nil && client.Conn != nil {
			client.Conn.Close()
		}
	}
	ws.clientsMutex.Unlock()

	log.Println("WebSocket service stopped")
}

// run handles the main client message hub
func (ws *WebSocketService) run() {
	for {
		select {
		case <-ws.stopChan:
			return

		case client := <-ws.register:
			ws.clientsMutex.Lock()
			ws.clients[client.ID] = client
			ws.clientsMutex.Unlock()
			log.Printf("Client connected: %s (user: %s, device: %s)", client.ID, client.UserID, client.DeviceID)

		case client := <-ws.unregister:
			ws.clientsMutex.Lock()
			if _, ok := ws.clients[client.ID]; ok {
				delete(ws.clients, client.ID)
				close(client.Send)
				log.Printf("Client disconnected: %s", client.ID)
			}
			ws.clientsMutex.Unlock()

		case message := <-ws.broadcast:
			ws.sendToClients(message, func(*Client) bool { return true })

		case brokerMsg := <-ws.brokerMessages:
			ws.handleBrokerMessage(brokerMsg)
		}
	}
}

// sendToClients delivers a message to every client the filter accepts and
// drops clients whose send buffer is full.
func (ws *WebSocketService) sendToClients(message []byte, accept func(*Client) bool) int {
	var dead []*Client
	sent := 0

	ws.clientsMutex.RLock()
	for _, client := range ws.clients {
		if !accept(client) {
			continue
		}
		select {
		case client.Send <- message:
			sent++
		default:
			dead = append(dead, client)
		}
	}
	ws.clientsMutex.RUnlock()

	if len(dead) > 0 {
		ws.clientsMutex.Lock()
		for _, client := range dead {
			if _, ok := ws.clients[client.ID]; ok {
				log.Printf("Client %s send buffer full, removing client", client.ID)
				delete(ws.clients, client.ID)
				close(client.Send)
			}
		}
		ws.clientsMutex.Unlock()
	}

	return sent
}

// HandleConnection upgrades an authenticated HTTP request to a WebSocket.
// The auth middleware has already placed the user id in the gin context.
func (ws *WebSocketService) HandleConnection(c *gin.Context) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	// The connecting device identifies itself so its own changes are not
	// echoed back to it
	deviceID := c.Query("device_id")

	conn, err := ws.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	client := &Client{
		ID:       uuid.New().String(),
		UserID:   userID.String(),
		DeviceID: deviceID,
		Hub:      ws,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	ws.register <- client

	go client.readPump()
	go client.writePump()
}

// handleBrokerMessage routes a sync event to the owner's connected devices.
func (ws *WebSocketService) handleBrokerMessage(msg broker.Message) {
	var eventData map[string]interface{}
	if err := json.Unmarshal(msg.Data, &eventData); err != nil {
		log.Printf("Error parsing broker message: %v", err)
		return
	}

	targetUser, _ := eventData["user_id"].(string)
	if targetUser == "" {
		log.Printf("Broker message on %s carries no user id, dropping", msg.Subject)
		return
	}

	// The device that pushed the change already has the result
	originDevice, _ := eventData["device_id"].(string)

	serverMsg := models.NewStandardMessage(models.EventMessage, msg.Key, eventData)
	jsonData, err := json.Marshal(serverMsg)
	if err != nil {
		log.Printf("Error serializing server message: %v", err)
		return
	}

	sent := ws.sendToClients(jsonData, func(client *Client) bool {
		if client.UserID != targetUser {
			return false
		}
		if originDevice != "" && client.DeviceID == originDevice {
			return false
		}
		return true
	})

	if sent > 0 {
		log.Printf("Sent %s event to %d devices of user %s", msg.Key, sent, targetUser)
	}
}

// readPump handles incoming messages from the WebSocket client
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading from WebSocket: %v", err)
			}
			break
		}

		c.processMessage(message)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage handles messages received from the client. Clients only
// send keepalives; all data changes go through the HTTP sync API.
func (c *Client) processMessage(msg []byte) {
	var clientMsg ClientMessage
	if err := json.Unmarshal(msg, &clientMsg); err != nil {
		log.Printf("Error parsing client message: %v", err)
		return
	}

	switch clientMsg.Type {
	case "ping":
		// Just a keepalive, no response needed
	default:
		log.Printf("Unknown message type: %s", clientMsg.Type)
	}
}

// Global instance
var WebSocketServiceInstance WebSocketServiceInterface
