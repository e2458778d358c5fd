package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/raaihank/bias-auditor/internal/bias"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeScanCompleted is sent after every finished scan
	EventTypeScanCompleted EventType = "scan_completed"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
	// EventTypePong answers a client ping message
	EventTypePong EventType = "pong"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// ScanCompletedEvent summarises a scan. Document text only appears as masked samples.
type ScanCompletedEvent struct {
	RequestID  string          `json:"request_id,omitempty"`
	Source     string          `json:"source"`
	Document   string          `json:"document,omitempty"`
	Analyzed   bool            `json:"analyzed"`
	Cached     bool            `json:"cached"`
	Sentences  int             `json:"sentences"`
	Findings   int             `json:"findings"`
	Categories map[string]int  `json:"categories"`
	Score      float64         `json:"score"`
	Level      bias.Level      `json:"level"`
	Color      string          `json:"color"`
	DurationMS float64         `json:"duration_ms"`
	Samples    []FindingSample `json:"samples,omitempty"`
}

// FindingSample is a flagged sentence with personal data masked
type FindingSample struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Sentence string `json:"sentence"`
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalScans       int64  `json:"total_scans"`
	TotalFindings    int64  `json:"total_findings"`
	ActiveCategories int    `json:"active_categories"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action    string `json:"action"` // "connected", "disconnected"
	ClientID  string `json:"client_id"`
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType  `json:"events"`
	Filter *EventFilter `json:"filter,omitempty"`
}

// EventFilter narrows scan events by risk level
type EventFilter struct {
	MinLevel bias.Level `json:"min_level,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	IP           string
	UserAgent    string
}
