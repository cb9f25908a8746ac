package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/iho/erpledger/internal/domain"
)

// LedgerEvent is the message pushed to subscribers of a company.
type LedgerEvent struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Hub fans ledger events out to websocket clients subscribed per company.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(companyID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[companyID] == nil {
		h.clients[companyID] = make(map[*Client]struct{})
	}
	h.clients[companyID][client] = struct{}{}
}

func (h *Hub) Unregister(companyID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[companyID] == nil {
		return
	}
	delete(h.clients[companyID], client)
	if len(h.clients[companyID]) == 0 {
		delete(h.clients, companyID)
	}
}

// Subscribers returns the number of clients listening to companyID.
func (h *Hub) Subscribers(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[companyID])
}

// Publish sends an outbox event to the company's clients. Slow clients drop
// messages instead of blocking the outbox worker.
func (h *Hub) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(LedgerEvent{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[event.CompanyID] {
		select {
		case client.send <- payload:
		default:
		}
	}
	return nil
}
