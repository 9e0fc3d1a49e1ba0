package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type OrderID string

// NewOrderID generates a new unique OrderID
func NewOrderID() OrderID {
	return OrderID(uuid.New().String())
}

// OrderItem is a single ordered dish with optional preparation notes
type OrderItem struct {
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

// Order is created once per conversation when the agent finalizes, and is
// immutable thereafter. The JSON shape is consumed by downstream tooling
// and must stay stable.
type Order struct {
	ID         OrderID     `json:"-" firestore:"id"`
	Items      []OrderItem `json:"order" firestore:"items"`
	Persona    string      `json:"persona" firestore:"persona"`
	Restaurant string      `json:"restaurant" firestore:"restaurant"`
	Confidence float64     `json:"confidence" firestore:"confidence"`
	MenuJSON   string      `json:"menu_json" firestore:"menu_json"`
	Timestamp  time.Time   `json:"timestamp" firestore:"timestamp"`
}

// Validate checks the order is usable for export
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return goerr.New("order has no items")
	}
	if o.Confidence < 0 || o.Confidence > 1 {
		return goerr.New("confidence out of range", goerr.V("confidence", o.Confidence))
	}
	return nil
}

// Export serializes the order into the stable JSON export format
func (o *Order) Export() ([]byte, error) {
	raw, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal order")
	}
	return raw, nil
}
