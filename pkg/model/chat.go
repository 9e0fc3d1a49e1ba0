package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation
type Turn struct {
	Role    Role   `json:"role" firestore:"role"`
	Content string `json:"content" firestore:"content"`
}

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

// History is a persisted conversation record. Order is set only when the
// conversation reached a finalized order.
type History struct {
	ID         HistoryID `firestore:"id"`
	Persona    string    `firestore:"persona"`
	Restaurant string    `firestore:"restaurant"`
	Turns      []Turn    `firestore:"turns"`
	Order      *Order    `firestore:"order,omitempty"`
	CreatedAt  time.Time `firestore:"created_at"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}
