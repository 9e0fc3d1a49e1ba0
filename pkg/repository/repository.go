package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/model"
)

var ErrNotFound = goerr.New("record not found")

// Repository defines the interface for order and conversation persistence
type Repository interface {
	// PutOrder saves a finalized order
	PutOrder(ctx context.Context, order *model.Order) error

	// GetOrder retrieves an order by ID
	GetOrder(ctx context.Context, id model.OrderID) (*model.Order, error)

	// ListOrders retrieves recent orders, newest first
	ListOrders(ctx context.Context, limit int) ([]*model.Order, error)

	// PutHistory saves a conversation history
	PutHistory(ctx context.Context, history *model.History) error

	// GetHistory retrieves a conversation history by ID
	GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error)

	// ListHistory retrieves recent conversation histories, newest first
	ListHistory(ctx context.Context, limit int) ([]*model.History, error)
}
