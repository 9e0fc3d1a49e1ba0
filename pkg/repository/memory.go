package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/model"
)

// Memory is an in-process Repository used when no Firestore project is
// configured, and by tests.
type Memory struct {
	mu        sync.RWMutex
	orders    map[model.OrderID]*model.Order
	histories map[model.HistoryID]*model.History
}

func NewMemory() *Memory {
	return &Memory{
		orders:    make(map[model.OrderID]*model.Order),
		histories: make(map[model.HistoryID]*model.History),
	}
}

func (m *Memory) PutOrder(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID == "" {
		order.ID = model.NewOrderID()
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id model.OrderID) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "order not found", goerr.V("order_id", id))
	}
	cp := *order
	return &cp, nil
}

func (m *Memory) ListOrders(ctx context.Context, limit int) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]*model.Order, 0, len(m.orders))
	for _, order := range m.orders {
		cp := *order
		orders = append(orders, &cp)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (m *Memory) PutHistory(ctx context.Context, history *model.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if history.ID == "" {
		history.ID = model.NewHistoryID()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	history.UpdatedAt = time.Now()

	cp := *history
	m.histories[history.ID] = &cp
	return nil
}

func (m *Memory) GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history, ok := m.histories[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "history not found", goerr.V("history_id", id))
	}
	cp := *history
	return &cp, nil
}

func (m *Memory) ListHistory(ctx context.Context, limit int) ([]*model.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	histories := make([]*model.History, 0, len(m.histories))
	for _, history := range m.histories {
		cp := *history
		histories = append(histories, &cp)
	}
	sort.Slice(histories, func(i, j int) bool {
		return histories[i].UpdatedAt.After(histories[j].UpdatedAt)
	})
	if len(histories) > limit {
		histories = histories[:limit]
	}
	return histories, nil
}
