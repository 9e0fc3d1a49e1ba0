package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	orderCollection   = "orders"
	historyCollection = "histories"
)

// firestoreRepo implements Repository using Firestore
type firestoreRepo struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &firestoreRepo{client: client}, nil
}

func (r *firestoreRepo) PutOrder(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		order.ID = model.NewOrderID()
	}

	_, err := r.client.Collection(orderCollection).Doc(string(order.ID)).Set(ctx, order)
	if err != nil {
		return goerr.Wrap(err, "failed to save order", goerr.V("order_id", order.ID))
	}
	return nil
}

func (r *firestoreRepo) GetOrder(ctx context.Context, id model.OrderID) (*model.Order, error) {
	doc, err := r.client.Collection(orderCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "order not found", goerr.V("order_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get order", goerr.V("order_id", id))
	}

	var order model.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, goerr.Wrap(err, "failed to decode order", goerr.V("order_id", id))
	}
	order.ID = id
	return &order, nil
}

func (r *firestoreRepo) ListOrders(ctx context.Context, limit int) ([]*model.Order, error) {
	iter := r.client.Collection(orderCollection).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var orders []*model.Order
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate orders")
		}

		var order model.Order
		if err := doc.DataTo(&order); err != nil {
			return nil, goerr.Wrap(err, "failed to decode order", goerr.V("doc_id", doc.Ref.ID))
		}
		order.ID = model.OrderID(doc.Ref.ID)
		orders = append(orders, &order)
	}

	return orders, nil
}

func (r *firestoreRepo) PutHistory(ctx context.Context, history *model.History) error {
	if history.ID == "" {
		history.ID = model.NewHistoryID()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	history.UpdatedAt = time.Now()

	_, err := r.client.Collection(historyCollection).Doc(string(history.ID)).Set(ctx, history)
	if err != nil {
		return goerr.Wrap(err, "failed to save history", goerr.V("history_id", history.ID))
	}
	return nil
}

func (r *firestoreRepo) GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error) {
	doc, err := r.client.Collection(historyCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "history not found", goerr.V("history_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get history", goerr.V("history_id", id))
	}

	var history model.History
	if err := doc.DataTo(&history); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history", goerr.V("history_id", id))
	}
	history.ID = id
	return &history, nil
}

func (r *firestoreRepo) ListHistory(ctx context.Context, limit int) ([]*model.History, error) {
	iter := r.client.Collection(historyCollection).
		OrderBy("updated_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var histories []*model.History
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate histories")
		}

		var history model.History
		if err := doc.DataTo(&history); err != nil {
			return nil, goerr.Wrap(err, "failed to decode history", goerr.V("doc_id", doc.Ref.ID))
		}
		history.ID = model.HistoryID(doc.Ref.ID)
		histories = append(histories, &history)
	}

	return histories, nil
}
