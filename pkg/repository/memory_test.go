package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/repository"
)

func TestMemoryOrders(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	order := &model.Order{
		Items:      []model.OrderItem{{Name: "Pide"}},
		Persona:    "ayla",
		Restaurant: "lokanta",
		Confidence: 0.8,
		Timestamp:  time.Now(),
	}
	gt.NoError(t, repo.PutOrder(ctx, order))
	gt.NotEqual(t, order.ID, model.OrderID(""))

	got := gt.R1(repo.GetOrder(ctx, order.ID)).NoError(t)
	gt.Equal(t, got.Restaurant, "lokanta")

	// the stored copy is detached from the caller's struct
	order.Restaurant = "changed"
	again := gt.R1(repo.GetOrder(ctx, order.ID)).NoError(t)
	gt.Equal(t, again.Restaurant, "lokanta")
}

func TestMemoryGetOrderNotFound(t *testing.T) {
	repo := repository.NewMemory()

	_, err := repo.GetOrder(context.Background(), model.NewOrderID())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestMemoryListOrdersNewestFirst(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		gt.NoError(t, repo.PutOrder(ctx, &model.Order{
			Items:     []model.OrderItem{{Name: "Pide"}},
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	orders := gt.R1(repo.ListOrders(ctx, 3)).NoError(t)
	gt.A(t, orders).Length(3)
	gt.True(t, orders[0].Timestamp.After(orders[1].Timestamp))
	gt.True(t, orders[1].Timestamp.After(orders[2].Timestamp))
}

func TestMemoryHistories(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	history := &model.History{
		Persona:    "mert",
		Restaurant: "lokanta",
		Turns: []model.Turn{
			{Role: model.RoleUser, Content: "acıktım"},
			{Role: model.RoleAssistant, Content: "Ne yemek istersin?"},
		},
	}
	gt.NoError(t, repo.PutHistory(ctx, history))
	gt.NotEqual(t, history.ID, model.HistoryID(""))
	gt.False(t, history.UpdatedAt.IsZero())

	got := gt.R1(repo.GetHistory(ctx, history.ID)).NoError(t)
	gt.A(t, got.Turns).Length(2)

	// updating the same conversation keeps one record
	history.Turns = append(history.Turns, model.Turn{Role: model.RoleUser, Content: "kebap olsun"})
	gt.NoError(t, repo.PutHistory(ctx, history))

	histories := gt.R1(repo.ListHistory(ctx, 10)).NoError(t)
	gt.A(t, histories).Length(1)
	gt.A(t, histories[0].Turns).Length(3)
}
