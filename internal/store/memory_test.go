package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func seedProduct(t *testing.T, s Store, name string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: 10, StockQuantity: stock, CreatedAt: time.Now()}
	require.NoError(t, s.Products.Create(context.Background(), p))
	return p
}

func TestMemoryDecrementStockIsConditional(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p := seedProduct(t, s, "lamp", 2)

	ok, err := s.Products.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Products.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)
}

func TestMemoryTransactionRollsBackOnError(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p := seedProduct(t, s, "chair", 5)
	boom := errors.New("boom")

	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Products.DecrementStock(ctx, p.ID, 4)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, s.Orders.Create(ctx, &models.Order{UserID: primitive.NewObjectID()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)

	orders, err := s.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMemoryTransactionCommits(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p := seedProduct(t, s, "desk", 1)

	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.Products.DecrementStock(ctx, p.ID, 1)
		return err
	})
	require.NoError(t, err)

	got, err := s.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)
}

func TestMemoryOrderStatusTransitionChecksFrom(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	o := &models.Order{UserID: primitive.NewObjectID(), OrderStatus: models.OrderPending}
	require.NoError(t, s.Orders.Create(ctx, o))

	ok, err := s.Orders.UpdateStatus(ctx, o.ID, models.OrderPending, models.OrderCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Orders.UpdateStatus(ctx, o.ID, models.OrderPending, models.OrderCompleted)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryPaymentTransitionAndRef(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p := &models.Payment{OrderID: primitive.NewObjectID(), Status: models.PaymentPending, Ref: "ref-1"}
	require.NoError(t, s.Payments.Create(ctx, p))
	assert.ErrorIs(t, s.Payments.Create(ctx, &models.Payment{Ref: "ref-1"}), ErrDuplicate)

	got, err := s.Payments.GetByRef(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = s.Payments.GetByRef(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Payments.Reinitiate(ctx, p.ID, "ref-2", "0780000000", 12)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.Payments.GetByRef(ctx, "ref-1")
	require.NoError(t, err, "replaced refs stay resolvable")
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "ref-2", got.Ref)
	assert.Equal(t, []string{"ref-1"}, got.PreviousRefs)
	assert.ErrorIs(t, s.Payments.Create(ctx, &models.Payment{Ref: "ref-1"}), ErrDuplicate)

	ok, err = s.Payments.TransitionStatus(ctx, p.ID, models.PaymentPending, models.PaymentSuccessful, "ref-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Payments.TransitionStatus(ctx, p.ID, models.PaymentPending, models.PaymentFailed, "ref-2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Payments.Reinitiate(ctx, p.ID, "ref-3", "0780000000", 12)
	require.NoError(t, err)
	assert.False(t, ok, "settled payments cannot be reinitiated")

	added, err := s.Payments.FlagRefund(ctx, p.ID, "ref-2")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.Payments.FlagRefund(ctx, p.ID, "ref-2")
	require.NoError(t, err)
	assert.False(t, added, "a ref is owed back once")

	got, err = s.Payments.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccessful, got.Status)
	assert.Equal(t, "ref-1", got.SettledRef)
	assert.Equal(t, []string{"ref-2"}, got.RefundRefs)

	_, err = s.Payments.FlagRefund(ctx, primitive.NewObjectID(), "ref-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReadsAreCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	cart := &models.Cart{UserID: userID, Lines: []models.CartLine{{ProductID: primitive.NewObjectID(), Count: 1}}}
	require.NoError(t, s.Carts.Save(ctx, cart))

	got, err := s.Carts.GetByUser(ctx, userID)
	require.NoError(t, err)
	got.Lines[0].Count = 99

	again, err := s.Carts.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Lines[0].Count)
	assert.Equal(t, cart.ID, again.ID)
}

func TestMemoryProductListPaginates(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	base := time.Now()
	for i, name := range []string{"red mug", "blue mug", "plate"} {
		p := &models.Product{Name: name, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Products.Create(ctx, p))
	}

	items, total, err := s.Products.List(ctx, ProductFilter{Search: "MUG", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "blue mug", items[0].Name)

	items, _, err = s.Products.List(ctx, ProductFilter{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemorySoftDeleteHidesProduct(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p := seedProduct(t, s, "vase", 1)

	require.NoError(t, s.Products.SoftDelete(ctx, p.ID))
	_, err := s.Products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Products.SoftDelete(ctx, p.ID), ErrNotFound)
}

func TestMemoryBlogsRollBackWithTransaction(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	b := &models.Blog{Title: "launch", CreatedAt: time.Now()}
	require.NoError(t, s.Blogs.Create(ctx, b))

	boom := errors.New("boom")
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Blogs.IncrementViews(ctx, b.ID); err != nil {
			return err
		}
		if err := s.Blogs.SetReactions(ctx, b.ID, []primitive.ObjectID{primitive.NewObjectID()}, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Blogs.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, got.NumViews)
	assert.Empty(t, got.Likes)

	title := "relaunch"
	updated, err := s.Blogs.Update(ctx, b.ID, BlogPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "relaunch", updated.Title)

	require.NoError(t, s.Blogs.Delete(ctx, b.ID))
	_, err = s.Blogs.IncrementViews(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Blogs.Delete(ctx, b.ID), ErrNotFound)
}
