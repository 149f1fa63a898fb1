package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/events"
	"storefront/internal/models"
)

func newOrderService(f *fixture) *OrderService {
	return NewOrderService(f.store, cache.NewMemoryIdempotency(0), f.pub, "test")
}

func TestCreateFromCartConvertsSelectedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addProduct(t, "A", 10, 5)
	b := f.addProduct(t, "B", 5, 3)
	f.putCart(t,
		models.CartLine{ProductID: a.ID, Count: 2, Price: 10},
		models.CartLine{ProductID: b.ID, Count: 1, Price: 5},
	)

	res, err := newOrderService(f).CreateFromCart(ctx, f.user.ID, CartOrderInput{
		SelectedIndices: []int{0, 1},
		ShippingAddress: "  KG 11 Ave, Kigali ",
	}, "")
	require.NoError(t, err)

	order := res.Order
	assert.False(t, res.Replayed)
	assert.Equal(t, 25.0, order.TotalOrderPrice)
	assert.Equal(t, models.OrderPending, order.OrderStatus)
	assert.Equal(t, "KG 11 Ave, Kigali", order.ShippingAddress)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "A", order.Lines[0].Name)

	assert.Equal(t, 3, f.stock(t, a.ID))
	assert.Equal(t, 2, f.stock(t, b.ID))

	cart, err := f.store.Carts.GetByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	user, err := f.store.Users.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Contains(t, user.Orders, order.ID)
	assert.Equal(t, []string{events.EventOrderCreated}, f.pub.types())
}

func TestCreateFromCartKeepsUnselectedLinesAndSnapshotPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addProduct(t, "A", 99, 5)
	b := f.addProduct(t, "B", 5, 3)
	keepID := primitive.NewObjectID()
	takeID := primitive.NewObjectID()
	f.putCart(t,
		models.CartLine{ID: keepID, ProductID: a.ID, Count: 1, Price: 10},
		models.CartLine{ID: takeID, ProductID: b.ID, Count: 2, Price: 4},
	)

	res, err := newOrderService(f).CreateFromCart(ctx, f.user.ID, CartOrderInput{
		LineIDs:         []primitive.ObjectID{takeID},
		ShippingAddress: "Kigali",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 8.0, res.Order.TotalOrderPrice)

	cart, err := f.store.Carts.GetByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, keepID, cart.Lines[0].ID)
	assert.Equal(t, 5, f.stock(t, a.ID))
}

func TestCreateFromCartRejectsBadSelection(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", 10, 5)
	f.putCart(t, models.CartLine{ProductID: a.ID, Count: 1, Price: 10})
	svc := newOrderService(f)

	cases := []struct {
		name string
		in   CartOrderInput
	}{
		{"missing address", CartOrderInput{SelectedIndices: []int{0}, ShippingAddress: "  "}},
		{"no selection", CartOrderInput{ShippingAddress: "x"}},
		{"both selections", CartOrderInput{SelectedIndices: []int{0}, LineIDs: []primitive.ObjectID{primitive.NewObjectID()}, ShippingAddress: "x"}},
		{"out of range", CartOrderInput{SelectedIndices: []int{3}, ShippingAddress: "x"}},
		{"negative", CartOrderInput{SelectedIndices: []int{-1}, ShippingAddress: "x"}},
		{"duplicate", CartOrderInput{SelectedIndices: []int{0, 0}, ShippingAddress: "x"}},
		{"unknown line", CartOrderInput{LineIDs: []primitive.ObjectID{primitive.NewObjectID()}, ShippingAddress: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateFromCart(context.Background(), f.user.ID, tc.in, "")
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Equal(t, 5, f.stock(t, a.ID))
}

func TestCreateFromCartEmptyCartIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := newOrderService(f).CreateFromCart(context.Background(), f.user.ID, CartOrderInput{
		SelectedIndices: []int{0},
		ShippingAddress: "x",
	}, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateFromCartAbortsWholeOrderOnShortStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addProduct(t, "A", 10, 5)
	b := f.addProduct(t, "B", 5, 1)
	f.putCart(t,
		models.CartLine{ProductID: a.ID, Count: 2, Price: 10},
		models.CartLine{ProductID: b.ID, Count: 2, Price: 5},
	)

	_, err := newOrderService(f).CreateFromCart(ctx, f.user.ID, CartOrderInput{
		SelectedIndices: []int{0, 1},
		ShippingAddress: "x",
	}, "")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, b.ID.Hex(), appErr.Details["productId"])

	assert.Equal(t, 5, f.stock(t, a.ID), "earlier line must be rolled back")
	assert.Equal(t, 1, f.stock(t, b.ID))
	orders, err := f.store.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	cart, err := f.store.Carts.GetByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2)
}

func TestCreateDirectInsufficientStock(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "lamp", 10, 1)

	_, err := newOrderService(f).CreateDirect(context.Background(), f.user.ID, DirectOrderInput{
		ProductID:       p.ID,
		Count:           2,
		ShippingAddress: "Kigali",
	}, "")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, 1, appErr.Details["available"])
	assert.Equal(t, 2, appErr.Details["requested"])
	assert.Equal(t, 1, f.stock(t, p.ID))

	orders, err := f.store.Orders.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateDirectUsesLiveSalePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := &models.Product{Name: "mug", Price: 10, SaleEnabled: true, SalePrice: 7.5, StockQuantity: 4}
	require.NoError(t, f.store.Products.Create(ctx, p))

	res, err := newOrderService(f).CreateDirect(ctx, f.user.ID, DirectOrderInput{
		ProductID:       p.ID,
		Count:           3,
		ShippingAddress: "Kigali",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 22.5, res.Order.TotalOrderPrice)
	assert.Equal(t, 1, f.stock(t, p.ID))
}

func TestCreateDirectUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := newOrderService(f).CreateDirect(context.Background(), f.user.ID, DirectOrderInput{
		ProductID:       primitive.NewObjectID(),
		Count:           1,
		ShippingAddress: "Kigali",
	}, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestIdempotentReplayDoesNotDecrementTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "lamp", 10, 5)
	svc := newOrderService(f)
	in := DirectOrderInput{ProductID: p.ID, Count: 2, ShippingAddress: "Kigali"}

	first, err := svc.CreateDirect(ctx, f.user.ID, in, "key-1")
	require.NoError(t, err)
	second, err := svc.CreateDirect(ctx, f.user.ID, in, "key-1")
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 3, f.stock(t, p.ID))

	orders, err := f.store.Orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestIdempotencyKeyInFlightConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idem := cache.NewMemoryIdempotency(0)
	_, err := idem.Reserve(ctx, cache.OrderCreateKey(f.user.ID.Hex(), "busy"))
	require.NoError(t, err)
	p := f.addProduct(t, "lamp", 10, 5)

	svc := NewOrderService(f.store, idem, f.pub, "test")
	_, err = svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: p.ID, Count: 1, ShippingAddress: "x"}, "busy")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestFailedCreateReleasesIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "lamp", 10, 1)
	svc := newOrderService(f)
	in := DirectOrderInput{ProductID: p.ID, Count: 2, ShippingAddress: "x"}

	_, err := svc.CreateDirect(ctx, f.user.ID, in, "retry")
	require.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	in.Count = 1
	res, err := svc.CreateDirect(ctx, f.user.ID, in, "retry")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
}

func TestOrderGetAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "lamp", 10, 5)
	svc := newOrderService(f)
	res, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: p.ID, Count: 2, ShippingAddress: "x"}, "")
	require.NoError(t, err)

	owner := Actor{ID: f.user.ID, Role: models.RoleUser}
	stranger := Actor{ID: primitive.NewObjectID(), Role: models.RoleUser}
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	_, err = svc.Get(ctx, stranger, res.Order.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.Get(ctx, admin, res.Order.ID)
	assert.NoError(t, err)

	_, err = svc.Cancel(ctx, stranger, res.Order.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	cancelled, err := svc.Cancel(ctx, owner, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.OrderStatus)
	assert.Equal(t, 5, f.stock(t, p.ID))

	_, err = svc.Cancel(ctx, owner, res.Order.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	mine, err := svc.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestAdminUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "lamp", 10, 5)
	svc := newOrderService(f)
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	owner := Actor{ID: f.user.ID, Role: models.RoleUser}

	first, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: p.ID, Count: 2, ShippingAddress: "x"}, "")
	require.NoError(t, err)
	second, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: p.ID, Count: 1, ShippingAddress: "x"}, "")
	require.NoError(t, err)
	require.Equal(t, 2, f.stock(t, p.ID))

	_, err = svc.UpdateStatus(ctx, owner, first.Order.ID, "Completed")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.UpdateStatus(ctx, admin, first.Order.ID, "shipped")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.UpdateStatus(ctx, admin, first.Order.ID, "pending")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.UpdateStatus(ctx, admin, primitive.NewObjectID(), "Completed")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	done, err := svc.UpdateStatus(ctx, admin, first.Order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, done.OrderStatus)
	assert.Equal(t, 2, f.stock(t, p.ID), "completing keeps stock taken")

	_, err = svc.UpdateStatus(ctx, admin, first.Order.ID, "Cancelled")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	cancelled, err := svc.UpdateStatus(ctx, admin, second.Order.ID, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.OrderStatus)
	assert.Equal(t, 3, f.stock(t, p.ID))

	types := f.pub.types()
	assert.Equal(t, events.EventOrderCompleted, types[len(types)-2])
	assert.Equal(t, events.EventOrderCancelled, types[len(types)-1])
}

func TestAdminUpdateStatusWaitsForPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "lamp", 10, 5)
	svc := newOrderService(f)
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	res, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: p.ID, Count: 1, ShippingAddress: "x"}, "")
	require.NoError(t, err)
	require.NoError(t, f.store.Payments.Create(ctx, &models.Payment{
		OrderID: res.Order.ID, UserID: f.user.ID, Status: models.PaymentPending, Ref: "ref-a", Amount: 10, CreatedAt: time.Now(),
	}))

	for _, status := range []string{"Completed", "Cancelled"} {
		_, err = svc.UpdateStatus(ctx, admin, res.Order.ID, status)
		assert.True(t, apperr.Is(err, apperr.KindConflict), status)
	}
	assert.Equal(t, 4, f.stock(t, p.ID))
}

func TestCategoryEarningsSumsCompletedOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newOrderService(f)
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	lamps := primitive.NewObjectID()
	lamp := &models.Product{Name: "lamp", Price: 0.1, StockQuantity: 50, CategoryID: &lamps, CreatedAt: time.Now()}
	require.NoError(t, f.store.Products.Create(ctx, lamp))
	loose := f.addProduct(t, "loose", 4, 5)

	paid, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: lamp.ID, Count: 3, ShippingAddress: "x"}, "")
	require.NoError(t, err)
	again, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: lamp.ID, Count: 7, ShippingAddress: "x"}, "")
	require.NoError(t, err)
	other, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: loose.ID, Count: 1, ShippingAddress: "x"}, "")
	require.NoError(t, err)
	_, err = svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: lamp.ID, Count: 5, ShippingAddress: "x"}, "")
	require.NoError(t, err)

	for _, id := range []primitive.ObjectID{paid.Order.ID, again.Order.ID, other.Order.ID} {
		_, err := svc.UpdateStatus(ctx, admin, id, "Completed")
		require.NoError(t, err)
	}

	got, err := svc.CategoryEarnings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CategoryEarning{
		{CategoryID: "", Earnings: 4, Units: 1},
		{CategoryID: lamps.Hex(), Earnings: 1, Units: 10},
	}, got)
}
