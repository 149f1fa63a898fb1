package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/payment"
)

func TestConcurrentCallbacksApplyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := payment.NewMockGateway(ctrl)
	gw.EXPECT().Name().Return("mock").AnyTimes()
	expectCashIn(gw, 25, "ref-1")

	f := newFixture(t)
	ctx := context.Background()
	order, _ := pendingOrder(t, f)
	svc := newPaymentService(f, gw, false)
	_, err := svc.CashIn(ctx, f.user.ID, order.ID, payerNumber)
	require.NoError(t, err)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.HandleCallback(ctx, CallbackInput{Ref: "ref-1", Status: "successful"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if !res.Duplicate {
				applied++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, applied)
	stored, err := f.store.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, stored.OrderStatus)
	assert.Equal(t, 1, count(f.pub.types(), events.EventPaymentSucceeded))
	assert.Equal(t, 1, count(f.pub.types(), events.EventOrderCompleted))
}

func TestConcurrentDirectOrdersTakeLastUnitOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "last one", 10, 1)
	svc := newOrderService(f)

	const n = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		shortage int
		other    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateDirect(ctx, f.user.ID, DirectOrderInput{ProductID: p.ID, Count: 1, ShippingAddress: "Kigali"}, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperr.Is(err, apperr.KindInsufficientStock):
				shortage++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, shortage)
	assert.Equal(t, 0, f.stock(t, p.ID))

	orders, err := svc.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
