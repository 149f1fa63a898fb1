package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

type recordingPublisher struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (r *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.envs))
	for _, env := range r.envs {
		out = append(out, env.EventType)
	}
	return out
}

type fixture struct {
	store store.Store
	pub   *recordingPublisher
	user  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: store.NewMemory(), pub: &recordingPublisher{}}
	f.user = f.addUser(t, "buyer@example.com", "+250780000001")
	return f
}

func (f *fixture) addUser(t *testing.T, email, phone string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Phone: phone, FullName: "Test Buyer", Role: models.RoleUser, CreatedAt: time.Now()}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) addProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, StockQuantity: stock, CreatedAt: time.Now()}
	require.NoError(t, f.store.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.store.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) putCart(t *testing.T, lines ...models.CartLine) {
	t.Helper()
	for i := range lines {
		if lines[i].ID.IsZero() {
			lines[i].ID = primitive.NewObjectID()
		}
	}
	require.NoError(t, f.store.Carts.Save(context.Background(), &models.Cart{UserID: f.user.ID, Lines: lines}))
}
