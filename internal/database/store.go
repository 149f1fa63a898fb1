package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/store"
)

const (
	colProducts      = "products"
	colCarts         = "carts"
	colOrders        = "orders"
	colPayments      = "payments"
	colUsers         = "users"
	colRefreshTokens = "refresh_tokens"
	colContacts      = "contacts"
	colBlogs         = "blogs"
)

// NewStore returns the MongoDB-backed repositories. Transactions need a
// replica set or sharded cluster.
func NewStore(db *mongo.Database) store.Store {
	return store.Store{
		Products:      &productRepo{col: db.Collection(colProducts)},
		Carts:         &cartRepo{col: db.Collection(colCarts)},
		Orders:        &orderRepo{col: db.Collection(colOrders)},
		Payments:      &paymentRepo{col: db.Collection(colPayments)},
		Users:         &userRepo{col: db.Collection(colUsers)},
		RefreshTokens: &refreshTokenRepo{col: db.Collection(colRefreshTokens)},
		Contacts:      &contactRepo{col: db.Collection(colContacts)},
		Blogs:         &blogRepo{col: db.Collection(colBlogs)},
		Tx:            &txManager{client: db.Client()},
		Ping:          ping(db),
	}
}

type txManager struct {
	client *mongo.Client
}

// WithTransaction runs fn inside a session transaction. The session context
// is handed to fn so every repository call made with it joins the transaction.
func (m *txManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	}
	return err
}

func matchedOrNotFound(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func matched(res *mongo.UpdateResult, err error) (bool, error) {
	if err != nil {
		return false, mapErr(err)
	}
	return res.MatchedCount == 1, nil
}
