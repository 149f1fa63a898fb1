// Package store declares the persistence contracts used by the services.
// database.NewStore provides the MongoDB implementation; NewMemory provides an
// in-process one for local runs and tests.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type ProductFilter struct {
	CategoryID *primitive.ObjectID
	BrandID    *primitive.ObjectID
	Search     string
	Page       int64
	Limit      int64
}

// ProductPatch carries the fields an admin update may change. Nil fields are
// left untouched.
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *float64
	SaleEnabled   *bool
	SalePrice     *float64
	BrandID       *primitive.ObjectID
	ColorID       *primitive.ObjectID
	CategoryID    *primitive.ObjectID
	Images        *models.StringList
	StockQuantity *int
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.SaleEnabled == nil &&
		p.SalePrice == nil && p.BrandID == nil && p.ColorID == nil && p.CategoryID == nil &&
		p.Images == nil && p.StockQuantity == nil
}

type Products interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.Product, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	// DecrementStock subtracts qty only when at least qty is available and
	// reports whether it did.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	SetRatings(ctx context.Context, id primitive.ObjectID, ratings []models.Rating, total float64) error
}

type Carts interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// Save upserts the cart of cart.UserID.
	Save(ctx context.Context, cart *models.Cart) error
}

type Orders interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	// UpdateStatus moves the order from one status to another and reports
	// false when the order was not in the from status.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error)
	SetPayment(ctx context.Context, id, paymentID primitive.ObjectID) error
}

type Payments interface {
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	// GetByRef matches the current ref and every ref it replaced.
	GetByRef(ctx context.Context, ref string) (*models.Payment, error)
	// LatestForOrder returns the most recently created payment of an order.
	LatestForOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error)
	// Reinitiate points a Pending payment at a new gateway prompt. A non-empty
	// previous ref moves to PreviousRefs.
	Reinitiate(ctx context.Context, id primitive.ObjectID, ref, number string, amount float64) (bool, error)
	// TransitionStatus moves the payment from one status to another, records
	// the ref that caused it and reports false when it was not in the from
	// status.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, ref string) (bool, error)
	// FlagRefund adds ref to the refunds owed and reports false when it was
	// already there.
	FlagRefund(ctx context.Context, id primitive.ObjectID, ref string) (bool, error)
	List(ctx context.Context, status *models.PaymentStatus) ([]models.Payment, error)
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	AddOrder(ctx context.Context, userID, orderID primitive.ObjectID) error
	AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	SetPassword(ctx context.Context, userID primitive.ObjectID, hash string) error
	SetResetOTP(ctx context.Context, userID primitive.ObjectID, hash string, expiry time.Time) error
	ClearResetOTP(ctx context.Context, userID primitive.ObjectID) error
}

type RefreshTokens interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	FindActive(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) (bool, error)
	RevokeByHash(ctx context.Context, hash string) (bool, error)
}

type Contacts interface {
	Create(ctx context.Context, c *models.Contact) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	Respond(ctx context.Context, id primitive.ObjectID, resp models.AdminResponse, status models.ContactStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BlogPatch struct {
	Title       *string
	Description *string
	CategoryID  *primitive.ObjectID
	Image       *string
}

func (p BlogPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.CategoryID == nil && p.Image == nil
}

type Blogs interface {
	Create(ctx context.Context, b *models.Blog) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Blog, error)
	List(ctx context.Context) ([]models.Blog, error)
	Update(ctx context.Context, id primitive.ObjectID, patch BlogPatch) (*models.Blog, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// IncrementViews bumps numViews and returns the post as stored after.
	IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Blog, error)
	SetReactions(ctx context.Context, id primitive.ObjectID, likes, dislikes []primitive.ObjectID) error
}

// TxManager runs fn so that all of its writes commit together or not at all.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Products      Products
	Carts         Carts
	Orders        Orders
	Payments      Payments
	Users         Users
	RefreshTokens RefreshTokens
	Contacts      Contacts
	Blogs         Blogs
	Tx            TxManager
	// Ping checks that the backend is reachable.
	Ping func(ctx context.Context) error
}
