package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

const populateConcurrency = 8

type CartService struct {
	store store.Store
}

func NewCartService(s store.Store) *CartService {
	return &CartService{store: s}
}

type CartItemInput struct {
	ProductID primitive.ObjectID
	ColorID   *primitive.ObjectID
	Count     int
}

// CartItemView is a cart line with the current product document. Product is
// nil when the product was removed from the catalog after it was added.
type CartItemView struct {
	models.CartLine
	Product *models.Product `json:"productDetails"`
}

type CartView struct {
	ID        primitive.ObjectID `json:"id"`
	UserID    primitive.ObjectID `json:"cartby"`
	Items     []CartItemView     `json:"products"`
	CartTotal float64            `json:"cartTotal"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (s *CartService) loadOrNew(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Cart{UserID: userID, Lines: []models.CartLine{}, CreatedAt: time.Now()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// Add merges items into the user's cart. An existing product+color line keeps
// the price it was first added at.
func (s *CartService) Add(ctx context.Context, userID primitive.ObjectID, items []CartItemInput) (*models.Cart, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("productDetails must contain at least one item")
	}

	cart, err := s.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Count < 1 {
			return nil, apperr.Validation("count must be at least 1")
		}
		product, err := s.store.Products.Get(ctx, item.ProductID)
		if err != nil {
			return nil, lookupErr(err, "product")
		}

		idx := cart.FindLine(item.ProductID, item.ColorID)
		wanted := item.Count
		if idx >= 0 {
			wanted += cart.Lines[idx].Count
		}
		if wanted > product.StockQuantity {
			return nil, apperr.InsufficientStock(product.ID.Hex(), product.StockQuantity, wanted)
		}

		if idx >= 0 {
			cart.Lines[idx].Count = wanted
			continue
		}
		cart.Lines = append(cart.Lines, models.CartLine{
			ID:        primitive.NewObjectID(),
			ProductID: item.ProductID,
			ColorID:   item.ColorID,
			Count:     item.Count,
			Price:     product.UnitPrice(),
		})
	}

	cart.UpdatedAt = time.Now()
	if err := s.store.Carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	log.Println("[CART] [INFO] cart updated for user:", userID.Hex())
	return cart, nil
}

// Update sets the count of an existing line.
func (s *CartService) Update(ctx context.Context, userID primitive.ObjectID, item CartItemInput) (*models.Cart, error) {
	if item.Count < 1 {
		return nil, apperr.Validation("count must be at least 1")
	}

	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "cart")
	}
	idx := cart.FindLine(item.ProductID, item.ColorID)
	if idx < 0 {
		return nil, apperr.NotFound("item not found in cart")
	}

	product, err := s.store.Products.Get(ctx, item.ProductID)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	if item.Count > product.StockQuantity {
		return nil, apperr.InsufficientStock(product.ID.Hex(), product.StockQuantity, item.Count)
	}

	cart.Lines[idx].Count = item.Count
	cart.UpdatedAt = time.Now()
	if err := s.store.Carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// Remove drops the line whose id, or product id, is itemID.
func (s *CartService) Remove(ctx context.Context, userID, itemID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "cart")
	}

	kept := make([]models.CartLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if line.ID == itemID || line.ProductID == itemID {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == len(cart.Lines) {
		return nil, apperr.NotFound("item not found in cart")
	}

	cart.Lines = kept
	cart.UpdatedAt = time.Now()
	if err := s.store.Carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// Get returns the cart with product details fetched concurrently.
func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) (*CartView, error) {
	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "cart")
	}

	items := make([]CartItemView, len(cart.Lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(populateConcurrency)
	for i, line := range cart.Lines {
		items[i] = CartItemView{CartLine: line}
		g.Go(func() error {
			product, err := s.store.Products.Get(gctx, line.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("load product %s: %w", line.ProductID.Hex(), err)
			}
			product.Decorate()
			items[i].Product = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		CartTotal: cart.Total(),
		UpdatedAt: cart.UpdatedAt,
	}, nil
}
