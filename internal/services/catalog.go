package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

const (
	defaultLatestProducts = 10
	maxLatestProducts     = 50
)

type CatalogService struct {
	store store.Store
}

func NewCatalogService(s store.Store) *CatalogService {
	return &CatalogService{store: s}
}

type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	SaleEnabled   bool
	SalePrice     float64
	BrandID       *primitive.ObjectID
	ColorID       *primitive.ObjectID
	CategoryID    *primitive.ObjectID
	Images        []string
	StockQuantity int
}

type ProductPage struct {
	Items []models.Product `json:"products"`
	Total int64            `json:"total"`
	Page  int64            `json:"page"`
	Limit int64            `json:"limit"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	name, err := requireText(in.Name, "productName")
	if err != nil {
		return nil, err
	}
	if in.StockQuantity < 0 {
		return nil, apperr.Validation("stock_quantity must not be negative")
	}
	if err := models.ValidateSale(in.Price, in.SaleEnabled, in.SalePrice); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if !in.SaleEnabled {
		in.SalePrice = 0
	}

	now := time.Now()
	p := &models.Product{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		SaleEnabled:   in.SaleEnabled,
		SalePrice:     in.SalePrice,
		BrandID:       in.BrandID,
		ColorID:       in.ColorID,
		CategoryID:    in.CategoryID,
		Images:        models.StringList(in.Images),
		Ratings:       []models.Rating{},
		StockQuantity: in.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	p.Decorate()
	return p, nil
}

// UpdateProduct applies a partial update. Sale rules are checked against the
// product as it will look after the update.
func (s *CatalogService) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error) {
	if patch.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	current, err := s.store.Products.Get(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product")
	}

	if patch.Name != nil {
		name, err := requireText(*patch.Name, "productName")
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.StockQuantity != nil && *patch.StockQuantity < 0 {
		return nil, apperr.Validation("stock_quantity must not be negative")
	}

	price, saleEnabled, salePrice := current.Price, current.SaleEnabled, current.SalePrice
	if patch.Price != nil {
		price = *patch.Price
	}
	if patch.SaleEnabled != nil {
		saleEnabled = *patch.SaleEnabled
	}
	if patch.SalePrice != nil {
		salePrice = *patch.SalePrice
	}
	if err := models.ValidateSale(price, saleEnabled, salePrice); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	updated, err := s.store.Products.Update(ctx, id, patch)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	updated.Decorate()
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.Products.SoftDelete(ctx, id); err != nil {
		return lookupErr(err, "product")
	}
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f store.ProductFilter) (*ProductPage, error) {
	items, total, err := s.store.Products.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}
	return &ProductPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.store.Products.Get(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	p.Decorate()
	return p, nil
}

func (s *CatalogService) LatestProducts(ctx context.Context, n int64) ([]models.Product, error) {
	if n <= 0 {
		n = defaultLatestProducts
	}
	if n > maxLatestProducts {
		n = maxLatestProducts
	}
	page, err := s.ListProducts(ctx, store.ProductFilter{Page: 1, Limit: n})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Rate records one rating per user; rating again replaces the earlier star.
func (s *CatalogService) Rate(ctx context.Context, userID, productID primitive.ObjectID, star int, comment string) (*models.Product, error) {
	if star < 1 || star > 5 {
		return nil, apperr.Validation("star must be between 1 and 5")
	}

	var product *models.Product
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.store.Products.Get(ctx, productID)
		if err != nil {
			return lookupErr(err, "product")
		}

		rating := models.Rating{Star: star, Comment: strings.TrimSpace(comment), PostedBy: userID}
		replaced := false
		for i := range product.Ratings {
			if product.Ratings[i].PostedBy == userID {
				product.Ratings[i] = rating
				replaced = true
				break
			}
		}
		if !replaced {
			product.Ratings = append(product.Ratings, rating)
		}
		product.TotalRating = averageStars(product.Ratings)
		return s.store.Products.SetRatings(ctx, productID, product.Ratings, product.TotalRating)
	})
	if err != nil {
		return nil, err
	}
	product.Decorate()
	return product, nil
}

func averageStars(ratings []models.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Star
	}
	return math.Round(float64(sum)/float64(len(ratings))*10) / 10
}

func (s *CatalogService) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) ([]models.Product, error) {
	if _, err := s.store.Products.Get(ctx, productID); err != nil {
		return nil, lookupErr(err, "product")
	}
	if err := s.store.Users.AddToWishlist(ctx, userID, productID); err != nil {
		return nil, lookupErr(err, "user")
	}
	return s.Wishlist(ctx, userID)
}

// Wishlist returns the wished-for products still in the catalog, in the order
// they were added.
func (s *CatalogService) Wishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}

	slots := make([]*models.Product, len(user.Wishlist))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(populateConcurrency)
	for i, id := range user.Wishlist {
		g.Go(func() error {
			p, err := s.store.Products.Get(gctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			p.Decorate()
			slots[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}

	out := make([]models.Product, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}
