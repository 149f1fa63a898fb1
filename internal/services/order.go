package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

type OrderService struct {
	store  store.Store
	idem   cache.Idempotency
	events eventSink
}

func NewOrderService(s store.Store, idem cache.Idempotency, pub events.Publisher, producer string) *OrderService {
	return &OrderService{store: s, idem: idem, events: eventSink{pub: pub, producer: producer}}
}

// CartOrderInput selects cart lines either by position or by line id.
type CartOrderInput struct {
	SelectedIndices []int
	LineIDs         []primitive.ObjectID
	ShippingAddress string
}

type DirectOrderInput struct {
	ProductID       primitive.ObjectID
	ColorID         *primitive.ObjectID
	Count           int
	ShippingAddress string
}

// OrderResult reports whether the order was created by this call or is the
// stored result of an earlier call with the same idempotency key.
type OrderResult struct {
	Order    *models.Order
	Replayed bool
}

/* =========================
   CREATE FROM CART
========================= */

func (s *OrderService) CreateFromCart(ctx context.Context, userID primitive.ObjectID, in CartOrderInput, idemKey string) (*OrderResult, error) {
	address, err := requireText(in.ShippingAddress, "shippingAddress")
	if err != nil {
		return nil, err
	}
	if (len(in.SelectedIndices) == 0) == (len(in.LineIDs) == 0) {
		return nil, apperr.Validation("provide exactly one of selectedProductIndices or lineIds")
	}

	return s.withIdempotency(ctx, userID, idemKey, func(ctx context.Context) (*models.Order, error) {
		var order *models.Order
		err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.store.Users.Get(ctx, userID); err != nil {
				return lookupErr(err, "user")
			}
			cart, err := s.store.Carts.GetByUser(ctx, userID)
			if errors.Is(err, store.ErrNotFound) || (err == nil && len(cart.Lines) == 0) {
				return apperr.NotFound("cart is empty")
			}
			if err != nil {
				return fmt.Errorf("load cart: %w", err)
			}

			selected, err := selectLines(cart, in)
			if err != nil {
				return err
			}

			lines := make([]models.OrderLine, 0, len(selected))
			for _, idx := range selected {
				cartLine := cart.Lines[idx]
				product, err := s.reserveStock(ctx, cartLine.ProductID, cartLine.Count)
				if err != nil {
					return err
				}
				lines = append(lines, orderLineFor(product, cartLine.ColorID, cartLine.Price, cartLine.Count))
			}

			order = newOrder(userID, lines, address)
			if err := s.store.Orders.Create(ctx, order); err != nil {
				return fmt.Errorf("create order: %w", err)
			}

			cart.Lines = removeIndices(cart.Lines, selected)
			cart.UpdatedAt = time.Now()
			if err := s.store.Carts.Save(ctx, cart); err != nil {
				return fmt.Errorf("save cart: %w", err)
			}
			if err := s.store.Users.AddOrder(ctx, userID, order.ID); err != nil {
				return fmt.Errorf("link order to user: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return order, nil
	})
}

// selectLines resolves the selection into distinct cart line indices.
func selectLines(cart *models.Cart, in CartOrderInput) ([]int, error) {
	seen := make(map[int]bool)
	out := make([]int, 0)

	if len(in.SelectedIndices) > 0 {
		for _, idx := range in.SelectedIndices {
			if idx < 0 || idx >= len(cart.Lines) {
				return nil, apperr.Validationf("selected index %d is out of range", idx)
			}
			if seen[idx] {
				return nil, apperr.Validationf("selected index %d is repeated", idx)
			}
			seen[idx] = true
			out = append(out, idx)
		}
		return out, nil
	}

	for _, id := range in.LineIDs {
		idx := -1
		for i, line := range cart.Lines {
			if line.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, apperr.Validationf("cart line %s not found", id.Hex())
		}
		if seen[idx] {
			return nil, apperr.Validationf("cart line %s is repeated", id.Hex())
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out, nil
}

func removeIndices(lines []models.CartLine, drop []int) []models.CartLine {
	dropped := make(map[int]bool, len(drop))
	for _, idx := range drop {
		dropped[idx] = true
	}
	kept := make([]models.CartLine, 0, len(lines))
	for i, line := range lines {
		if !dropped[i] {
			kept = append(kept, line)
		}
	}
	return kept
}

/* =========================
   CREATE DIRECT
========================= */

func (s *OrderService) CreateDirect(ctx context.Context, userID primitive.ObjectID, in DirectOrderInput, idemKey string) (*OrderResult, error) {
	address, err := requireText(in.ShippingAddress, "shippingAddress")
	if err != nil {
		return nil, err
	}
	if in.Count < 1 {
		return nil, apperr.Validation("count must be at least 1")
	}

	return s.withIdempotency(ctx, userID, idemKey, func(ctx context.Context) (*models.Order, error) {
		var order *models.Order
		err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.store.Users.Get(ctx, userID); err != nil {
				return lookupErr(err, "user")
			}
			product, err := s.reserveStock(ctx, in.ProductID, in.Count)
			if err != nil {
				return err
			}

			line := orderLineFor(product, in.ColorID, product.UnitPrice(), in.Count)
			order = newOrder(userID, []models.OrderLine{line}, address)
			if err := s.store.Orders.Create(ctx, order); err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			if err := s.store.Users.AddOrder(ctx, userID, order.ID); err != nil {
				return fmt.Errorf("link order to user: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return order, nil
	})
}

// reserveStock re-reads the product and takes count units with a conditional
// decrement. Must run inside a transaction.
func (s *OrderService) reserveStock(ctx context.Context, productID primitive.ObjectID, count int) (*models.Product, error) {
	product, err := s.store.Products.Get(ctx, productID)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	if product.StockQuantity < count {
		return nil, apperr.InsufficientStock(productID.Hex(), product.StockQuantity, count)
	}
	ok, err := s.store.Products.DecrementStock(ctx, productID, count)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	if !ok {
		return nil, apperr.InsufficientStock(productID.Hex(), product.StockQuantity, count)
	}
	return product, nil
}

func orderLineFor(p *models.Product, colorID *primitive.ObjectID, unitPrice float64, count int) models.OrderLine {
	return models.OrderLine{
		ProductID:  p.ID,
		ColorID:    colorID,
		CategoryID: p.CategoryID,
		BrandID:    p.BrandID,
		Name:       p.Name,
		UnitPrice:  unitPrice,
		Count:      count,
	}
}

func newOrder(userID primitive.ObjectID, lines []models.OrderLine, address string) *models.Order {
	now := time.Now()
	return &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		Lines:           lines,
		ShippingAddress: address,
		TotalOrderPrice: models.ComputeTotal(lines),
		OrderStatus:     models.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

/* =========================
   IDEMPOTENCY
========================= */

func (s *OrderService) withIdempotency(
	ctx context.Context,
	userID primitive.ObjectID,
	idemKey string,
	create func(ctx context.Context) (*models.Order, error),
) (*OrderResult, error) {
	if idemKey == "" || s.idem == nil {
		order, err := create(ctx)
		if err != nil {
			return nil, err
		}
		s.orderCreated(ctx, order)
		return &OrderResult{Order: order}, nil
	}

	key := cache.OrderCreateKey(userID.Hex(), idemKey)
	res, err := s.idem.Reserve(ctx, key)
	if err != nil {
		return nil, apperr.External("idempotency store unavailable", err)
	}
	if res.InFlight {
		return nil, apperr.Conflict("a request with this Idempotency-Key is still in progress")
	}
	if !res.Acquired {
		return s.replay(ctx, userID, res.Value)
	}

	order, err := create(ctx)
	if err != nil {
		if relErr := s.idem.Release(context.WithoutCancel(ctx), key); relErr != nil {
			log.Println("[ORDER] [ERROR] idempotency release failed:", relErr)
		}
		return nil, err
	}
	if err := s.idem.Complete(context.WithoutCancel(ctx), key, order.ID.Hex()); err != nil {
		log.Println("[ORDER] [ERROR] idempotency complete failed:", err)
	}
	s.orderCreated(ctx, order)
	return &OrderResult{Order: order}, nil
}

func (s *OrderService) replay(ctx context.Context, userID primitive.ObjectID, storedID string) (*OrderResult, error) {
	orderID, err := primitive.ObjectIDFromHex(storedID)
	if err != nil {
		return nil, fmt.Errorf("idempotency value %q: %w", storedID, err)
	}
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if order.UserID != userID {
		return nil, apperr.Conflict("Idempotency-Key already used")
	}
	log.Println("[ORDER] [INFO] replayed order:", order.ID.Hex())
	return &OrderResult{Order: order, Replayed: true}, nil
}

func (s *OrderService) orderCreated(ctx context.Context, order *models.Order) {
	log.Println("[ORDER] [INFO] order created for user:", order.UserID.Hex())
	s.events.emit(ctx, events.EventOrderCreated, order.ID.Hex(), events.OrderCreatedPayload{
		OrderID: order.ID.Hex(),
		UserID:  order.UserID.Hex(),
		Items:   orderLinePayload(order.Lines),
		Total:   order.TotalOrderPrice,
	})
}

/* =========================
   QUERIES & CANCEL
========================= */

func (s *OrderService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.store.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.Orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CategoryEarning is the revenue of Completed orders for one category.
// Lines without a category are grouped under an empty CategoryID.
type CategoryEarning struct {
	CategoryID string  `json:"categoryId"`
	Earnings   float64 `json:"earnings"`
	Units      int     `json:"units"`
}

func (s *OrderService) CategoryEarnings(ctx context.Context) ([]CategoryEarning, error) {
	orders, err := s.store.Orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	sums := make(map[string]decimal.Decimal)
	units := make(map[string]int)
	for _, order := range orders {
		if order.OrderStatus != models.OrderCompleted {
			continue
		}
		for _, line := range order.Lines {
			key := ""
			if line.CategoryID != nil {
				key = line.CategoryID.Hex()
			}
			sums[key] = sums[key].Add(models.LineAmount(line.UnitPrice, line.Count))
			units[key] += line.Count
		}
	}

	out := make([]CategoryEarning, 0, len(sums))
	for key, sum := range sums {
		out = append(out, CategoryEarning{CategoryID: key, Earnings: models.Cents(sum), Units: units[key]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Earnings != out[j].Earnings {
			return out[i].Earnings > out[j].Earnings
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (s *OrderService) Get(ctx context.Context, actor Actor, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if order.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("order belongs to another user")
	}
	return order, nil
}

// Cancel marks a Pending, unpaid order Cancelled and puts its stock back.
// It is refused while a payment prompt is outstanding.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.transition(ctx, orderID, models.OrderCancelled, func(ctx context.Context) (*models.Order, error) {
		return s.Get(ctx, actor, orderID)
	})
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, order, "cancelled by user")
	return order, nil
}

// UpdateStatus is the admin override of an order's status. Only Pending
// orders move, and never while a payment is in progress.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID primitive.ObjectID, raw string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	status, err := models.ParseOrderStatus(raw)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if status == models.OrderPending {
		return nil, apperr.Validation("orders cannot be moved back to Pending")
	}

	order, err := s.transition(ctx, orderID, status, func(ctx context.Context) (*models.Order, error) {
		order, err := s.store.Orders.Get(ctx, orderID)
		if err != nil {
			return nil, lookupErr(err, "order")
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, order, "set by admin")
	return order, nil
}

// transition moves a Pending order to status inside one transaction. A
// Cancelled order gets its stock back.
func (s *OrderService) transition(
	ctx context.Context,
	orderID primitive.ObjectID,
	status models.OrderStatus,
	load func(ctx context.Context) (*models.Order, error),
) (*models.Order, error) {
	var order *models.Order
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = load(ctx)
		if err != nil {
			return err
		}
		if order.OrderStatus != models.OrderPending {
			return apperr.Conflict(fmt.Sprintf("order is %s and cannot be %s", order.OrderStatus, strings.ToLower(string(status))))
		}

		latest, err := s.store.Payments.LatestForOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load payment: %w", err)
		}
		if latest != nil {
			switch latest.Status {
			case models.PaymentPending:
				return apperr.Conflict("a payment for this order is in progress")
			case models.PaymentSuccessful:
				if status == models.OrderCancelled {
					return apperr.Conflict("order is already paid")
				}
			}
		}

		ok, err := s.store.Orders.UpdateStatus(ctx, order.ID, models.OrderPending, status)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !ok {
			return apperr.Conflict("order is no longer pending")
		}
		if status == models.OrderCancelled {
			if err := restoreStock(ctx, s.store.Products, order.Lines); err != nil {
				return err
			}
		}
		order.OrderStatus = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) statusChanged(ctx context.Context, order *models.Order, reason string) {
	eventType := events.EventOrderCompleted
	if order.OrderStatus == models.OrderCancelled {
		eventType = events.EventOrderCancelled
	}
	log.Printf("[ORDER] [INFO] order %s %s (%s)", order.ID.Hex(), strings.ToLower(string(order.OrderStatus)), reason)
	s.events.emit(ctx, eventType, order.ID.Hex(), events.OrderStatusPayload{
		OrderID: order.ID.Hex(),
		Status:  string(order.OrderStatus),
		Reason:  reason,
	})
}

// restoreStock gives back the units of lines. Products removed from the
// catalog since are skipped.
func restoreStock(ctx context.Context, products store.Products, lines []models.OrderLine) error {
	for _, line := range lines {
		err := products.IncrementStock(ctx, line.ProductID, line.Count)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("restore stock of %s: %w", line.ProductID.Hex(), err)
		}
	}
	return nil
}
