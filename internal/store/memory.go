package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// memoryDB keeps every collection behind one lock. A transaction holds the
// write lock for its whole duration and restores a snapshot when fn fails.
type memoryDB struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart // keyed by user id
	orders   map[primitive.ObjectID]models.Order
	payments map[primitive.ObjectID]models.Payment
	users    map[primitive.ObjectID]models.User
	tokens   map[primitive.ObjectID]models.RefreshToken
	contacts map[primitive.ObjectID]models.Contact
	blogs    map[primitive.ObjectID]models.Blog
}

type memorySnapshot struct {
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart
	orders   map[primitive.ObjectID]models.Order
	payments map[primitive.ObjectID]models.Payment
	users    map[primitive.ObjectID]models.User
	tokens   map[primitive.ObjectID]models.RefreshToken
	contacts map[primitive.ObjectID]models.Contact
	blogs    map[primitive.ObjectID]models.Blog
}

// NewMemory returns a Store backed by process memory.
func NewMemory() Store {
	db := &memoryDB{
		products: make(map[primitive.ObjectID]models.Product),
		carts:    make(map[primitive.ObjectID]models.Cart),
		orders:   make(map[primitive.ObjectID]models.Order),
		payments: make(map[primitive.ObjectID]models.Payment),
		users:    make(map[primitive.ObjectID]models.User),
		tokens:   make(map[primitive.ObjectID]models.RefreshToken),
		contacts: make(map[primitive.ObjectID]models.Contact),
		blogs:    make(map[primitive.ObjectID]models.Blog),
	}
	return Store{
		Products:      &memoryProducts{db},
		Carts:         &memoryCarts{db},
		Orders:        &memoryOrders{db},
		Payments:      &memoryPayments{db},
		Users:         &memoryUsers{db},
		RefreshTokens: &memoryTokens{db},
		Contacts:      &memoryContacts{db},
		Blogs:         &memoryBlogs{db},
		Tx:            db,
		Ping:          func(context.Context) error { return nil },
	}
}

type txKey struct{}

func (m *memoryDB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*memoryDB)
	return owner == m
}

func (m *memoryDB) rlock(ctx context.Context) {
	if !m.inTx(ctx) {
		m.mu.RLock()
	}
}

func (m *memoryDB) runlock(ctx context.Context) {
	if !m.inTx(ctx) {
		m.mu.RUnlock()
	}
}

func (m *memoryDB) wlock(ctx context.Context) {
	if !m.inTx(ctx) {
		m.mu.Lock()
	}
}

func (m *memoryDB) wunlock(ctx context.Context) {
	if !m.inTx(ctx) {
		m.mu.Unlock()
	}
}

func (m *memoryDB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, m)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memoryDB) snapshot() memorySnapshot {
	return memorySnapshot{
		products: copyMap(m.products),
		carts:    copyMap(m.carts),
		orders:   copyMap(m.orders),
		payments: copyMap(m.payments),
		users:    copyMap(m.users),
		tokens:   copyMap(m.tokens),
		contacts: copyMap(m.contacts),
		blogs:    copyMap(m.blogs),
	}
}

func (m *memoryDB) restore(s memorySnapshot) {
	m.products = s.products
	m.carts = s.carts
	m.orders = s.orders
	m.payments = s.payments
	m.users = s.users
	m.tokens = s.tokens
	m.contacts = s.contacts
	m.blogs = s.blogs
}

// copyMap is shallow: stored values are never mutated in place, every write
// stores a fresh clone.
func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

func cloneProduct(p models.Product) models.Product {
	p.Images = cloneSlice(p.Images)
	p.Ratings = cloneSlice(p.Ratings)
	return p
}

func cloneCart(c models.Cart) models.Cart {
	c.Lines = cloneSlice(c.Lines)
	return c
}

func cloneOrder(o models.Order) models.Order {
	o.Lines = cloneSlice(o.Lines)
	return o
}

func clonePayment(p models.Payment) models.Payment {
	p.PreviousRefs = cloneSlice(p.PreviousRefs)
	p.RefundRefs = cloneSlice(p.RefundRefs)
	return p
}

func cloneBlog(b models.Blog) models.Blog {
	b.Likes = cloneSlice(b.Likes)
	b.Dislikes = cloneSlice(b.Dislikes)
	return b
}

func cloneUser(u models.User) models.User {
	u.Wishlist = cloneSlice(u.Wishlist)
	u.Orders = cloneSlice(u.Orders)
	return u
}

/* =========================
   PRODUCTS
========================= */

type memoryProducts struct{ db *memoryDB }

func (r *memoryProducts) Create(ctx context.Context, p *models.Product) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.db.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *memoryProducts) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	p, ok := r.db.products[id]
	if !ok || p.IsDeleted {
		return nil, ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *memoryProducts) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]models.Product, 0)
	for _, p := range r.db.products {
		if p.IsDeleted {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.BrandID != nil && (p.BrandID == nil || *p.BrandID != *f.BrandID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	total := int64(len(matched))
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.Limit
		if start >= total {
			return []models.Product{}, total, nil
		}
		end := start + f.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *memoryProducts) Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.Product, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	stored, ok := r.db.products[id]
	if !ok || stored.IsDeleted {
		return nil, ErrNotFound
	}
	p := cloneProduct(stored)
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.SaleEnabled != nil {
		p.SaleEnabled = *patch.SaleEnabled
	}
	if patch.SalePrice != nil {
		p.SalePrice = *patch.SalePrice
	}
	if patch.BrandID != nil {
		p.BrandID = patch.BrandID
	}
	if patch.ColorID != nil {
		p.ColorID = patch.ColorID
	}
	if patch.CategoryID != nil {
		p.CategoryID = patch.CategoryID
	}
	if patch.Images != nil {
		p.Images = cloneSlice(*patch.Images)
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	p.UpdatedAt = time.Now()
	r.db.products[id] = p
	out := cloneProduct(p)
	return &out, nil
}

func (r *memoryProducts) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	p, ok := r.db.products[id]
	if !ok || p.IsDeleted {
		return ErrNotFound
	}
	now := time.Now()
	p = cloneProduct(p)
	p.IsDeleted = true
	p.DeletedAt = &now
	r.db.products[id] = p
	return nil
}

func (r *memoryProducts) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	p, ok := r.db.products[id]
	if !ok || p.IsDeleted || p.StockQuantity < qty {
		return false, nil
	}
	p = cloneProduct(p)
	p.StockQuantity -= qty
	r.db.products[id] = p
	return true, nil
}

func (r *memoryProducts) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	p, ok := r.db.products[id]
	if !ok {
		return ErrNotFound
	}
	p = cloneProduct(p)
	p.StockQuantity += qty
	r.db.products[id] = p
	return nil
}

func (r *memoryProducts) SetRatings(ctx context.Context, id primitive.ObjectID, ratings []models.Rating, total float64) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	p, ok := r.db.products[id]
	if !ok || p.IsDeleted {
		return ErrNotFound
	}
	p = cloneProduct(p)
	p.Ratings = cloneSlice(ratings)
	p.TotalRating = total
	r.db.products[id] = p
	return nil
}

/* =========================
   CARTS
========================= */

type memoryCarts struct{ db *memoryDB }

func (r *memoryCarts) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	c, ok := r.db.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCart(c)
	return &out, nil
}

func (r *memoryCarts) Save(ctx context.Context, cart *models.Cart) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if existing, ok := r.db.carts[cart.UserID]; ok {
		cart.ID = existing.ID
		cart.CreatedAt = existing.CreatedAt
	}
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	r.db.carts[cart.UserID] = cloneCart(*cart)
	return nil
}

/* =========================
   ORDERS
========================= */

type memoryOrders struct{ db *memoryDB }

func (r *memoryOrders) Create(ctx context.Context, o *models.Order) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.db.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *memoryOrders) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	o, ok := r.db.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *memoryOrders) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.list(ctx, func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r *memoryOrders) List(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, func(models.Order) bool { return true }), nil
}

func (r *memoryOrders) list(ctx context.Context, keep func(models.Order) bool) []models.Order {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	out := make([]models.Order, 0)
	for _, o := range r.db.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memoryOrders) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	o, ok := r.db.orders[id]
	if !ok || o.OrderStatus != from {
		return false, nil
	}
	o = cloneOrder(o)
	o.OrderStatus = to
	o.UpdatedAt = time.Now()
	r.db.orders[id] = o
	return true, nil
}

func (r *memoryOrders) SetPayment(ctx context.Context, id, paymentID primitive.ObjectID) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	o, ok := r.db.orders[id]
	if !ok {
		return ErrNotFound
	}
	o = cloneOrder(o)
	o.PaymentID = &paymentID
	o.UpdatedAt = time.Now()
	r.db.orders[id] = o
	return nil
}

/* =========================
   PAYMENTS
========================= */

type memoryPayments struct{ db *memoryDB }

func (r *memoryPayments) Create(ctx context.Context, p *models.Payment) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	for _, existing := range r.db.payments {
		if existing.HasRef(p.Ref) {
			return ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.db.payments[p.ID] = clonePayment(*p)
	return nil
}

func (r *memoryPayments) Get(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	p, ok := r.db.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clonePayment(p)
	return &out, nil
}

func (r *memoryPayments) GetByRef(ctx context.Context, ref string) (*models.Payment, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	for _, p := range r.db.payments {
		if p.HasRef(ref) {
			out := clonePayment(p)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryPayments) LatestForOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	var latest *models.Payment
	for _, p := range r.db.payments {
		if p.OrderID != orderID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			candidate := clonePayment(p)
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (r *memoryPayments) Reinitiate(ctx context.Context, id primitive.ObjectID, ref, number string, amount float64) (bool, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	p, ok := r.db.payments[id]
	if !ok || p.Status != models.PaymentPending {
		return false, nil
	}
	for otherID, other := range r.db.payments {
		if otherID != id && other.HasRef(ref) {
			return false, ErrDuplicate
		}
	}
	p = clonePayment(p)
	if p.Ref != "" && p.Ref != ref {
		p.PreviousRefs = append(p.PreviousRefs, p.Ref)
	}
	p.Ref = ref
	p.Number = number
	p.Amount = amount
	p.UpdatedAt = time.Now()
	r.db.payments[id] = p
	return true, nil
}

func (r *memoryPayments) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, ref string) (bool, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	p, ok := r.db.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p = clonePayment(p)
	p.Status = to
	p.SettledRef = ref
	p.UpdatedAt = time.Now()
	r.db.payments[id] = p
	return true, nil
}

func (r *memoryPayments) FlagRefund(ctx context.Context, id primitive.ObjectID, ref string) (bool, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	p, ok := r.db.payments[id]
	if !ok {
		return false, ErrNotFound
	}
	for _, owed := range p.RefundRefs {
		if owed == ref {
			return false, nil
		}
	}
	p = clonePayment(p)
	p.RefundRefs = append(p.RefundRefs, ref)
	p.UpdatedAt = time.Now()
	r.db.payments[id] = p
	return true, nil
}

func (r *memoryPayments) List(ctx context.Context, status *models.PaymentStatus) ([]models.Payment, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	out := make([]models.Payment, 0)
	for _, p := range r.db.payments {
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, clonePayment(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

/* =========================
   USERS
========================= */

type memoryUsers struct{ db *memoryDB }

func (r *memoryUsers) Create(ctx context.Context, u *models.User) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	for _, existing := range r.db.users {
		if existing.Email == u.Email || (u.Phone != "" && existing.Phone == u.Phone) {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.db.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *memoryUsers) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.Email == email })
}

func (r *memoryUsers) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return phone != "" && u.Phone == phone })
}

func (r *memoryUsers) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	for _, u := range r.db.users {
		if match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) mutate(ctx context.Context, id primitive.ObjectID, fn func(u *models.User)) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	u, ok := r.db.users[id]
	if !ok {
		return ErrNotFound
	}
	u = cloneUser(u)
	fn(&u)
	u.UpdatedAt = time.Now()
	r.db.users[id] = u
	return nil
}

func (r *memoryUsers) AddOrder(ctx context.Context, userID, orderID primitive.ObjectID) error {
	return r.mutate(ctx, userID, func(u *models.User) { u.Orders = append(u.Orders, orderID) })
}

func (r *memoryUsers) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return r.mutate(ctx, userID, func(u *models.User) {
		for _, id := range u.Wishlist {
			if id == productID {
				return
			}
		}
		u.Wishlist = append(u.Wishlist, productID)
	})
}

func (r *memoryUsers) SetPassword(ctx context.Context, userID primitive.ObjectID, hash string) error {
	return r.mutate(ctx, userID, func(u *models.User) { u.PasswordHash = hash })
}

func (r *memoryUsers) SetResetOTP(ctx context.Context, userID primitive.ObjectID, hash string, expiry time.Time) error {
	return r.mutate(ctx, userID, func(u *models.User) {
		u.ResetOTPHash = hash
		u.ResetOTPExpiry = &expiry
	})
}

func (r *memoryUsers) ClearResetOTP(ctx context.Context, userID primitive.ObjectID) error {
	return r.mutate(ctx, userID, func(u *models.User) {
		u.ResetOTPHash = ""
		u.ResetOTPExpiry = nil
	})
}

/* =========================
   REFRESH TOKENS
========================= */

type memoryTokens struct{ db *memoryDB }

func (r *memoryTokens) Create(ctx context.Context, t *models.RefreshToken) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.db.tokens[t.ID] = *t
	return nil
}

func (r *memoryTokens) FindActive(ctx context.Context, hash string) (*models.RefreshToken, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	for _, t := range r.db.tokens {
		if t.TokenHash == hash && !t.Revoked {
			out := t
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryTokens) Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) (bool, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	t, ok := r.db.tokens[id]
	if !ok || t.Revoked {
		return false, nil
	}
	now := time.Now()
	t.Revoked = true
	t.RevokedAt = &now
	t.ReplacedByToken = replacedBy
	r.db.tokens[id] = t
	return true, nil
}

func (r *memoryTokens) RevokeByHash(ctx context.Context, hash string) (bool, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	for id, t := range r.db.tokens {
		if t.TokenHash == hash && !t.Revoked {
			now := time.Now()
			t.Revoked = true
			t.RevokedAt = &now
			r.db.tokens[id] = t
			return true, nil
		}
	}
	return false, nil
}

/* =========================
   CONTACTS
========================= */

type memoryContacts struct{ db *memoryDB }

func (r *memoryContacts) Create(ctx context.Context, c *models.Contact) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.db.contacts[c.ID] = *c
	return nil
}

func (r *memoryContacts) Get(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	c, ok := r.db.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memoryContacts) List(ctx context.Context) ([]models.Contact, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	out := make([]models.Contact, 0, len(r.db.contacts))
	for _, c := range r.db.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryContacts) Respond(ctx context.Context, id primitive.ObjectID, resp models.AdminResponse, status models.ContactStatus) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	c, ok := r.db.contacts[id]
	if !ok {
		return ErrNotFound
	}
	c.AdminResponse = &resp
	c.Status = status
	r.db.contacts[id] = c
	return nil
}

func (r *memoryContacts) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if _, ok := r.db.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.contacts, id)
	return nil
}

/* =========================
   BLOGS
========================= */

type memoryBlogs struct{ db *memoryDB }

func (r *memoryBlogs) Create(ctx context.Context, b *models.Blog) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	r.db.blogs[b.ID] = cloneBlog(*b)
	return nil
}

func (r *memoryBlogs) Get(ctx context.Context, id primitive.ObjectID) (*models.Blog, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	b, ok := r.db.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneBlog(b)
	return &out, nil
}

func (r *memoryBlogs) List(ctx context.Context) ([]models.Blog, error) {
	r.db.rlock(ctx)
	defer r.db.runlock(ctx)
	out := make([]models.Blog, 0, len(r.db.blogs))
	for _, b := range r.db.blogs {
		out = append(out, cloneBlog(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryBlogs) Update(ctx context.Context, id primitive.ObjectID, patch BlogPatch) (*models.Blog, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	b, ok := r.db.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	b = cloneBlog(b)
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		cat := *patch.CategoryID
		b.CategoryID = &cat
	}
	if patch.Image != nil {
		b.Image = *patch.Image
	}
	b.UpdatedAt = time.Now()
	r.db.blogs[id] = b
	out := cloneBlog(b)
	return &out, nil
}

func (r *memoryBlogs) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	if _, ok := r.db.blogs[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.blogs, id)
	return nil
}

func (r *memoryBlogs) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Blog, error) {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	b, ok := r.db.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	b = cloneBlog(b)
	b.NumViews++
	r.db.blogs[id] = b
	out := cloneBlog(b)
	return &out, nil
}

func (r *memoryBlogs) SetReactions(ctx context.Context, id primitive.ObjectID, likes, dislikes []primitive.ObjectID) error {
	r.db.wlock(ctx)
	defer r.db.wunlock(ctx)
	b, ok := r.db.blogs[id]
	if !ok {
		return ErrNotFound
	}
	b.Likes = cloneSlice(likes)
	b.Dislikes = cloneSlice(dislikes)
	b.UpdatedAt = time.Now()
	r.db.blogs[id] = b
	return nil
}
