package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/storage"
)

const APIPrefix = "/api/v1"

// Deps is everything the route table needs.
type Deps struct {
	Auth     *services.AuthService
	Carts    *services.CartService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Catalog  *services.CatalogService
	Contacts *services.ContactService
	Blogs    *services.BlogService
	Uploader storage.Uploader
	// Ping reports backend health for /healthz.
	Ping func(ctx context.Context) error

	JWTSecret      string
	CallbackSecret string
}

type routeDef struct {
	method  string
	path    string
	policy  middleware.Policy
	handler gin.HandlerFunc
}

func routeTable(d Deps) []routeDef {
	const (
		public = middleware.Public
		user   = middleware.User
		admin  = middleware.Admin
	)
	return []routeDef{
		{http.MethodPost, "/auth/signup", public, Signup(d.Auth)},
		{http.MethodPost, "/auth/login", public, Login(d.Auth)},
		{http.MethodPost, "/auth/refresh", public, Refresh(d.Auth)},
		{http.MethodPost, "/auth/logout", public, Logout(d.Auth)},
		{http.MethodPost, "/auth/forgot-password", public, ForgotPassword(d.Auth)},
		{http.MethodPost, "/auth/enter-new-password", public, EnterNewPassword(d.Auth)},
		{http.MethodPut, "/auth/updatePassword", user, UpdatePassword(d.Auth)},
		{http.MethodGet, "/user/viewProfile", user, ViewProfile(d.Auth)},

		{http.MethodPost, "/product/create", admin, CreateProduct(d.Catalog, d.Uploader)},
		{http.MethodPut, "/product/updateProduct/:id", admin, UpdateProduct(d.Catalog)},
		{http.MethodDelete, "/product/deleteProduct/:id", admin, DeleteProduct(d.Catalog)},
		{http.MethodGet, "/product/viewAllProd", public, ViewAllProducts(d.Catalog)},
		{http.MethodGet, "/product/viewProd/:id", public, ViewProduct(d.Catalog)},
		{http.MethodGet, "/product/last-n-products", public, LastNProducts(d.Catalog)},
		{http.MethodPost, "/product/rating/:productId", user, RateProduct(d.Catalog)},
		{http.MethodPost, "/product/wishlist/:productId", user, AddToWishlist(d.Catalog)},
		{http.MethodGet, "/product/getwishlist", user, GetWishlist(d.Catalog)},

		{http.MethodPost, "/cart/createCart", user, CreateCart(d.Carts)},
		{http.MethodPut, "/cart/updateCart", user, UpdateCart(d.Carts)},
		{http.MethodGet, "/cart/getUserCart", user, GetUserCart(d.Carts)},
		{http.MethodDelete, "/cart/removeItem/:itemId", user, RemoveCartItem(d.Carts)},

		{http.MethodPost, "/order/createCartOrder", user, CreateCartOrder(d.Orders)},
		{http.MethodPost, "/order/createOrder", user, CreateOrder(d.Orders)},
		{http.MethodGet, "/order/getOrder", user, GetOrders(d.Orders)},
		{http.MethodGet, "/order/GetOneOrder/:orderId", user, GetOneOrder(d.Orders)},
		{http.MethodDelete, "/order/removeOrder/:orderId", user, RemoveOrder(d.Orders)},
		{http.MethodGet, "/order/orderMade", admin, OrdersMade(d.Orders)},
		{http.MethodPut, "/order/updateOrderStatus/:orderId", admin, UpdateOrderStatus(d.Orders)},
		{http.MethodGet, "/order/categoryEarnings", admin, CategoryEarnings(d.Orders)},

		{http.MethodPost, "/payment/cashin/:orderId", user, CashIn(d.Payments)},
		{http.MethodPost, "/payment/cashout", admin, CashOut(d.Payments)},
		{http.MethodGet, "/payment/transaction", admin, Transactions(d.Payments)},
		{http.MethodGet, "/payment/view-all-Payment", admin, ViewAllPayments(d.Payments)},

		{http.MethodPost, "/blog/create", admin, CreateBlog(d.Blogs, d.Uploader)},
		{http.MethodPut, "/blog/update/:id", admin, UpdateBlog(d.Blogs, d.Uploader)},
		{http.MethodDelete, "/blog/delete/:id", admin, DeleteBlog(d.Blogs)},
		{http.MethodGet, "/blog/get/:id", public, GetBlog(d.Blogs)},
		{http.MethodGet, "/blog/viewAll", public, ViewAllBlogs(d.Blogs)},
		{http.MethodPost, "/blog/like/:id", user, ReactToBlog(d.Blogs, models.ReactionLike)},
		{http.MethodPost, "/blog/dislike/:id", user, ReactToBlog(d.Blogs, models.ReactionDislike)},

		{http.MethodPost, "/submit-message", public, SubmitMessage(d.Contacts)},
		{http.MethodGet, "/get-submitted-messages", admin, GetSubmittedMessages(d.Contacts)},
		{http.MethodPost, "/respond-to-message", admin, RespondToMessage(d.Contacts)},
		{http.MethodDelete, "/deleteContact/:id", admin, DeleteContact(d.Contacts)},

		{http.MethodGet, "/healthz", public, Health(d.Ping)},
	}
}

// Register mounts every route under APIPrefix behind its policy.
func Register(r *gin.Engine, d Deps) {
	api := r.Group(APIPrefix)
	table := routeTable(d)
	for _, rt := range table {
		api.Handle(rt.method, rt.path, middleware.AuthGuard(d.JWTSecret, rt.policy), rt.handler)
	}
	api.POST("/payment/callBack", middleware.CallbackAuth(d.CallbackSecret), PaymentCallback(d.Payments))
	log.Printf("[HTTP] [INFO] registered %d routes under %s", len(table)+1, APIPrefix)
}

func Health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /healthz"
		defer handlePanic(c, route)

		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.Printf("[%s] database ping failed: %v", route, err)
				respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
