package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/services"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 128
)

/* =========================
   REQUEST DTOs
========================= */

type createCartOrderRequest struct {
	SelectedProductIndices []int    `json:"selectedProductIndices"`
	LineIDs                []string `json:"lineIds"`
	ShippingAddress        string   `json:"shippingAddress" binding:"required"`
}

type createOrderRequest struct {
	ProductID       string `json:"productId" binding:"required"`
	ColorID         string `json:"colorId"`
	Count           int    `json:"count" binding:"required,min=1"`
	ShippingAddress string `json:"shippingAddress" binding:"required"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func idempotencyKey(c *gin.Context, route string) (string, bool) {
	key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		respondWithError(c, http.StatusBadRequest, route, "Idempotency-Key is too long")
		return "", false
	}
	return key, true
}

func respondOrderCreated(c *gin.Context, res *services.OrderResult) {
	if res.Replayed {
		c.Header(replayedHeader, "true")
		c.JSON(http.StatusOK, gin.H{"message": "order already created", "order": res.Order})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "order created", "order": res.Order})
}

/* =========================
   CREATE
========================= */

func CreateCartOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /order/createCartOrder"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		key, ok := idempotencyKey(c, route)
		if !ok {
			return
		}
		var req createCartOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		lineIDs := make([]primitive.ObjectID, 0, len(req.LineIDs))
		for _, raw := range req.LineIDs {
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid line id")
				return
			}
			lineIDs = append(lineIDs, id)
		}

		res, err := orders.CreateFromCart(c.Request.Context(), userID, services.CartOrderInput{
			SelectedIndices: req.SelectedProductIndices,
			LineIDs:         lineIDs,
			ShippingAddress: req.ShippingAddress,
		}, key)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respondOrderCreated(c, res)
	}
}

func CreateOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /order/createOrder"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		key, ok := idempotencyKey(c, route)
		if !ok {
			return
		}
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}
		colorID, err := parseOptionalObjectID(req.ColorID, "colorId")
		if err != nil {
			respondError(c, route, err)
			return
		}

		res, err := orders.CreateDirect(c.Request.Context(), userID, services.DirectOrderInput{
			ProductID:       productID,
			ColorID:         colorID,
			Count:           req.Count,
			ShippingAddress: req.ShippingAddress,
		}, key)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respondOrderCreated(c, res)
	}
}

/* =========================
   QUERIES & CANCEL
========================= */

func GetOrders(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/getOrder"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		list, err := orders.ListForUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": nonNilOrders(list)})
	}
}

func GetOneOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/GetOneOrder/:orderId"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}
		orderID, ok := parseObjectIDParam(c, route, "orderId")
		if !ok {
			return
		}

		order, err := orders.Get(c.Request.Context(), actor, orderID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

func RemoveOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /order/removeOrder/:orderId"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}
		orderID, ok := parseObjectIDParam(c, route, "orderId")
		if !ok {
			return
		}

		order, err := orders.Cancel(c.Request.Context(), actor, orderID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order cancelled", "order": order})
	}
}

func UpdateOrderStatus(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /order/updateOrderStatus/:orderId"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}
		orderID, ok := parseObjectIDParam(c, route, "orderId")
		if !ok {
			return
		}
		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := orders.UpdateStatus(c.Request.Context(), actor, orderID, req.Status)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": order})
	}
}

func CategoryEarnings(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/categoryEarnings"
		defer handlePanic(c, route)

		earnings, err := orders.CategoryEarnings(c.Request.Context())
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": earnings})
	}
}

func OrdersMade(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/orderMade"
		defer handlePanic(c, route)

		list, err := orders.ListAll(c.Request.Context())
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": nonNilOrders(list)})
	}
}

func nonNilOrders(list []models.Order) []models.Order {
	if list == nil {
		return []models.Order{}
	}
	return list
}
