package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/services"
)

type cartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	ColorID   string `json:"colorId"`
	Count     int    `json:"count" binding:"required,min=1"`
}

type createCartRequest struct {
	ProductDetails []cartItemRequest `json:"productDetails" binding:"required,min=1,dive"`
}

func (r cartItemRequest) input() (services.CartItemInput, error) {
	productID, err := primitive.ObjectIDFromHex(r.ProductID)
	if err != nil {
		return services.CartItemInput{}, apperr.Validation("invalid productId")
	}
	colorID, err := parseOptionalObjectID(r.ColorID, "colorId")
	if err != nil {
		return services.CartItemInput{}, err
	}
	return services.CartItemInput{ProductID: productID, ColorID: colorID, Count: r.Count}, nil
}

func CreateCart(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/createCart"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		var req createCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		items := make([]services.CartItemInput, 0, len(req.ProductDetails))
		for _, item := range req.ProductDetails {
			in, err := item.input()
			if err != nil {
				respondError(c, route, err)
				return
			}
			items = append(items, in)
		}

		cart, err := carts.Add(c.Request.Context(), userID, items)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart updated", "cart": cart, "cartTotal": cart.Total()})
	}
}

func UpdateCart(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/updateCart"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		in, err := req.input()
		if err != nil {
			respondError(c, route, err)
			return
		}

		cart, err := carts.Update(c.Request.Context(), userID, in)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart updated", "cart": cart, "cartTotal": cart.Total()})
	}
}

func GetUserCart(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart/getUserCart"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		view, err := carts.Get(c.Request.Context(), userID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func RemoveCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/removeItem/:itemId"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		itemID, ok := parseObjectIDParam(c, route, "itemId")
		if !ok {
			return
		}

		cart, err := carts.Remove(c.Request.Context(), userID, itemID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "item removed", "cart": cart, "cartTotal": cart.Total()})
	}
}
