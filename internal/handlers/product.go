package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/internal/store"
)

type updateProductRequest struct {
	ProductName   *string  `json:"productName"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	SaleEnabled   *bool    `json:"saleEnabled"`
	SalePrice     *float64 `json:"salePrice"`
	Brand         *string  `json:"brand"`
	Color         *string  `json:"color"`
	Category      *string  `json:"category"`
	StockQuantity *int     `json:"stock_quantity"`
}

func (r updateProductRequest) patch() (store.ProductPatch, error) {
	patch := store.ProductPatch{
		Name:          r.ProductName,
		Description:   r.Description,
		Price:         r.Price,
		SaleEnabled:   r.SaleEnabled,
		SalePrice:     r.SalePrice,
		StockQuantity: r.StockQuantity,
	}
	var err error
	if r.Brand != nil {
		if patch.BrandID, err = parseOptionalObjectID(*r.Brand, "brand"); err != nil {
			return store.ProductPatch{}, err
		}
	}
	if r.Color != nil {
		if patch.ColorID, err = parseOptionalObjectID(*r.Color, "color"); err != nil {
			return store.ProductPatch{}, err
		}
	}
	if r.Category != nil {
		if patch.CategoryID, err = parseOptionalObjectID(*r.Category, "category"); err != nil {
			return store.ProductPatch{}, err
		}
	}
	return patch, nil
}

type ratingRequest struct {
	Star    int    `json:"star" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

/* =========================
   ADMIN
========================= */

func CreateProduct(catalog *services.CatalogService, uploader storage.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /product/create"
		defer handlePanic(c, route)

		form, err := parseMultipartProductRequest(c)
		if err != nil {
			respondError(c, route, err)
			return
		}
		if !form.PriceSet {
			respondWithError(c, http.StatusBadRequest, route, "price is required")
			return
		}

		ctx := c.Request.Context()
		urls, err := saveImages(ctx, uploader, form.Images)
		if errors.Is(err, storage.ErrUnsupportedImage) {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err != nil {
			respondError(c, route, err)
			return
		}
		form.Product.Images = urls

		product, err := catalog.CreateProduct(ctx, form.Product)
		if err != nil {
			discardImages(ctx, uploader, urls)
			respondError(c, route, err)
			return
		}
		log.Println("[PRODUCT] [INFO] product created:", product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"message": "product created", "product": product})
	}
}

func UpdateProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /product/updateProduct/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		patch, err := req.patch()
		if err != nil {
			respondError(c, route, err)
			return
		}

		product, err := catalog.UpdateProduct(c.Request.Context(), id, patch)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product updated", "product": product})
	}
}

func DeleteProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /product/deleteProduct/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		if err := catalog.DeleteProduct(c.Request.Context(), id); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

/* =========================
   PUBLIC
========================= */

func ViewAllProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/viewAllProd"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		categoryID, err := parseOptionalObjectID(c.Query("category"), "category")
		if err != nil {
			respondError(c, route, err)
			return
		}
		brandID, err := parseOptionalObjectID(c.Query("brand"), "brand")
		if err != nil {
			respondError(c, route, err)
			return
		}

		result, err := catalog.ListProducts(c.Request.Context(), store.ProductFilter{
			CategoryID: categoryID,
			BrandID:    brandID,
			Search:     strings.TrimSpace(c.Query("search")),
			Page:       page,
			Limit:      limit,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		if result.Items == nil {
			result.Items = []models.Product{}
		}
		c.JSON(http.StatusOK, result)
	}
}

func ViewProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/viewProd/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		product, err := catalog.GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

func LastNProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/last-n-products"
		defer handlePanic(c, route)

		var n int64
		if raw := strings.TrimSpace(c.Query("n")); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 1 {
				respondError(c, route, apperr.Validation("n must be a positive integer"))
				return
			}
			n = parsed
		}

		products, err := catalog.LatestProducts(c.Request.Context(), n)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

/* =========================
   USER
========================= */

func RateProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /product/rating/:productId"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		productID, ok := parseObjectIDParam(c, route, "productId")
		if !ok {
			return
		}
		var req ratingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		product, err := catalog.Rate(c.Request.Context(), userID, productID, req.Star, req.Comment)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "rating saved", "product": product})
	}
}

func AddToWishlist(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /product/wishlist/:productId"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		productID, ok := parseObjectIDParam(c, route, "productId")
		if !ok {
			return
		}

		wishlist, err := catalog.AddToWishlist(c.Request.Context(), userID, productID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "added to wishlist", "wishlist": wishlist})
	}
}

func GetWishlist(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/getwishlist"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		wishlist, err := catalog.Wishlist(c.Request.Context(), userID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"wishlist": wishlist})
	}
}
