package handlers

import (
	"context"
	"log"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/services"
	"storefront/internal/storage"
)

const (
	maxMultipartMemory = 32 << 20
	imageField         = "productImage"
)

/*
=======================
  INPUT STRUCT
=======================
*/

type MultipartProductInput struct {
	Product        services.ProductInput
	Images         []*multipart.FileHeader
	PriceSet       bool
	SaleEnabledSet bool
	SalePriceSet   bool
}

/*
=======================
  PARSER
=======================
*/

// parseMultipartProductRequest reads the product form. Repeated scalar fields
// resolve to their last value.
func parseMultipartProductRequest(c *gin.Context) (MultipartProductInput, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		log.Println("[PRODUCT] [ERROR] multipart parse failed:", err)
		return MultipartProductInput{}, apperr.Validation("invalid multipart form")
	}

	input := MultipartProductInput{}
	p := &input.Product

	// ---- STRING FIELDS ----

	if value, ok := lastPostForm(c, "productName"); ok {
		p.Name = strings.TrimSpace(value)
	}
	if value, ok := lastPostForm(c, "description"); ok {
		p.Description = strings.TrimSpace(value)
	}

	// ---- NUMBER FIELDS ----

	if value, ok := lastPostForm(c, "price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return MultipartProductInput{}, apperr.Validation("price must be a number")
		}
		p.Price = parsed
		input.PriceSet = true
	}
	if value, ok := lastPostForm(c, "salePrice"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return MultipartProductInput{}, apperr.Validation("salePrice must be a number")
		}
		p.SalePrice = parsed
		input.SalePriceSet = true
	}
	if value, ok := lastPostForm(c, "stock_quantity"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return MultipartProductInput{}, apperr.Validation("stock_quantity must be an integer")
		}
		p.StockQuantity = parsed
	}

	// ---- BOOL FIELDS ----

	if value, ok := lastPostForm(c, "saleEnabled"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return MultipartProductInput{}, apperr.Validation("saleEnabled must be a boolean")
		}
		p.SaleEnabled = parsed
		input.SaleEnabledSet = true
	}

	// ---- REFERENCES ----

	var err error
	if value, ok := lastPostForm(c, "brand"); ok {
		if p.BrandID, err = parseOptionalObjectID(value, "brand"); err != nil {
			return MultipartProductInput{}, err
		}
	}
	if value, ok := lastPostForm(c, "color"); ok {
		if p.ColorID, err = parseOptionalObjectID(value, "color"); err != nil {
			return MultipartProductInput{}, err
		}
	}
	if value, ok := lastPostForm(c, "category"); ok {
		if p.CategoryID, err = parseOptionalObjectID(value, "category"); err != nil {
			return MultipartProductInput{}, err
		}
	}

	// ---- IMAGE FILES ----

	if c.Request.MultipartForm != nil {
		input.Images = c.Request.MultipartForm.File[imageField]
	}

	return input, nil
}

func lastPostForm(c *gin.Context, key string) (string, bool) {
	values, ok := c.GetPostFormArray(key)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

/*
=======================
  IMAGE SAVE
=======================
*/

// saveImages stores every uploaded image and removes the ones already saved
// when a later one fails.
func saveImages(ctx context.Context, uploader storage.Uploader, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := uploader.Save(ctx, file)
		if err != nil {
			discardImages(ctx, uploader, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func discardImages(ctx context.Context, uploader storage.Uploader, urls []string) {
	for _, url := range urls {
		if err := uploader.Delete(context.WithoutCancel(ctx), url); err != nil {
			log.Printf("[UPLOAD] failed to remove %s: %v", url, err)
		}
	}
}

/*
=======================
  HELPERS
=======================
*/

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
