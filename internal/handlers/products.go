package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/httpx"
	"github.com/mccullochjewellers/storefront/internal/logging"
	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/mykafka"
	"github.com/mccullochjewellers/storefront/internal/service/search"
	"github.com/mccullochjewellers/storefront/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

var productSortColumns = map[string]string{
	"created_at": "products.created_at",
	"price":      "products.price",
	"name":       "products.name",
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *ProductHandler) reindex(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.Index, p); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index error", "error", err, "productID", p.ID)
	}
}

// productFilters applies the query-string filters shared by the catalog
// listing endpoints. Sort column and order come from whitelists; anything
// else falls back to newest-first.
func (h *ProductHandler) productFilters(c echo.Context, q *gorm.DB) *gorm.DB {
	if cat := c.QueryParam("category"); cat != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", cat)
	}
	if col := c.QueryParam("collection"); col != "" {
		q = q.Joins("JOIN collections ON collections.id = products.collection_id").
			Where("collections.slug = ?", col)
	}
	if min := c.QueryParam("price_min"); min != "" {
		if v, err := strconv.ParseFloat(min, 64); err == nil {
			q = q.Where("products.price >= ?", v)
		}
	}
	if max := c.QueryParam("price_max"); max != "" {
		if v, err := strconv.ParseFloat(max, 64); err == nil {
			q = q.Where("products.price <= ?", v)
		}
	}
	if metal := c.QueryParam("metal"); metal != "" {
		q = q.Where("LOWER(products.metal) LIKE LOWER(?)", "%"+metal+"%")
	}
	if gem := c.QueryParam("gemstone"); gem != "" {
		q = q.Where("LOWER(products.gemstone) LIKE LOWER(?)", "%"+gem+"%")
	}
	if featured := c.QueryParam("featured"); featured != "" {
		q = q.Where("products.featured = ?", featured == "true")
	}
	if inStock := c.QueryParam("in_stock"); inStock != "" {
		q = q.Where("products.in_stock = ?", inStock == "true")
	}

	sortCol, ok := productSortColumns[c.QueryParam("sort")]
	if !ok {
		sortCol = "products.created_at"
	}
	dir := "DESC"
	if c.QueryParam("order") == "asc" {
		dir = "ASC"
	}
	return q.Order(sortCol + " " + dir)
}

func (h *ProductHandler) listProducts(c echo.Context, base *gorm.DB) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.productFilters(c, base)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return fmt.Errorf("count products: %w", err)
	}

	var items []models.Product
	if err := q.Preload("Category").Preload("Collection").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    items,
		"meta": map[string]any{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	return h.listProducts(c, h.DB.Model(&models.Product{}).Where("products.is_active = ?", true))
}

func (h *ProductHandler) GetProductsByCategory(c echo.Context) error {
	slug := c.Param("categorySlug")

	var category models.Category
	if err := h.DB.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Category not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	base := h.DB.Model(&models.Product{}).
		Where("products.is_active = ?", true).
		Where("products.category_id = ?", category.ID)
	return h.listProducts(c, base)
}

func (h *ProductHandler) GetProductBySlug(c echo.Context) error {
	slug := c.Param("slug")

	var product models.Product
	err := h.DB.Where("slug = ? AND is_active = ?", slug, true).
		Preload("Category").Preload("Collection").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Product not found")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return httpx.OK(c, http.StatusOK, "", product)
}

func (h *ProductHandler) GetCategories(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	return httpx.OKList(c, categories, len(categories))
}

type productRequest struct {
	CategoryID     uint     `json:"category_id" validate:"required"`
	CollectionID   *uint    `json:"collection_id"`
	Name           string   `json:"name"        validate:"required"`
	Slug           string   `json:"slug"        validate:"required"`
	SKU            string   `json:"sku"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"       validate:"required,gt=0"`
	CompareAtPrice *float64 `json:"compare_at_price"`
	Metal          string   `json:"metal"`
	Gemstone       string   `json:"gemstone"`
	Featured       bool     `json:"featured"`
	InStock        bool     `json:"in_stock"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	product := models.Product{
		CategoryID:     req.CategoryID,
		CollectionID:   req.CollectionID,
		Name:           req.Name,
		Slug:           req.Slug,
		SKU:            req.SKU,
		Description:    req.Description,
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Metal:          req.Metal,
		Gemstone:       req.Gemstone,
		Featured:       req.Featured,
		InStock:        req.InStock,
		IsActive:       true,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	h.reindex(c, &product)
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	return httpx.OK(c, http.StatusCreated, "Product created successfully", product)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid product id")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Product not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	product.CategoryID = req.CategoryID
	product.CollectionID = req.CollectionID
	product.Name = req.Name
	product.Slug = req.Slug
	product.SKU = req.SKU
	product.Description = req.Description
	product.Price = req.Price
	product.CompareAtPrice = req.CompareAtPrice
	product.Metal = req.Metal
	product.Gemstone = req.Gemstone
	product.Featured = req.Featured
	product.InStock = req.InStock

	if err := h.DB.Save(&product).Error; err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	h.reindex(c, &product)
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	return httpx.OK(c, http.StatusOK, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid product id")
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.Index, uint(id)); err != nil {
			logging.FromContext(c.Request().Context()).Error("es delete error", "error", err, "productID", id)
		}
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
