package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/httpx"
	"github.com/mccullochjewellers/storefront/internal/logging"
	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/mykafka"
	"github.com/mccullochjewellers/storefront/internal/util"
)

type WatchHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *WatchHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *WatchHandler) GetBrands(c echo.Context) error {
	var brands []models.WatchBrand
	if err := h.DB.Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").Find(&brands).Error; err != nil {
		return fmt.Errorf("list brands: %w", err)
	}
	return httpx.OKList(c, brands, len(brands))
}

type brandRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"required"`
	Description string `json:"description"`
	Country     string `json:"country"`
	FoundedYear int    `json:"founded_year"`
	LogoURL     string `json:"logo_url"`
	SortOrder   int    `json:"sort_order"`
}

func (h *WatchHandler) CreateBrand(c echo.Context) error {
	var req brandRequest
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var existing models.WatchBrand
	if err := h.DB.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		return httpx.Fail(http.StatusConflict, "A brand with this slug already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db error: %w", err)
	}

	brand := models.WatchBrand{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Country:     req.Country,
		FoundedYear: req.FoundedYear,
		LogoURL:     req.LogoURL,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := h.DB.Create(&brand).Error; err != nil {
		return fmt.Errorf("create brand: %w", err)
	}
	return httpx.OK(c, http.StatusCreated, "Brand created successfully", brand)
}

func (h *WatchHandler) UpdateBrand(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid brand id")
	}

	var req brandRequest
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var brand models.WatchBrand
	if err := h.DB.First(&brand, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Brand not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	brand.Name = req.Name
	brand.Slug = req.Slug
	brand.Description = req.Description
	brand.Country = req.Country
	brand.FoundedYear = req.FoundedYear
	brand.LogoURL = req.LogoURL
	brand.SortOrder = req.SortOrder

	if err := h.DB.Save(&brand).Error; err != nil {
		return fmt.Errorf("update brand: %w", err)
	}
	return httpx.OK(c, http.StatusOK, "Brand updated successfully", brand)
}

func (h *WatchHandler) DeleteBrand(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid brand id")
	}
	if err := h.DB.Delete(&models.WatchBrand{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WatchHandler) GetCollectionsByBrand(c echo.Context) error {
	brandID, err := uuid.Parse(c.Param("brandID"))
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid brand id")
	}

	var collections []models.WatchCollection
	if err := h.DB.Where("brand_id = ? AND is_active = ?", brandID, true).
		Order("sort_order ASC, name ASC").Find(&collections).Error; err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	return httpx.OKList(c, collections, len(collections))
}

func (h *WatchHandler) GetFeaturedCollections(c echo.Context) error {
	var collections []models.WatchCollection
	if err := h.DB.Where("is_featured = ? AND is_active = ?", true, true).
		Order("sort_order ASC").Find(&collections).Error; err != nil {
		return fmt.Errorf("list featured collections: %w", err)
	}
	return httpx.OKList(c, collections, len(collections))
}

func (h *WatchHandler) CreateCollection(c echo.Context) error {
	var req struct {
		BrandID     uuid.UUID `json:"brand_id" validate:"required"`
		Name        string    `json:"name"     validate:"required"`
		Slug        string    `json:"slug"     validate:"required"`
		Description string    `json:"description"`
		Gender      string    `json:"gender"`
		IsFeatured  bool      `json:"is_featured"`
		SortOrder   int       `json:"sort_order"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var brand models.WatchBrand
	if err := h.DB.First(&brand, "id = ?", req.BrandID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Brand not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	collection := models.WatchCollection{
		BrandID:     req.BrandID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Gender:      req.Gender,
		IsFeatured:  req.IsFeatured,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := h.DB.Create(&collection).Error; err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return httpx.OK(c, http.StatusCreated, "Collection created successfully", collection)
}

func (h *WatchHandler) GetWatches(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Watch{}).Where("watches.is_active = ?", true)

	if brand := c.QueryParam("brand"); brand != "" {
		q = q.Joins("JOIN watch_brands ON watch_brands.id = watches.brand_id").
			Where("watch_brands.slug = ?", brand)
	}
	if gender := c.QueryParam("gender"); gender != "" {
		q = q.Where("watches.gender = ?", gender)
	}
	if style := c.QueryParam("style"); style != "" {
		q = q.Where("watches.style = ?", style)
	}
	if min := c.QueryParam("price_min"); min != "" {
		if v, err := strconv.ParseFloat(min, 64); err == nil {
			q = q.Where("watches.price >= ?", v)
		}
	}
	if max := c.QueryParam("price_max"); max != "" {
		if v, err := strconv.ParseFloat(max, 64); err == nil {
			q = q.Where("watches.price <= ?", v)
		}
	}
	if featured := c.QueryParam("featured"); featured != "" {
		q = q.Where("watches.is_featured = ?", featured == "true")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return fmt.Errorf("count watches: %w", err)
	}

	var items []models.Watch
	if err := q.Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("watches.created_at DESC").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return fmt.Errorf("list watches: %w", err)
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

func (h *WatchHandler) GetWatchBySlug(c echo.Context) error {
	slug := c.Param("slug")

	var watch models.Watch
	err := h.DB.Where("slug = ? AND is_active = ?", slug, true).
		Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&watch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Watch not found")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return httpx.OK(c, http.StatusOK, "", watch)
}

type watchRequest struct {
	BrandID         uuid.UUID  `json:"brand_id" validate:"required"`
	CollectionID    *uuid.UUID `json:"collection_id"`
	Name            string     `json:"name"     validate:"required"`
	Slug            string     `json:"slug"     validate:"required"`
	ReferenceNumber string     `json:"reference_number"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"    validate:"required,gt=0"`
	Currency        string     `json:"currency"`
	Gender          string     `json:"gender"`
	WatchType       string     `json:"watch_type"`
	Style           string     `json:"style"`
	StockStatus     string     `json:"stock_status"`
	IsFeatured      bool       `json:"is_featured"`
}

func (h *WatchHandler) CreateWatch(c echo.Context) error {
	var req watchRequest
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var brand models.WatchBrand
	if err := h.DB.First(&brand, "id = ?", req.BrandID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Brand not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	watch := models.Watch{
		BrandID:         req.BrandID,
		CollectionID:    req.CollectionID,
		Name:            req.Name,
		Slug:            req.Slug,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		Price:           req.Price,
		Currency:        req.Currency,
		Gender:          req.Gender,
		WatchType:       req.WatchType,
		Style:           req.Style,
		StockStatus:     req.StockStatus,
		IsFeatured:      req.IsFeatured,
		IsActive:        true,
	}
	if watch.Currency == "" {
		watch.Currency = "AUD"
	}
	if watch.StockStatus == "" {
		watch.StockStatus = "in_stock"
	}
	if err := h.DB.Create(&watch).Error; err != nil {
		return fmt.Errorf("create watch: %w", err)
	}

	h.publish(c, map[string]any{
		"type": "watch_created",
		"id":   watch.ID.String(),
		"name": watch.Name,
	})

	return httpx.OK(c, http.StatusCreated, "Watch created successfully", watch)
}

func (h *WatchHandler) UpdateWatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid watch id")
	}

	var req watchRequest
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var watch models.Watch
	if err := h.DB.First(&watch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Watch not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	watch.BrandID = req.BrandID
	watch.CollectionID = req.CollectionID
	watch.Name = req.Name
	watch.Slug = req.Slug
	watch.ReferenceNumber = req.ReferenceNumber
	watch.Description = req.Description
	watch.Price = req.Price
	if req.Currency != "" {
		watch.Currency = req.Currency
	}
	watch.Gender = req.Gender
	watch.WatchType = req.WatchType
	watch.Style = req.Style
	if req.StockStatus != "" {
		watch.StockStatus = req.StockStatus
	}
	watch.IsFeatured = req.IsFeatured

	if err := h.DB.Save(&watch).Error; err != nil {
		return fmt.Errorf("update watch: %w", err)
	}

	h.publish(c, map[string]any{
		"type": "watch_updated",
		"id":   watch.ID.String(),
		"name": watch.Name,
	})

	return httpx.OK(c, http.StatusOK, "Watch updated successfully", watch)
}

func (h *WatchHandler) DeleteWatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid watch id")
	}
	if err := h.DB.Delete(&models.Watch{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete watch: %w", err)
	}

	h.publish(c, map[string]any{
		"type": "watch_deleted",
		"id":   id.String(),
	})
	return c.NoContent(http.StatusNoContent)
}
