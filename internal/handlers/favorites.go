package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/httpx"
	"github.com/mccullochjewellers/storefront/internal/logging"
	authmw "github.com/mccullochjewellers/storefront/internal/middleware/auth"
	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/mykafka"
)

type FavoriteHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *FavoriteHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "favorite_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *FavoriteHandler) GetFavorites(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var favorites []models.Favorite
	if err := h.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&favorites).Error; err != nil {
		return fmt.Errorf("list favorites: %w", err)
	}

	out := make([]map[string]any, 0, len(favorites))
	for _, fav := range favorites {
		var product models.Product
		if err := h.DB.Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC")
		}).First(&product, fav.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return fmt.Errorf("load product: %w", err)
		}

		var primaryImage any
		if len(product.Images) > 0 {
			primaryImage = product.Images[0].URL
		}
		out = append(out, map[string]any{
			"favoriteId":  fav.ID,
			"notes":       fav.Notes,
			"favoritedAt": fav.CreatedAt,
			"product": map[string]any{
				"id":             product.ID,
				"name":           product.Name,
				"slug":           product.Slug,
				"description":    product.Description,
				"price":          product.Price,
				"compareAtPrice": product.CompareAtPrice,
				"inStock":        product.InStock,
				"sku":            product.SKU,
				"images":         product.Images,
				"image":          primaryImage,
			},
		})
	}

	return httpx.OKList(c, out, len(out))
}

func (h *FavoriteHandler) AddFavorite(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint   `json:"productId" validate:"required"`
		Notes     string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Product ID is required")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "Product not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	var existing models.Favorite
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&existing).Error
	if err == nil {
		return httpx.Fail(http.StatusConflict, "Product is already in your favorites")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db error: %w", err)
	}

	favorite := models.Favorite{
		UserID:    userID,
		ProductID: req.ProductID,
		Notes:     req.Notes,
	}
	if err := h.DB.Create(&favorite).Error; err != nil {
		return fmt.Errorf("create favorite: %w", err)
	}

	h.publish(c, map[string]any{
		"type":      "favorite_added",
		"userID":    userID,
		"productID": req.ProductID,
	})

	return httpx.OK(c, http.StatusCreated, "Product added to favorites", favorite)
}

func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil || productID <= 0 {
		return httpx.Fail(http.StatusBadRequest, "Invalid product id")
	}

	result := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return fmt.Errorf("delete favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return httpx.Fail(http.StatusNotFound, "Favorite not found")
	}

	h.publish(c, map[string]any{
		"type":      "favorite_removed",
		"userID":    userID,
		"productID": productID,
	})

	return httpx.OK(c, http.StatusOK, "Product removed from favorites", nil)
}

// CheckFavorite lets the product page render the heart state without
// fetching the whole list.
func (h *FavoriteHandler) CheckFavorite(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil || productID <= 0 {
		return httpx.Fail(http.StatusBadRequest, "Invalid product id")
	}

	var count int64
	if err := h.DB.Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return httpx.OK(c, http.StatusOK, "", map[string]any{
		"isFavorite": count > 0,
	})
}
