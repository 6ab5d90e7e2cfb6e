package models

import (
	"time"
)

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Slug        string `gorm:"uniqueIndex;not null"     json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

type Collection struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Slug        string `gorm:"uniqueIndex;not null"     json:"slug"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type Product struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID     uint           `gorm:"index;not null"           json:"category_id"`
	CollectionID   *uint          `gorm:"index"                    json:"collection_id"`
	Name           string         `gorm:"not null"                 json:"name"`
	Slug           string         `gorm:"uniqueIndex;not null"     json:"slug"`
	SKU            string         `gorm:"index"                    json:"sku"`
	Description    string         `json:"description"`
	Price          float64        `gorm:"not null"                 json:"price"`
	CompareAtPrice *float64       `json:"compare_at_price"`
	Metal          string         `gorm:"index"                    json:"metal"`
	Gemstone       string         `gorm:"index"                    json:"gemstone"`
	Featured       bool           `json:"featured"`
	InStock        bool           `json:"in_stock"`
	IsActive       bool           `json:"-"`
	Category       *Category      `json:"category,omitempty"`
	Collection     *Collection    `json:"collection,omitempty"`
	Images         []ProductImage `json:"images,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	URL       string `gorm:"not null"                 json:"url"`
	AltText   string `json:"alt_text"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}
