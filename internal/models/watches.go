package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The watch domain uses UUID primary keys, unlike the jewellery catalog.

type WatchBrand struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null"             json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	Country     string    `json:"country"`
	FoundedYear int       `json:"founded_year"`
	LogoURL     string    `json:"logo_url"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

func (b *WatchBrand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type WatchCollection struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BrandID     uuid.UUID `gorm:"type:uuid;index;not null" json:"brand_id"`
	Name        string    `gorm:"not null"             json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	Gender      string    `json:"gender"`
	IsFeatured  bool      `json:"is_featured"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *WatchCollection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Watch struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey"     json:"id"`
	BrandID         uuid.UUID    `gorm:"type:uuid;index;not null" json:"brand_id"`
	CollectionID    *uuid.UUID   `gorm:"type:uuid;index"          json:"collection_id"`
	Name            string       `gorm:"not null"                 json:"name"`
	Slug            string       `gorm:"uniqueIndex;not null"     json:"slug"`
	ReferenceNumber string       `gorm:"index"                    json:"reference_number"`
	Description     string       `json:"description"`
	Price           float64      `gorm:"not null"                 json:"price"`
	Currency        string       `gorm:"size:3"                   json:"currency"`
	Gender          string       `json:"gender"`
	WatchType       string       `json:"watch_type"`
	Style           string       `json:"style"`
	StockStatus     string       `json:"stock_status"`
	IsFeatured      bool         `json:"is_featured"`
	IsActive        bool         `json:"-"`
	Brand           *WatchBrand  `json:"brand,omitempty"`
	Images          []WatchImage `json:"images,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (w *Watch) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

type WatchImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	WatchID   uuid.UUID `gorm:"type:uuid;index;not null" json:"watch_id"`
	URL       string    `gorm:"not null"                 json:"url"`
	AltText   string    `json:"alt_text"`
	IsPrimary bool      `json:"is_primary"`
	SortOrder int       `json:"sort_order"`
}

func (i *WatchImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
