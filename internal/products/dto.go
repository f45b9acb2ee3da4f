package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
)

// CreateProductInput captures the fields an admin supplies for a new listing.
type CreateProductInput struct {
	Name        string
	Description string
	Category    enums.ProductCategory
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
}

// UpdateFieldInput carries one closed-set field change.
type UpdateFieldInput struct {
	ProductID uuid.UUID
	Field     enums.ProductField
	Value     any
}

// ImageView is the API shape of one stored product image.
type ImageView struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
}

// ProductView is the API shape of one product.
type ProductView struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Category    enums.ProductCategory `json:"category"`
	Price       decimal.Decimal       `json:"price"`
	Stock       int                   `json:"stock"`
	IsActive    bool                  `json:"is_active"`
	Images      []ImageView           `json:"images"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ProductList is a cursor page of products.
type ProductList struct {
	Items      []ProductView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func toProductView(p models.Product) ProductView {
	images := make([]ImageView, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageView{
			ID:          img.ID,
			URL:         "/uploads/" + img.FileName,
			ContentType: img.ContentType,
		})
	}
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
