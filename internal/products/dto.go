package products

import (
	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
)

// CreateProductInput captures a new catalog listing.
type CreateProductInput struct {
	SKU              string   `json:"sku" validate:"required"`
	Name             string   `json:"name" validate:"required"`
	Description      *string  `json:"description,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	UnitPriceCents   int      `json:"unit_price_cents" validate:"gte=0"`
	QuantityOnHand   int      `json:"quantity_on_hand" validate:"gte=0"`
	ReorderThreshold int      `json:"reorder_threshold" validate:"gte=0"`
}

// UpdateProductInput carries partial catalog edits. Nil fields are untouched.
type UpdateProductInput struct {
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	UnitPriceCents   *int     `json:"unit_price_cents,omitempty" validate:"omitempty,gte=0"`
	QuantityOnHand   *int     `json:"quantity_on_hand,omitempty" validate:"omitempty,gte=0"`
	ReorderThreshold *int     `json:"reorder_threshold,omitempty" validate:"omitempty,gte=0"`
	IsActive         *bool    `json:"is_active,omitempty"`
}

// ProductFilters describe the inputs supported by the product list.
type ProductFilters struct {
	Availability *enums.Availability
	ActiveOnly   bool
	Query        string
}

// ProductList wraps the paginated products plus the next page cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
