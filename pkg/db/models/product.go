package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
)

// Product represents a catalog listing together with its stock ledger fields.
// QuantityOnHand and Availability are mutated only through the stock package.
type Product struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SKU              string             `gorm:"column:sku;not null;uniqueIndex:idx_products_sku"`
	Name             string             `gorm:"column:name;not null"`
	Description      *string            `gorm:"column:description"`
	Tags             pq.StringArray     `gorm:"column:tags;type:text"`
	UnitPriceCents   int                `gorm:"column:unit_price_cents;not null"`
	QuantityOnHand   int                `gorm:"column:quantity_on_hand;not null;default:0"`
	ReorderThreshold int                `gorm:"column:reorder_threshold;not null;default:0"`
	Availability     enums.Availability `gorm:"column:availability;type:text;not null;default:'out_of_stock'"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	CreatedBy        *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt        gorm.DeletedAt     `gorm:"column:deleted_at;index"`
}
