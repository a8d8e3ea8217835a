package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem captures the catalog snapshot for one line of an order.
type OrderLineItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	NameSnapshot      string    `gorm:"column:name_snapshot;not null"`
	UnitPriceCents    int       `gorm:"column:unit_price_cents;not null"`
	Quantity          int       `gorm:"column:quantity;not null"`
	LineSubtotalCents int       `gorm:"column:line_subtotal_cents;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}
