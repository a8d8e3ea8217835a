package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
)

// Order is the persisted aggregate for an accepted order. Line items are
// embedded snapshots and are never mutated after creation.
type Order struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode         string                  `gorm:"column:order_code;not null;uniqueIndex:idx_orders_order_code"`
	CreatedBy         uuid.UUID               `gorm:"column:created_by;type:uuid;not null"`
	CustomerID        uuid.UUID               `gorm:"column:customer_id;type:uuid;not null"`
	TotalQuantity     int                     `gorm:"column:total_quantity;not null"`
	TotalAmountCents  int                     `gorm:"column:total_amount_cents;not null"`
	PaymentStatus     enums.PaymentStatus     `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:text;not null;default:'placed'"`
	OrderDate         time.Time               `gorm:"column:order_date;not null"`
	Note              *string                 `gorm:"column:note"`
	Items             []OrderLineItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt         gorm.DeletedAt          `gorm:"column:deleted_at;index"`
}
