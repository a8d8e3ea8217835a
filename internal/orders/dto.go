package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
)

// CreateOrderItemInput is one requested line, in submission order.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// CreateOrderInput captures everything needed to accept an order.
type CreateOrderInput struct {
	CreatedBy  uuid.UUID
	CustomerID uuid.UUID
	Note       *string
	OrderDate  time.Time
	Items      []CreateOrderItemInput
}

// UpdateStatusInput carries the two independent status axes; either may be
// supplied alone.
type UpdateStatusInput struct {
	OrderID           uuid.UUID
	PaymentStatus     *enums.PaymentStatus
	FulfillmentStatus *enums.FulfillmentStatus
	ActorUserID       uuid.UUID
	ActorRole         string
}

// OrderFilters describe the inputs supported by the orders list.
type OrderFilters struct {
	CustomerID        *uuid.UUID
	PaymentStatus     *enums.PaymentStatus
	FulfillmentStatus *enums.FulfillmentStatus
	DateFrom          *time.Time
	DateTo            *time.Time
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderCreatedEvent is the outbox payload for accepted orders.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderCode        string    `json:"order_code"`
	CustomerID       uuid.UUID `json:"customer_id"`
	TotalQuantity    int       `json:"total_quantity"`
	TotalAmountCents int       `json:"total_amount_cents"`
	LineCount        int       `json:"line_count"`
}

// OrderStatusChangedEvent is the outbox payload for status transitions.
type OrderStatusChangedEvent struct {
	OrderID           uuid.UUID               `json:"order_id"`
	OrderCode         string                  `json:"order_code"`
	PaymentStatus     enums.PaymentStatus     `json:"payment_status"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
	Restocked         bool                    `json:"restocked"`
}
