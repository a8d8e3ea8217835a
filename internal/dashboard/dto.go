package dashboard

import (
	"time"

	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
)

// Summary is the headline view of the ledger and order book.
type Summary struct {
	TotalProducts   int64 `json:"total_products"`
	TotalStock      int64 `json:"total_stock"`
	LowStockCount   int64 `json:"low_stock_count"`
	RevenueCents    int64 `json:"revenue_cents"`
	PendingOrders   int64 `json:"pending_orders"`
	CancelledOrders int64 `json:"cancelled_orders"`
}

// MonthlyRevenuePoint is one month of paid revenue.
type MonthlyRevenuePoint struct {
	Month      int   `json:"month"`
	TotalCents int64 `json:"total_cents"`
}

// MonthlyRevenue covers a full calendar year, zero-filled.
type MonthlyRevenue struct {
	Year int                   `json:"year"`
	Data []MonthlyRevenuePoint `json:"data"`
}

// LowStockProduct is the trimmed product view used in the low stock panel.
type LowStockProduct struct {
	Name             string             `json:"name"`
	QuantityOnHand   int                `json:"quantity_on_hand"`
	ReorderThreshold int                `json:"reorder_threshold"`
	Availability     enums.Availability `json:"availability"`
}

// RecentOrder is the trimmed order view used in the recent orders panel.
type RecentOrder struct {
	OrderCode         string                  `json:"order_code"`
	TotalQuantity     int                     `json:"total_quantity"`
	TotalAmountCents  int                     `json:"total_amount_cents"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
	CreatedAt         time.Time               `json:"created_at"`
}
