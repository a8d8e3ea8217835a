package dashboard

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
)

// Repository aggregates read-only rollups over products and orders.
type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
	MonthlyRevenue(ctx context.Context, year int) (*MonthlyRevenue, error)
	LowStock(ctx context.Context, limit int) ([]LowStockProduct, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dashboard repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

var pendingStatuses = []enums.FulfillmentStatus{
	enums.FulfillmentStatusPlaced,
	enums.FulfillmentStatusConfirmed,
	enums.FulfillmentStatusShipping,
}

func (r *repository) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Count(&summary.TotalProducts).Error; err != nil {
		return nil, err
	}

	var totalStock *int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("SUM(quantity_on_hand)").
		Scan(&totalStock).Error; err != nil {
		return nil, err
	}
	if totalStock != nil {
		summary.TotalStock = *totalStock
	}

	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("quantity_on_hand <= reorder_threshold").
		Count(&summary.LowStockCount).Error; err != nil {
		return nil, err
	}

	var revenue *int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total_amount_cents)").
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		summary.RevenueCents = *revenue
	}

	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("fulfillment_status IN ?", pendingStatuses).
		Count(&summary.PendingOrders).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("fulfillment_status = ?", enums.FulfillmentStatusCancelled).
		Count(&summary.CancelledOrders).Error; err != nil {
		return nil, err
	}

	return summary, nil
}

func (r *repository) MonthlyRevenue(ctx context.Context, year int) (*MonthlyRevenue, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var orders []models.Order
	err := r.db.WithContext(ctx).
		Select("order_date", "total_amount_cents").
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Where("order_date >= ? AND order_date < ?", start, end).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	result := &MonthlyRevenue{Year: year, Data: make([]MonthlyRevenuePoint, 12)}
	for i := range result.Data {
		result.Data[i].Month = i + 1
	}
	for _, order := range orders {
		month := int(order.OrderDate.UTC().Month())
		result.Data[month-1].TotalCents += int64(order.TotalAmountCents)
	}
	return result, nil
}

func (r *repository) LowStock(ctx context.Context, limit int) ([]LowStockProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("quantity_on_hand <= reorder_threshold").
		Order("quantity_on_hand ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	rows := make([]LowStockProduct, 0, len(products))
	for _, product := range products {
		rows = append(rows, LowStockProduct{
			Name:             product.Name,
			QuantityOnHand:   product.QuantityOnHand,
			ReorderThreshold: product.ReorderThreshold,
			Availability:     product.Availability,
		})
	}
	return rows, nil
}

func (r *repository) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	if limit <= 0 {
		limit = 10
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	rows := make([]RecentOrder, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, RecentOrder{
			OrderCode:         order.OrderCode,
			TotalQuantity:     order.TotalQuantity,
			TotalAmountCents:  order.TotalAmountCents,
			FulfillmentStatus: order.FulfillmentStatus,
			CreatedAt:         order.CreatedAt,
		})
	}
	return rows, nil
}
