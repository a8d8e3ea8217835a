package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
)

func TestSummaryAggregates(t *testing.T) {
	t.Parallel()

	db := newDashboardTestDB(t)
	seedProduct(t, db, "widget", 10, 2)
	seedProduct(t, db, "gadget", 1, 3)
	seedProduct(t, db, "gizmo", 0, 2)

	seedOrderRow(t, db, 2500, enums.PaymentStatusPaid, enums.FulfillmentStatusCompleted, time.Now())
	seedOrderRow(t, db, 1500, enums.PaymentStatusPaid, enums.FulfillmentStatusShipping, time.Now())
	seedOrderRow(t, db, 900, enums.PaymentStatusUnpaid, enums.FulfillmentStatusPlaced, time.Now())
	seedOrderRow(t, db, 400, enums.PaymentStatusUnpaid, enums.FulfillmentStatusCancelled, time.Now())

	svc := newDashboardService(t, db, nil)

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalProducts != 3 {
		t.Fatalf("expected 3 products, got %d", summary.TotalProducts)
	}
	if summary.TotalStock != 11 {
		t.Fatalf("expected total stock 11, got %d", summary.TotalStock)
	}
	if summary.LowStockCount != 2 {
		t.Fatalf("expected 2 low stock products, got %d", summary.LowStockCount)
	}
	if summary.RevenueCents != 4000 {
		t.Fatalf("expected revenue 4000, got %d", summary.RevenueCents)
	}
	if summary.PendingOrders != 2 {
		t.Fatalf("expected 2 pending orders, got %d", summary.PendingOrders)
	}
	if summary.CancelledOrders != 1 {
		t.Fatalf("expected 1 cancelled order, got %d", summary.CancelledOrders)
	}
}

func TestSummaryEmptyDatabase(t *testing.T) {
	t.Parallel()

	svc := newDashboardService(t, newDashboardTestDB(t), nil)

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalStock != 0 || summary.RevenueCents != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
}

func TestSummaryReadThroughCache(t *testing.T) {
	t.Parallel()

	db := newDashboardTestDB(t)
	seedProduct(t, db, "widget", 5, 2)

	cache := newStubCache()
	svc := newDashboardService(t, db, cache)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if first.TotalProducts != 1 {
		t.Fatalf("expected 1 product, got %d", first.TotalProducts)
	}
	if len(cache.values) != 1 {
		t.Fatalf("expected summary cached, got %d entries", len(cache.values))
	}

	// The cached value must be served even after the underlying data moves.
	seedProduct(t, db, "gadget", 5, 2)
	second, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if second.TotalProducts != 1 {
		t.Fatalf("expected cached summary, got %d products", second.TotalProducts)
	}

	cache.flush()
	third, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if third.TotalProducts != 2 {
		t.Fatalf("expected recomputed summary, got %d products", third.TotalProducts)
	}
}

func TestMonthlyRevenueZeroFills(t *testing.T) {
	t.Parallel()

	db := newDashboardTestDB(t)
	seedOrderRow(t, db, 1000, enums.PaymentStatusPaid, enums.FulfillmentStatusCompleted,
		time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC))
	seedOrderRow(t, db, 500, enums.PaymentStatusPaid, enums.FulfillmentStatusCompleted,
		time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC))
	seedOrderRow(t, db, 800, enums.PaymentStatusPaid, enums.FulfillmentStatusCompleted,
		time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC))
	// Unpaid and out-of-year orders must not count.
	seedOrderRow(t, db, 999, enums.PaymentStatusUnpaid, enums.FulfillmentStatusPlaced,
		time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC))
	seedOrderRow(t, db, 999, enums.PaymentStatusPaid, enums.FulfillmentStatusCompleted,
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))

	svc := newDashboardService(t, db, nil)

	revenue, err := svc.MonthlyRevenue(context.Background(), 2026)
	if err != nil {
		t.Fatalf("monthly revenue: %v", err)
	}
	if len(revenue.Data) != 12 {
		t.Fatalf("expected 12 months, got %d", len(revenue.Data))
	}
	if revenue.Data[2].TotalCents != 1500 {
		t.Fatalf("expected 1500 for march, got %d", revenue.Data[2].TotalCents)
	}
	if revenue.Data[10].TotalCents != 800 {
		t.Fatalf("expected 800 for november, got %d", revenue.Data[10].TotalCents)
	}
	if revenue.Data[0].TotalCents != 0 {
		t.Fatalf("expected zero-filled january, got %d", revenue.Data[0].TotalCents)
	}
}

func TestMonthlyRevenueRejectsBadYear(t *testing.T) {
	t.Parallel()

	svc := newDashboardService(t, newDashboardTestDB(t), nil)

	_, err := svc.MonthlyRevenue(context.Background(), 123)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLowStockOrderedByQuantity(t *testing.T) {
	t.Parallel()

	db := newDashboardTestDB(t)
	seedProduct(t, db, "plenty", 50, 2)
	seedProduct(t, db, "scarce", 1, 3)
	seedProduct(t, db, "empty", 0, 3)

	svc := newDashboardService(t, db, nil)

	rows, err := svc.LowStock(context.Background(), 0)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 low stock rows, got %d", len(rows))
	}
	if rows[0].Name != "empty" || rows[1].Name != "scarce" {
		t.Fatalf("expected ascending quantity order, got %+v", rows)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	db := newDashboardTestDB(t)
	older := seedOrderRow(t, db, 100, enums.PaymentStatusUnpaid, enums.FulfillmentStatusPlaced, time.Now())
	older.CreatedAt = time.Now().Add(-time.Hour)
	if err := db.Model(&models.Order{}).Where("id = ?", older.ID).
		Update("created_at", older.CreatedAt).Error; err != nil {
		t.Fatalf("backdate order: %v", err)
	}
	newest := seedOrderRow(t, db, 200, enums.PaymentStatusUnpaid, enums.FulfillmentStatusPlaced, time.Now())

	svc := newDashboardService(t, db, nil)

	rows, err := svc.RecentOrders(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent orders: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(rows))
	}
	if rows[0].OrderCode != newest.OrderCode {
		t.Fatalf("expected newest order first, got %s", rows[0].OrderCode)
	}
}

type stubCache struct {
	values map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string]string{}}
}

func (c *stubCache) Get(_ context.Context, key string) (string, error) {
	value, ok := c.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (c *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case string:
		c.values[key] = v
	case []byte:
		c.values[key] = string(v)
	}
	return nil
}

func (c *stubCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *stubCache) CacheKey(parts ...string) string {
	key := "test:cache"
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

func (c *stubCache) flush() {
	c.values = map[string]string{}
}

func newDashboardService(t *testing.T, db *gorm.DB, cache *stubCache) *Service {
	t.Helper()
	var svc *Service
	var err error
	if cache != nil {
		svc, err = NewService(NewRepository(db), cache, time.Minute, nil)
	} else {
		svc, err = NewService(NewRepository(db), nil, time.Minute, nil)
	}
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func newDashboardTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:dashboard_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderLineItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, qty, threshold int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:               uuid.New(),
		SKU:              "SKU-" + uuid.NewString()[:8],
		Name:             name,
		UnitPriceCents:   100,
		QuantityOnHand:   qty,
		ReorderThreshold: threshold,
		Availability:     enums.DeriveAvailability(qty, threshold),
		IsActive:         true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedOrderRow(t *testing.T, db *gorm.DB, amountCents int, payment enums.PaymentStatus, fulfillment enums.FulfillmentStatus, orderDate time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                uuid.New(),
		OrderCode:         "ORD-" + uuid.NewString()[:12],
		CreatedBy:         uuid.New(),
		CustomerID:        uuid.New(),
		TotalQuantity:     1,
		TotalAmountCents:  amountCents,
		PaymentStatus:     payment,
		FulfillmentStatus: fulfillment,
		OrderDate:         orderDate,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}
