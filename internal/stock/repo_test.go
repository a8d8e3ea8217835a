package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
)

func TestTryReserveDepletesStockAndDerivesAvailability(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 5, 2)

	updated, err := repo.TryReserve(ctx, product.ID, 5)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if updated.QuantityOnHand != 0 {
		t.Fatalf("expected quantity 0, got %d", updated.QuantityOnHand)
	}
	if updated.Availability != enums.AvailabilityOutOfStock {
		t.Fatalf("expected out_of_stock, got %s", updated.Availability)
	}
}

func TestTryReserveFailsWhenStockInsufficient(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 0, 2)

	_, err := repo.TryReserve(ctx, product.ID, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	reloaded, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.QuantityOnHand != 0 {
		t.Fatalf("failed reserve must not mutate stock, got %d", reloaded.QuantityOnHand)
	}
}

func TestTryReserveDerivesLowStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 5, 3)

	updated, err := repo.TryReserve(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if updated.QuantityOnHand != 2 || updated.Availability != enums.AvailabilityLowStock {
		t.Fatalf("expected low_stock at qty 2, got qty=%d availability=%s", updated.QuantityOnHand, updated.Availability)
	}
}

func TestTryReserveMissingProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.TryReserve(context.Background(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTryReserveSoftDeletedProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 10, 2)
	if err := db.Delete(&models.Product{}, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	_, err := repo.TryReserve(ctx, product.ID, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for soft-deleted product, got %v", err)
	}
}

func TestTryReserveRejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.TryReserve(context.Background(), uuid.New(), 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReleaseRestoresStockAndAvailability(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 5, 2)

	if _, err := repo.TryReserve(ctx, product.ID, 5); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	updated, err := repo.Release(ctx, product.ID, 5)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if updated.QuantityOnHand != 5 {
		t.Fatalf("expected quantity restored to 5, got %d", updated.QuantityOnHand)
	}
	if updated.Availability != enums.AvailabilityInStock {
		t.Fatalf("expected in_stock after release, got %s", updated.Availability)
	}
}

func TestReleaseMissingProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Release(context.Background(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func seedProduct(t *testing.T, db *gorm.DB, qty, threshold int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:               uuid.New(),
		SKU:              "SKU-" + uuid.NewString()[:8],
		Name:             "widget",
		UnitPriceCents:   1500,
		QuantityOnHand:   qty,
		ReorderThreshold: threshold,
		Availability:     enums.DeriveAvailability(qty, threshold),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}
