package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
)

// Repository is the single mutation path for quantity_on_hand. Both operations
// recompute availability inside the same statement so the derived column can
// never drift from the quantity it is computed from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	TryReserve(ctx context.Context, productID uuid.UUID, qty int) (*models.Product, error)
	Release(ctx context.Context, productID uuid.UUID, qty int) (*models.Product, error)
	FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// TryReserve decrements quantity_on_hand by qty only when the live row still
// holds at least qty units. The guard lives in the WHERE clause, so two
// concurrent callers can never both win the same stock.
func (r *repository) TryReserve(ctx context.Context, productID uuid.UUID, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET quantity_on_hand = quantity_on_hand - ?,
			availability = CASE
				WHEN quantity_on_hand - ? <= 0 THEN ?
				WHEN quantity_on_hand - ? <= reorder_threshold THEN ?
				ELSE ?
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL AND quantity_on_hand >= ?
	`, qty, qty, string(enums.AvailabilityOutOfStock), qty, string(enums.AvailabilityLowStock), string(enums.AvailabilityInStock), productID, qty)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		// Zero rows covers both a missing product and a lost race; a
		// follow-up read tells the two apart.
		if _, err := r.FindByID(ctx, productID); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID.String(), "requested_qty": qty})
	}

	return r.FindByID(ctx, productID)
}

// Release unconditionally returns qty units to the pool. Callers own
// idempotency: one release per reservation it reverses.
func (r *repository) Release(ctx context.Context, productID uuid.UUID, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET quantity_on_hand = quantity_on_hand + ?,
			availability = CASE
				WHEN quantity_on_hand + ? <= 0 THEN ?
				WHEN quantity_on_hand + ? <= reorder_threshold THEN ?
				ELSE ?
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
	`, qty, qty, string(enums.AvailabilityOutOfStock), qty, string(enums.AvailabilityLowStock), string(enums.AvailabilityInStock), productID)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID.String()})
	}

	return r.FindByID(ctx, productID)
}

func (r *repository) FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}
