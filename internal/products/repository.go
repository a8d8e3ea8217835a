package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	"github.com/stockdeskhq/stockdesk-backend/pkg/pagination"
)

// Repository handles catalog persistence. Quantity mutations during order
// processing go through the stock package, not here; catalog writes only set
// quantities directly when an operator edits the product.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, updates map[string]any) error
	SoftDelete(ctx context.Context, productID uuid.UUID) error
	List(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error)
	ListLowStock(ctx context.Context, limit int) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Update(ctx context.Context, productID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates).Error
}

func (r *repository) SoftDelete(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", productID).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filters.Availability != nil {
		query = query.Where("availability = ?", *filters.Availability)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", pattern, pattern)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Product
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &ProductList{Products: rows}
	if len(rows) > limit {
		list.Products = rows[:limit]
		last := list.Products[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) ListLowStock(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("availability IN ?", []enums.Availability{enums.AvailabilityLowStock, enums.AvailabilityOutOfStock}).
		Order("quantity_on_hand ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
