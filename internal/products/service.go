package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	pkgdb "github.com/stockdeskhq/stockdesk-backend/pkg/db"
	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
	"github.com/stockdeskhq/stockdesk-backend/pkg/pagination"
)

// Service exposes catalog management. Order-time stock mutation lives in the
// stock package; this service only covers operator edits, which recompute
// availability from the edited quantities.
type Service interface {
	Create(ctx context.Context, createdBy uuid.UUID, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error)
	Delete(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, createdBy uuid.UUID, input CreateProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.UnitPriceCents < 0 || input.QuantityOnHand < 0 || input.ReorderThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price, quantity and threshold must be non-negative")
	}

	product := &models.Product{
		ID:               uuid.New(),
		SKU:              sku,
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		Tags:             pq.StringArray(input.Tags),
		UnitPriceCents:   input.UnitPriceCents,
		QuantityOnHand:   input.QuantityOnHand,
		ReorderThreshold: input.ReorderThreshold,
		Availability:     enums.DeriveAvailability(input.QuantityOnHand, input.ReorderThreshold),
		IsActive:         true,
	}
	if createdBy != uuid.Nil {
		product.CreatedBy = &createdBy
	}

	if _, err := s.repo.Create(ctx, product); err != nil {
		if pkgdb.IsUniqueViolation(err, "idx_products_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("sku %q already exists", sku))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if input.UnitPriceCents != nil {
		if *input.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		updates["unit_price_cents"] = *input.UnitPriceCents
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	// Quantity or threshold edits re-derive availability in the same write.
	quantity := product.QuantityOnHand
	threshold := product.ReorderThreshold
	stockTouched := false
	if input.QuantityOnHand != nil {
		if *input.QuantityOnHand < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
		}
		quantity = *input.QuantityOnHand
		updates["quantity_on_hand"] = quantity
		stockTouched = true
	}
	if input.ReorderThreshold != nil {
		if *input.ReorderThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be non-negative")
		}
		threshold = *input.ReorderThreshold
		updates["reorder_threshold"] = threshold
		stockTouched = true
	}
	if stockTouched {
		updates["availability"] = enums.DeriveAvailability(quantity, threshold)
	}

	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.Update(ctx, productID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.Get(ctx, productID)
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.Get(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}
