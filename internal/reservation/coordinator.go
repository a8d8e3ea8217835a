// Package reservation turns a list of per-product demands into an
// all-or-nothing stock commitment. There is no cross-row transaction holding
// the reservations together; atomicity comes from pairing every applied
// decrement with a compensating release when a later step fails.
package reservation

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/stockdeskhq/stockdesk-backend/internal/stock"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
	"github.com/stockdeskhq/stockdesk-backend/pkg/logger"
	"github.com/stockdeskhq/stockdesk-backend/pkg/metrics"
)

// Demand is one requested (product, quantity) pair, in submission order.
type Demand struct {
	ProductID uuid.UUID
	Qty       int
}

// ReservedLine carries the catalog snapshot captured during pre-validation
// together with the reserved quantity. Orders persist these verbatim so later
// catalog edits never rewrite history.
type ReservedLine struct {
	ProductID         uuid.UUID
	NameSnapshot      string
	UnitPriceCents    int
	Qty               int
	LineSubtotalCents int
}

// Result is the outcome of a fully applied reservation pass.
type Result struct {
	Lines            []ReservedLine
	TotalQuantity    int
	TotalAmountCents int
}

// Coordinator sequences ledger decrements and their compensations.
type Coordinator struct {
	ledger  stock.Repository
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewCoordinator wires a coordinator over the stock ledger.
func NewCoordinator(ledger stock.Repository, logg *logger.Logger, m *metrics.OrderMetrics) (*Coordinator, error) {
	if ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock repository required")
	}
	return &Coordinator{ledger: ledger, logg: logg, metrics: m}, nil
}

// Reserve validates every demand, captures catalog snapshots, then applies
// ledger decrements one at a time in submission order. On the first failure it
// releases everything already applied, in the order it was applied, and
// returns the failure that triggered the rollback. On return the ledger's net
// state is either fully reserved or untouched.
func (c *Coordinator) Reserve(ctx context.Context, demands []Demand) (*Result, error) {
	if len(demands) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one line item")
	}
	for _, demand := range demands {
		if demand.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item product id is required")
		}
		if demand.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be at least 1").
				WithDetails(map[string]any{"product_id": demand.ProductID.String()})
		}
	}

	// Pure reads before any mutation: every product must exist, and the
	// snapshot is taken from the live catalog row.
	result := &Result{Lines: make([]ReservedLine, 0, len(demands))}
	for _, demand := range demands {
		product, err := c.ledger.FindByID(ctx, demand.ProductID)
		if err != nil {
			return nil, err
		}
		line := ReservedLine{
			ProductID:         product.ID,
			NameSnapshot:      product.Name,
			UnitPriceCents:    product.UnitPriceCents,
			Qty:               demand.Qty,
			LineSubtotalCents: product.UnitPriceCents * demand.Qty,
		}
		result.Lines = append(result.Lines, line)
		result.TotalQuantity += line.Qty
		result.TotalAmountCents += line.LineSubtotalCents
	}

	applied := make([]Demand, 0, len(demands))
	for _, demand := range demands {
		if _, err := c.ledger.TryReserve(ctx, demand.ProductID, demand.Qty); err != nil {
			if c.metrics != nil {
				c.metrics.IncReserveFailure(string(failureReason(err)))
			}
			c.compensate(ctx, applied)
			return nil, err
		}
		applied = append(applied, demand)
	}

	return result, nil
}

// ReleaseAll walks the given lines in order and returns their quantities to
// the ledger. Used by cancellation restock; callers guarantee each line is
// released at most once. A product that no longer exists is skipped: its
// stock pool is gone, so there is nothing left to return the units to.
func (c *Coordinator) ReleaseAll(ctx context.Context, demands []Demand) error {
	var errs error
	for _, demand := range demands {
		if _, err := c.ledger.Release(ctx, demand.ProductID, demand.Qty); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				if c.logg != nil {
					logCtx := c.logg.WithProductID(ctx, demand.ProductID.String())
					c.logg.Warn(logCtx, "release skipped, product no longer exists")
				}
				continue
			}
			errs = multierr.Append(errs, err)
			continue
		}
		if c.metrics != nil {
			c.metrics.IncCompensation()
		}
	}
	return errs
}

// compensate undoes already-applied reservations in application order. A
// failed release is unrecoverable for this request: it is logged with the
// outstanding reservations for manual reconciliation and deliberately not
// retried.
func (c *Coordinator) compensate(ctx context.Context, applied []Demand) {
	var errs error
	outstanding := make([]map[string]any, 0)
	for _, demand := range applied {
		if _, err := c.ledger.Release(ctx, demand.ProductID, demand.Qty); err != nil {
			errs = multierr.Append(errs, err)
			outstanding = append(outstanding, map[string]any{
				"product_id": demand.ProductID.String(),
				"qty":        demand.Qty,
			})
			if c.metrics != nil {
				c.metrics.IncCompensationFailure()
			}
			continue
		}
		if c.metrics != nil {
			c.metrics.IncCompensation()
		}
	}
	if errs != nil && c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"outstanding_reservations": outstanding,
		})
		c.logg.Error(logCtx, "stock compensation failed, manual reconciliation required",
			pkgerrors.Wrap(pkgerrors.CodeCompensation, errs, "release reserved stock"))
	}
}

func failureReason(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
