package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/internal/stock"
	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
)

type stubLedger struct {
	products   map[uuid.UUID]*models.Product
	reserveErr map[uuid.UUID]error
	releaseErr map[uuid.UUID]error
	reserved   []Demand
	released   []Demand
}

func (s *stubLedger) WithTx(tx *gorm.DB) stock.Repository {
	return s
}

func (s *stubLedger) TryReserve(ctx context.Context, productID uuid.UUID, qty int) (*models.Product, error) {
	if err, ok := s.reserveErr[productID]; ok {
		return nil, err
	}
	s.reserved = append(s.reserved, Demand{ProductID: productID, Qty: qty})
	product, ok := s.products[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *stubLedger) Release(ctx context.Context, productID uuid.UUID, qty int) (*models.Product, error) {
	if err, ok := s.releaseErr[productID]; ok {
		return nil, err
	}
	s.released = append(s.released, Demand{ProductID: productID, Qty: qty})
	return s.products[productID], nil
}

func (s *stubLedger) FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func newStubLedger(products ...*models.Product) *stubLedger {
	ledger := &stubLedger{
		products:   make(map[uuid.UUID]*models.Product),
		reserveErr: make(map[uuid.UUID]error),
		releaseErr: make(map[uuid.UUID]error),
	}
	for _, product := range products {
		ledger.products[product.ID] = product
	}
	return ledger
}

func newProduct(name string, priceCents int) *models.Product {
	return &models.Product{
		ID:             uuid.New(),
		Name:           name,
		UnitPriceCents: priceCents,
		Availability:   enums.AvailabilityInStock,
	}
}

func TestReserveComputesSnapshotsAndTotals(t *testing.T) {
	p1 := newProduct("widget", 1500)
	p2 := newProduct("gadget", 700)
	ledger := newStubLedger(p1, p2)
	coordinator, err := NewCoordinator(ledger, nil, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	result, err := coordinator.Reserve(context.Background(), []Demand{
		{ProductID: p1.ID, Qty: 2},
		{ProductID: p2.ID, Qty: 3},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(result.Lines))
	}
	if result.Lines[0].NameSnapshot != "widget" || result.Lines[0].LineSubtotalCents != 3000 {
		t.Fatalf("unexpected first line: %+v", result.Lines[0])
	}
	if result.TotalQuantity != 5 {
		t.Fatalf("expected total quantity 5, got %d", result.TotalQuantity)
	}
	if result.TotalAmountCents != 3000+2100 {
		t.Fatalf("expected total amount 5100, got %d", result.TotalAmountCents)
	}
	if len(ledger.reserved) != 2 {
		t.Fatalf("expected 2 ledger reservations, got %d", len(ledger.reserved))
	}
	if len(ledger.released) != 0 {
		t.Fatalf("successful pass must not release, got %d", len(ledger.released))
	}
}

func TestReserveEmptyDemands(t *testing.T) {
	coordinator, _ := NewCoordinator(newStubLedger(), nil, nil)

	_, err := coordinator.Reserve(context.Background(), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReserveRejectsZeroQty(t *testing.T) {
	p := newProduct("widget", 100)
	coordinator, _ := NewCoordinator(newStubLedger(p), nil, nil)

	_, err := coordinator.Reserve(context.Background(), []Demand{{ProductID: p.ID, Qty: 0}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReserveFailsFastOnMissingProduct(t *testing.T) {
	p := newProduct("widget", 100)
	ledger := newStubLedger(p)
	coordinator, _ := NewCoordinator(ledger, nil, nil)

	_, err := coordinator.Reserve(context.Background(), []Demand{
		{ProductID: p.ID, Qty: 1},
		{ProductID: uuid.New(), Qty: 1},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(ledger.reserved) != 0 {
		t.Fatalf("pre-validation failure must not touch the ledger, reserved %d", len(ledger.reserved))
	}
}

func TestReserveCompensatesAppliedReservationsInOrder(t *testing.T) {
	p1 := newProduct("widget", 100)
	p2 := newProduct("gadget", 200)
	p3 := newProduct("gizmo", 300)
	ledger := newStubLedger(p1, p2, p3)
	ledger.reserveErr[p3.ID] = pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
	coordinator, _ := NewCoordinator(ledger, nil, nil)

	_, err := coordinator.Reserve(context.Background(), []Demand{
		{ProductID: p1.ID, Qty: 2},
		{ProductID: p2.ID, Qty: 100},
		{ProductID: p3.ID, Qty: 1},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if len(ledger.released) != 2 {
		t.Fatalf("expected both applied reservations released, got %d", len(ledger.released))
	}
	if ledger.released[0].ProductID != p1.ID || ledger.released[1].ProductID != p2.ID {
		t.Fatalf("releases must follow application order, got %+v", ledger.released)
	}
	if ledger.released[0].Qty != 2 || ledger.released[1].Qty != 100 {
		t.Fatalf("release quantities must match reservations, got %+v", ledger.released)
	}
}

func TestReserveReturnsOriginalErrorWhenCompensationFails(t *testing.T) {
	p1 := newProduct("widget", 100)
	p2 := newProduct("gadget", 200)
	ledger := newStubLedger(p1, p2)
	ledger.reserveErr[p2.ID] = pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
	ledger.releaseErr[p1.ID] = pkgerrors.New(pkgerrors.CodeDependency, "store unreachable")
	coordinator, _ := NewCoordinator(ledger, nil, nil)

	_, err := coordinator.Reserve(context.Background(), []Demand{
		{ProductID: p1.ID, Qty: 1},
		{ProductID: p2.ID, Qty: 1},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("compensation failure must not mask the trigger, got %v", err)
	}
}

func TestReleaseAllAggregatesFailures(t *testing.T) {
	p1 := newProduct("widget", 100)
	p2 := newProduct("gadget", 200)
	ledger := newStubLedger(p1, p2)
	ledger.releaseErr[p1.ID] = pkgerrors.New(pkgerrors.CodeDependency, "store unreachable")
	coordinator, _ := NewCoordinator(ledger, nil, nil)

	err := coordinator.ReleaseAll(context.Background(), []Demand{
		{ProductID: p1.ID, Qty: 1},
		{ProductID: p2.ID, Qty: 2},
	})
	if err == nil {
		t.Fatal("expected aggregated release error")
	}
	if len(ledger.released) != 1 || ledger.released[0].ProductID != p2.ID {
		t.Fatalf("remaining lines must still be released, got %+v", ledger.released)
	}
}

func TestReleaseAllSkipsMissingProducts(t *testing.T) {
	p1 := newProduct("widget", 100)
	p2 := newProduct("gadget", 200)
	ledger := newStubLedger(p1, p2)
	ledger.releaseErr[p1.ID] = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	coordinator, _ := NewCoordinator(ledger, nil, nil)

	err := coordinator.ReleaseAll(context.Background(), []Demand{
		{ProductID: p1.ID, Qty: 1},
		{ProductID: p2.ID, Qty: 2},
	})
	if err != nil {
		t.Fatalf("missing product must not fail the release pass: %v", err)
	}
	if len(ledger.released) != 1 || ledger.released[0].ProductID != p2.ID {
		t.Fatalf("surviving lines must release exactly once, got %+v", ledger.released)
	}
}
