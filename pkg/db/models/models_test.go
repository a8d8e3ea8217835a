package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
)

// The models must migrate into sqlite as-is: package tests run against
// in-memory sqlite databases, so the gorm tags cannot carry postgres-only
// DDL. The postgres schema is owned by the goose migrations.
func TestModelsMigrateIntoSQLite(t *testing.T) {
	t.Parallel()

	dsn := "file:models_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Product{}, &Order{}, &OrderLineItem{}, &OutboxEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	product := &Product{
		ID:               uuid.New(),
		SKU:              "SKU-MODELS",
		Name:             "widget",
		Tags:             pq.StringArray{"hardware", "bulk"},
		UnitPriceCents:   1500,
		QuantityOnHand:   4,
		ReorderThreshold: 2,
		Availability:     enums.AvailabilityInStock,
		IsActive:         true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("insert product: %v", err)
	}

	order := &Order{
		ID:                uuid.New(),
		OrderCode:         "ORD-MODELS",
		CreatedBy:         uuid.New(),
		CustomerID:        uuid.New(),
		TotalQuantity:     2,
		TotalAmountCents:  3000,
		PaymentStatus:     enums.PaymentStatusUnpaid,
		FulfillmentStatus: enums.FulfillmentStatusPlaced,
		OrderDate:         time.Now().UTC(),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("insert order: %v", err)
	}

	item := &OrderLineItem{
		ID:                uuid.New(),
		OrderID:           order.ID,
		ProductID:         product.ID,
		NameSnapshot:      product.Name,
		UnitPriceCents:    product.UnitPriceCents,
		Quantity:          2,
		LineSubtotalCents: 3000,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("insert line item: %v", err)
	}

	event := &OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Payload:       []byte(`{}`),
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("insert outbox event: %v", err)
	}

	var loaded Product
	if err := db.First(&loaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if len(loaded.Tags) != 2 || loaded.Tags[0] != "hardware" {
		t.Fatalf("tags did not round-trip: %v", loaded.Tags)
	}
}
