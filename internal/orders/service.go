package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockdeskhq/stockdesk-backend/internal/reservation"
	pkgdb "github.com/stockdeskhq/stockdesk-backend/pkg/db"
	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
	"github.com/stockdeskhq/stockdesk-backend/pkg/logger"
	"github.com/stockdeskhq/stockdesk-backend/pkg/metrics"
	"github.com/stockdeskhq/stockdesk-backend/pkg/ordercode"
	"github.com/stockdeskhq/stockdesk-backend/pkg/outbox"
	"github.com/stockdeskhq/stockdesk-backend/pkg/pagination"
)

// orderCodeAttempts bounds retries when the generated code loses the unique
// constraint race.
const orderCodeAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockReserver is the saga surface the order service drives.
type StockReserver interface {
	Reserve(ctx context.Context, demands []reservation.Demand) (*reservation.Result, error)
	ReleaseAll(ctx context.Context, demands []reservation.Demand) error
}

// Service exposes the order aggregate operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByCode(ctx context.Context, orderCode string) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	reserver StockReserver
	outbox   outboxPublisher
	codeGen  ordercode.Generator
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
}

// NewService wires the order service with its collaborators.
func NewService(repo Repository, tx txRunner, reserver StockReserver, publisher outboxPublisher, codeGen ordercode.Generator, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if reserver == nil {
		return nil, fmt.Errorf("stock reserver required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if codeGen == nil {
		codeGen = ordercode.New
	}
	return &service{
		repo:     repo,
		tx:       tx,
		reserver: reserver,
		outbox:   publisher,
		codeGen:  codeGen,
		logg:     logg,
		metrics:  m,
	}, nil
}

// Create accepts an order by reserving stock first and persisting the
// aggregate only after every reservation succeeded. A persistence failure
// after the reservation pass releases the reserved stock before returning.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	demands := make([]reservation.Demand, 0, len(input.Items))
	for _, item := range input.Items {
		demands = append(demands, reservation.Demand{ProductID: item.ProductID, Qty: item.Qty})
	}

	started := time.Now()
	result, err := s.reserver.Reserve(ctx, demands)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveReservation("failure", time.Since(started))
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveReservation("success", time.Since(started))
	}

	order, err := s.persistOrder(ctx, input, result)
	if err != nil {
		// The stock is already debited; hand it back before surfacing
		// the persistence failure.
		if relErr := s.reserver.ReleaseAll(ctx, demands); relErr != nil && s.logg != nil {
			s.logg.Error(ctx, "releasing stock after failed order persist",
				pkgerrors.Wrap(pkgerrors.CodeCompensation, relErr, "post-persist release"))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncOrdersCreated()
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "order created")
	}
	return order, nil
}

func (s *service) persistOrder(ctx context.Context, input CreateOrderInput, result *reservation.Result) (*models.Order, error) {
	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	var persisted *models.Order
	var lastErr error
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		order := &models.Order{
			ID:                uuid.New(),
			OrderCode:         s.codeGen(),
			CreatedBy:         input.CreatedBy,
			CustomerID:        input.CustomerID,
			TotalQuantity:     result.TotalQuantity,
			TotalAmountCents:  result.TotalAmountCents,
			PaymentStatus:     enums.PaymentStatusUnpaid,
			FulfillmentStatus: enums.FulfillmentStatusPlaced,
			OrderDate:         orderDate,
			Note:              input.Note,
		}

		lastErr = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := repo.CreateOrder(ctx, order); err != nil {
				return err
			}

			items := make([]models.OrderLineItem, 0, len(result.Lines))
			for _, line := range result.Lines {
				items = append(items, models.OrderLineItem{
					ID:                uuid.New(),
					OrderID:           order.ID,
					ProductID:         line.ProductID,
					NameSnapshot:      line.NameSnapshot,
					UnitPriceCents:    line.UnitPriceCents,
					Quantity:          line.Qty,
					LineSubtotalCents: line.LineSubtotalCents,
				})
			}
			if err := repo.CreateLineItems(ctx, items); err != nil {
				return err
			}
			order.Items = items

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: input.CreatedBy},
				Data: OrderCreatedEvent{
					OrderID:          order.ID,
					OrderCode:        order.OrderCode,
					CustomerID:       order.CustomerID,
					TotalQuantity:    order.TotalQuantity,
					TotalAmountCents: order.TotalAmountCents,
					LineCount:        len(items),
				},
			})
		})
		if lastErr == nil {
			persisted = order
			break
		}
		if !pkgdb.IsUniqueViolation(lastErr, "idx_orders_order_code") {
			break
		}
		// Code collision: mint a new one and try again.
	}
	if persisted == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "persist order")
	}
	return persisted, nil
}

// UpdateStatus applies payment and fulfillment transitions. Cancelling a
// non-completed order returns every line's quantity to the ledger before the
// status write; marking an order completed never touches stock.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.PaymentStatus == nil && input.FulfillmentStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one status is required")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *input.PaymentStatus))
	}
	if input.FulfillmentStatus != nil && !input.FulfillmentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid fulfillment status %q", *input.FulfillmentStatus))
	}

	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.PaymentStatus != nil && *input.PaymentStatus != order.PaymentStatus {
		updates["payment_status"] = *input.PaymentStatus
	}

	cancelling := false
	if input.FulfillmentStatus != nil && *input.FulfillmentStatus != order.FulfillmentStatus {
		if order.FulfillmentStatus.IsTerminal() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is %s and cannot transition", order.FulfillmentStatus))
		}
		updates["fulfillment_status"] = *input.FulfillmentStatus
		cancelling = *input.FulfillmentStatus == enums.FulfillmentStatusCancelled
	}

	if len(updates) == 0 {
		return order, nil
	}

	if cancelling {
		// Restock before the status write. If the write then fails the
		// stock is back but the order stays open, which reconciliation
		// can detect; the reverse would silently lose stock.
		demands := make([]reservation.Demand, 0, len(order.Items))
		for _, item := range order.Items {
			demands = append(demands, reservation.Demand{ProductID: item.ProductID, Qty: item.Quantity})
		}
		if err := s.reserver.ReleaseAll(ctx, demands); err != nil {
			if s.logg != nil {
				logCtx := s.logg.WithOrderID(ctx, order.ID.String())
				s.logg.Error(logCtx, "cancellation restock incomplete, manual reconciliation required",
					pkgerrors.Wrap(pkgerrors.CodeCompensation, err, "restock cancelled order"))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock cancelled order")
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if status, ok := updates["payment_status"].(enums.PaymentStatus); ok {
			order.PaymentStatus = status
		}
		if status, ok := updates["fulfillment_status"].(enums.FulfillmentStatus); ok {
			order.FulfillmentStatus = status
		}

		eventType := enums.EventOrderStatusChanged
		if cancelling {
			eventType = enums.EventOrderCancelled
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: OrderStatusChangedEvent{
				OrderID:           order.ID,
				OrderCode:         order.OrderCode,
				PaymentStatus:     order.PaymentStatus,
				FulfillmentStatus: order.FulfillmentStatus,
				Restocked:         cancelling,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if cancelling && s.metrics != nil {
		s.metrics.IncOrdersCancelled()
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetByCode(ctx context.Context, orderCode string) (*models.Order, error) {
	order, err := s.repo.FindByCode(ctx, orderCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if _, err := s.Get(ctx, orderID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func buildActor(userID uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}
