package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockdeskhq/stockdesk-backend/api/middleware"
	"github.com/stockdeskhq/stockdesk-backend/api/responses"
	"github.com/stockdeskhq/stockdesk-backend/api/validators"
	internalorders "github.com/stockdeskhq/stockdesk-backend/internal/orders"
	"github.com/stockdeskhq/stockdesk-backend/pkg/enums"
	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
	"github.com/stockdeskhq/stockdesk-backend/pkg/logger"
	"github.com/stockdeskhq/stockdesk-backend/pkg/ordercode"
	"github.com/stockdeskhq/stockdesk-backend/pkg/pagination"
)

// CreateOrder accepts an order, reserving stock for every requested line
// before the aggregate is persisted.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput(actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder returns one order by id or by its public order code.
func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		if strings.HasPrefix(raw, ordercode.Prefix) {
			order, err := svc.GetByCode(r.Context(), raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, order)
			return
		}

		orderID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns a filtered, cursor-paginated order page.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateOrderStatus advances the payment or fulfillment axis of an order.
func UpdateOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.UpdateStatusInput{
			OrderID:     orderID,
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		}

		if payload.PaymentStatus != nil {
			status, err := enums.ParsePaymentStatus(*payload.PaymentStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid payment_status %q", *payload.PaymentStatus)))
				return
			}
			input.PaymentStatus = &status
		}
		if payload.FulfillmentStatus != nil {
			status, err := enums.ParseFulfillmentStatus(*payload.FulfillmentStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid fulfillment_status %q", *payload.FulfillmentStatus)))
				return
			}
			input.FulfillmentStatus = &status
		}

		order, err := svc.UpdateStatus(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// DeleteOrder soft-deletes an order record.
func DeleteOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	CustomerID string                   `json:"customer_id" validate:"required,uuid4"`
	Note       *string                  `json:"note,omitempty"`
	OrderDate  *string                  `json:"order_date,omitempty"`
	Items      []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req createOrderRequest) toCreateInput(actorID uuid.UUID) (internalorders.CreateOrderInput, error) {
	var input internalorders.CreateOrderInput

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}

	orderDate := time.Now().UTC()
	if req.OrderDate != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.OrderDate))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_date")
		}
		orderDate = parsed
	}

	items := make([]internalorders.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, internalorders.CreateOrderItemInput{
			ProductID: productID,
			Qty:       item.Qty,
		})
	}

	input = internalorders.CreateOrderInput{
		CreatedBy:  actorID,
		CustomerID: customerID,
		Note:       req.Note,
		OrderDate:  orderDate,
		Items:      items,
	}
	return input, nil
}

type updateOrderStatusRequest struct {
	PaymentStatus     *string `json:"payment_status,omitempty"`
	FulfillmentStatus *string `json:"fulfillment_status,omitempty"`
}

func buildOrderFilters(r *http.Request) (internalorders.OrderFilters, error) {
	var filters internalorders.OrderFilters

	customerID, err := validators.ParseQueryUUID(r, "customer_id")
	if err != nil {
		return filters, err
	}
	filters.CustomerID = customerID

	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid payment_status %q", raw))
		}
		filters.PaymentStatus = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("fulfillment_status")); raw != "" {
		status, err := enums.ParseFulfillmentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid fulfillment_status %q", raw))
		}
		filters.FulfillmentStatus = &status
	}

	dateFrom, err := validators.ParseQueryDate(r, "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateFrom = dateFrom

	dateTo, err := validators.ParseQueryDate(r, "date_to")
	if err != nil {
		return filters, err
	}
	filters.DateTo = dateTo

	return filters, nil
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return actorID, nil
}
