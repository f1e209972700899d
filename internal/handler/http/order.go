package handler

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/middleware"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/service"
	"go.uber.org/zap"
	"net/http"
	"time"
)

//go:generate mockgen -source=order.go -destination=mocks/order.go -package=mocks

type OrderService interface {
	// PaidOrders returns paid orders with usernames
	PaidOrders(ctx context.Context) ([]service.OrderView, error)
}

type FulfillmentService interface {
	// UpdateCardStatus advances card status of paid order
	UpdateCardStatus(ctx context.Context, orderID string, to models.CardStatus, details *models.CardDetails, by string) (*models.Order, error)
}

// OrderHandler represents HTTP handler for order-related requests
type OrderHandler struct {
	svc         OrderService
	fulfillment FulfillmentService
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService, fulfillment FulfillmentService) *OrderHandler {
	return &OrderHandler{svc: svc, fulfillment: fulfillment}
}

// OrderResp is order as seen by operators
type OrderResp struct {
	ID              string              `json:"id"`
	Username        string              `json:"username,omitempty"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	CardType        string              `json:"cardType"`
	Status          string              `json:"status"`
	CardStatus      string              `json:"cardStatus"`
	Amount          string              `json:"amount"`
	WalletAddress   string              `json:"walletAddress"`
	CreatedAt       string              `json:"createdAt"`
	StatusChangedBy string              `json:"statusChangedBy,omitempty"`
	StatusChangedAt string              `json:"statusChangedAt,omitempty"`
	CardDetails     *models.CardDetails `json:"cardDetails,omitempty"`
}

type listOrdersResponse struct {
	Success bool        `json:"success"`
	Orders  []OrderResp `json:"orders"`
}

type orderResponse struct {
	Success bool      `json:"success"`
	Order   OrderResp `json:"order"`
}

type updateStatusRequest struct {
	CardStatus  models.CardStatus   `json:"cardStatus"`
	CardDetails *models.CardDetails `json:"cardDetails"`
}

func newOrderResp(o *models.Order, username string) OrderResp {
	resp := OrderResp{
		ID:              o.ID,
		Username:        username,
		FirstName:       o.Inputs.FirstName,
		LastName:        o.Inputs.LastName,
		CardType:        string(o.Type),
		Status:          string(o.Status),
		CardStatus:      string(o.CardStatus),
		Amount:          o.Amount.String(),
		WalletAddress:   o.WalletAddress,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		StatusChangedBy: o.StatusChangedBy,
		CardDetails:     o.CardDetails,
	}
	if o.StatusChangedAt != nil {
		resp.StatusChangedAt = o.StatusChangedAt.Format(time.RFC3339)
	}
	return resp
}

// ListPaidOrders returns paid orders, newest first
// 200 - ok;
// 401 - admin is not authenticated;
// 500 - internal server error.
func (oh *OrderHandler) ListPaidOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.PayloadFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		orders, err := oh.svc.PaidOrders(r.Context())
		if err != nil {
			logger.Log.Error("list paid orders", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := listOrdersResponse{Success: true, Orders: make([]OrderResp, 0, len(orders))}
		for i := range orders {
			resp.Orders = append(resp.Orders, newOrderResp(&orders[i].Order, orders[i].Username))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// UpdateCardStatus advances card status of order
// 200 - status changed;
// 400 - malformed request, unknown status or missing card details;
// 401 - admin is not authenticated;
// 404 - order not found;
// 409 - order is not paid or status cannot move to requested one;
// 422 - card number fails Luhn check;
// 500 - internal server error.
func (oh *OrderHandler) UpdateCardStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.PayloadFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		orderID := chi.URLParam(r, "orderID")

		order, err := oh.fulfillment.UpdateCardStatus(r.Context(), orderID, req.CardStatus, req.CardDetails, payload.Username)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidCardStatus):
				writeError(w, http.StatusBadRequest, "invalid card status")
			case errors.Is(err, models.ErrCardDetailsMissing):
				writeError(w, http.StatusBadRequest, "card details are required for delivered status")
			case errors.Is(err, models.ErrInvalidCardNumber):
				writeError(w, http.StatusUnprocessableEntity, "invalid card number")
			case errors.Is(err, models.ErrDataNotFound):
				writeError(w, http.StatusNotFound, "order not found")
			case errors.Is(err, models.ErrOrderNotPaid):
				writeError(w, http.StatusConflict, "order is not paid")
			case errors.Is(err, models.ErrInvalidTransition):
				writeError(w, http.StatusConflict, "card status cannot change from current state")
			default:
				logger.Log.Error("update card status", zap.String("order", orderID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: newOrderResp(order, "")})
	}
}
