package handler

import (
	"errors"
	"net/http"

	"rebalancer/internal/rebalance"
	"rebalancer/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type deltaComputer interface {
	ComputeDelta(target, current *types.WeightTable) (*types.WeightTable, error)
}

type orderBuilder interface {
	BuildOrders(balance decimal.Decimal, delta *types.WeightTable, prices types.PriceMap) (types.OrderSet, error)
}

// PlanHandler computes rebalance plans without touching any account.
type PlanHandler struct {
	rebalancer deltaComputer
	builder    orderBuilder
}

func NewPlanHandler(rebalancer deltaComputer, builder orderBuilder) *PlanHandler {
	return &PlanHandler{rebalancer: rebalancer, builder: builder}
}

type planRequest struct {
	Balance decimal.Decimal    `json:"balance"`
	Target  *types.WeightTable `json:"target"`
	Current *types.WeightTable `json:"current,omitempty"`
	Prices  types.PriceMap     `json:"prices"`
}

// OrderResponse is the wire form of an order.
type OrderResponse struct {
	Ticker     string  `json:"ticker"`
	Side       string  `json:"side"`
	OrderType  string  `json:"order_type"`
	Quantity   int64   `json:"quantity"`
	LimitPrice *string `json:"limit_price,omitempty"`
}

type planResponse struct {
	PlanID string             `json:"plan_id"`
	Delta  *types.WeightTable `json:"delta"`
	Orders []OrderResponse    `json:"orders"`
}

// Plan handles POST /v1/rebalance.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Target == nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "target is required")
		return
	}

	delta, err := h.rebalancer.ComputeDelta(req.Target, req.Current)
	if err != nil {
		mapRebalanceError(w, err)
		return
	}
	orders, err := h.builder.BuildOrders(req.Balance, delta, req.Prices)
	if err != nil {
		mapRebalanceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, planResponse{
		PlanID: uuid.NewString(),
		Delta:  delta,
		Orders: OrderResponses(orders),
	})
}

// OrderResponses lists orders sells first.
func OrderResponses(orders types.OrderSet) []OrderResponse {
	out := make([]OrderResponse, 0, orders.Len())
	for _, o := range orders.SellsFirst() {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

func NewOrderResponse(o types.Order) OrderResponse {
	resp := OrderResponse{
		Ticker:    o.Ticker,
		Side:      string(o.Side),
		OrderType: string(o.OrderType),
		Quantity:  o.Quantity,
	}
	if o.OrderType == types.TypeLimit {
		limit := o.LimitPrice.String()
		resp.LimitPrice = &limit
	}
	return resp
}

// mapRebalanceError maps rebalance errors to HTTP status codes.
func mapRebalanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rebalance.ErrInvalidWeights):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_weights", err.Error())
	case errors.Is(err, rebalance.ErrInvalidBalance):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_balance", err.Error())
	case errors.Is(err, rebalance.ErrMissingPrice):
		WriteError(w, http.StatusUnprocessableEntity, "missing_price", err.Error())
	case errors.Is(err, rebalance.ErrQuantityOverflow):
		WriteError(w, http.StatusUnprocessableEntity, "quantity_overflow", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
