package order

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"storefront/internal/cart"
	"storefront/internal/httpx"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

// Register mounts the order routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /order", h.Save)
	mux.HandleFunc("GET /order/{orderId}", h.Get)
}

// Save godoc
// @Summary Place an order for an existing cart
// @Tags orders
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /order [post]
func (h *HTTPHandler) Save(w http.ResponseWriter, r *http.Request) {
	var o Order
	if err := httpx.DecodeJSON(r, &o); err != nil {
		httpx.ValidationError(w, r, "Invalid request body", nil)
		return
	}
	details := httpx.ValidateStruct(o)
	details = append(details, moneyDetails(map[string]*decimal.Decimal{
		"subtotal": o.Subtotal,
		"tax":      o.Tax,
		"total":    o.Total,
	})...)
	if len(details) > 0 {
		httpx.ValidationError(w, r, "Invalid order", details)
		return
	}

	saved, err := h.service.Save(r.Context(), o)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Cart not found", nil)
			return
		}
		h.logger.Error("save order failed", zap.Error(err))
		httpx.InternalError(w, r)
		return
	}
	httpx.JSONCreated(w, r, saved)
}

// Get godoc
// @Summary Get an order with its cart
// @Tags orders
// @Produce json
// @Param orderId path int true "Order id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /order/{orderId} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil {
		httpx.ValidationError(w, r, "orderId must be a number", nil)
		return
	}

	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Order not found", nil)
			return
		}
		h.logger.Error("get order failed", zap.Int64("order_id", id), zap.Error(err))
		httpx.InternalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, o, nil)
}

// moneyDetails rejects amounts the card_orders columns would round.
func moneyDetails(amounts map[string]*decimal.Decimal) []httpx.ErrorDetail {
	var details []httpx.ErrorDetail
	for _, field := range []string{"subtotal", "tax", "total"} {
		if d := amounts[field]; d != nil && !cart.FitsMoney(*d) {
			details = append(details, httpx.ErrorDetail{
				Field:   field,
				Message: fmt.Sprintf("%s must have at most %d decimal places", field, cart.MoneyPlaces),
			})
		}
	}
	return details
}
