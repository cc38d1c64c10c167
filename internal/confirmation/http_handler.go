package confirmation

import (
	"fmt"
	"net/http"
	"strconv"

	"storefront/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	producer *Producer
	logger   *zap.Logger
}

func NewHTTPHandler(producer *Producer, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{producer: producer, logger: logger}
}

// Register mounts the confirmation route on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /confirm/{orderId}", h.Confirm)
}

// Confirm godoc
// @Summary Queue an order confirmation
// @Tags orders
// @Produce json
// @Param orderId path int true "Order id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /confirm/{orderId} [get]
func (h *HTTPHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("orderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.ValidationError(w, r, "orderId must be a number", nil)
		return
	}

	if err := h.producer.ConfirmOrder(r.Context(), id); err != nil {
		h.logger.Error("confirm order failed", zap.Int64("order_id", id), zap.Error(err))
		httpx.JSONError(w, r, http.StatusServiceUnavailable, httpx.CodeUnavailable, "Order queue unavailable", nil)
		return
	}
	httpx.JSONSuccess(w, r, fmt.Sprintf("Order confirm message sent for order ID: %d", id), nil)
}
