package cart

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"storefront/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

// Register mounts the cart routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /cart", h.SaveCart)
	mux.HandleFunc("GET /cart/noorder", h.CartsWithoutOrders)
	mux.HandleFunc("GET /cart/{cartId}", h.GetCart)
	mux.HandleFunc("DELETE /cart/{cartId}", h.RemoveCart)
	mux.HandleFunc("POST /cart/{cartId}/item", h.AddItem)
	mux.HandleFunc("PUT /cart/{cartId}/item", h.UpdateItem)
	mux.HandleFunc("DELETE /cart/{cartId}/item/{itemId}", h.RemoveItem)
}

// SaveCart handles POST /cart
func (h *HTTPHandler) SaveCart(w http.ResponseWriter, r *http.Request) {
	var c Cart
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.ValidationError(w, r, "Invalid request body", nil)
		return
	}
	details := httpx.ValidateStruct(c)
	for i, it := range c.Items {
		details = append(details, priceDetails(fmt.Sprintf("items[%d].price", i), it)...)
	}
	if len(details) > 0 {
		httpx.ValidationError(w, r, "Invalid cart", details)
		return
	}

	saved, err := h.service.SaveCart(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, saved, nil)
}

// GetCart handles GET /cart/{cartId}
func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCart(r.Context(), r.PathValue("cartId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, c, nil)
}

// CartsWithoutOrders handles GET /cart/noorder
func (h *HTTPHandler) CartsWithoutOrders(w http.ResponseWriter, r *http.Request) {
	carts, err := h.service.CartsWithoutOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, carts, map[string]any{"total": len(carts)})
}

// RemoveCart handles DELETE /cart/{cartId}
func (h *HTTPHandler) RemoveCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveCart(r.Context(), r.PathValue("cartId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

// AddItem handles POST /cart/{cartId}/item
func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	c, err := h.service.AddItem(r.Context(), r.PathValue("cartId"), item)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, c, nil)
}

// UpdateItem handles PUT /cart/{cartId}/item
func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	if item.ID <= 0 {
		httpx.ValidationError(w, r, "Invalid item", []httpx.ErrorDetail{{Field: "id", Message: "id is required"}})
		return
	}
	c, err := h.service.UpdateItem(r.Context(), r.PathValue("cartId"), item)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, c, nil)
}

// RemoveItem handles DELETE /cart/{cartId}/item/{itemId}
func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil {
		httpx.ValidationError(w, r, "itemId must be a number", nil)
		return
	}
	c, err := h.service.RemoveItem(r.Context(), r.PathValue("cartId"), itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, c, nil)
}

func (h *HTTPHandler) decodeItem(w http.ResponseWriter, r *http.Request) (Item, bool) {
	var item Item
	if err := httpx.DecodeJSON(r, &item); err != nil {
		httpx.ValidationError(w, r, "Invalid request body", nil)
		return Item{}, false
	}
	details := append(httpx.ValidateStruct(item), priceDetails("price", item)...)
	if len(details) > 0 {
		httpx.ValidationError(w, r, "Invalid item", details)
		return Item{}, false
	}
	return item, true
}

func priceDetails(field string, it Item) []httpx.ErrorDetail {
	if FitsMoney(it.Price) {
		return nil
	}
	return []httpx.ErrorDetail{{Field: field, Message: fmt.Sprintf("%s must have at most %d decimal places", field, MoneyPlaces)}}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Cart not found", nil)
	case errors.Is(err, ErrItemNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Item not found", nil)
	case errors.Is(err, ErrHasOrder):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", "Cart has an order", nil)
	default:
		h.logger.Error("cart request failed", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.InternalError(w, r)
	}
}
