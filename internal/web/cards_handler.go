package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/card"
	"storefront/internal/httpx"
	"storefront/internal/platform/catalogapi"

	"go.uber.org/zap"
)

// CardCatalog is the remote catalog. *catalogapi.Client satisfies it.
type CardCatalog interface {
	Cards(ctx context.Context, page, size int) (catalogapi.Page, error)
	Filter(ctx context.Context, f card.Filter) ([]card.Card, error)
	Search(ctx context.Context, query string) ([]card.Card, error)
}

// CardsHandler republishes the catalog endpoints for the browser. Parameters
// are validated here so malformed requests never leave the gateway.
type CardsHandler struct {
	catalog CardCatalog
	logger  *zap.Logger
}

func NewCardsHandler(catalog CardCatalog, logger *zap.Logger) *CardsHandler {
	return &CardsHandler{catalog: catalog, logger: logger}
}

func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := intParam(query.Get("page"), 0)
	if err != nil {
		httpx.ValidationError(w, r, "page must be an integer", nil)
		return
	}
	size, err := intParam(query.Get("size"), 20)
	if err != nil {
		httpx.ValidationError(w, r, "size must be an integer", nil)
		return
	}

	p, err := h.catalog.Cards(r.Context(), page, size)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, p.Cards, map[string]any{
		"page":  p.Page,
		"size":  p.Size,
		"total": p.Total,
	})
}

func (h *CardsHandler) Filter(w http.ResponseWriter, r *http.Request) {
	f, details, err := card.ParseFilter(r.URL.Query())
	if errors.Is(err, card.ErrInvalidSort) {
		httpx.JSONError(w, r, http.StatusBadRequest, card.CodeInvalidSort, err.Error(), nil)
		return
	}
	if err != nil {
		httpx.ValidationError(w, r, "Invalid filter parameters", details)
		return
	}

	cards, err := h.catalog.Filter(r.Context(), f)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, cards, map[string]any{"total": len(cards)})
}

func (h *CardsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("query") {
		httpx.ValidationError(w, r, "query parameter is required", []httpx.ErrorDetail{
			{Field: "query", Message: "query is required"},
		})
		return
	}

	cards, err := h.catalog.Search(r.Context(), query.Get("query"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, cards, map[string]any{"total": len(cards)})
}

func (h *CardsHandler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalogapi.ErrBadRequest) {
		msg := strings.TrimPrefix(err.Error(), catalogapi.ErrBadRequest.Error()+": ")
		httpx.ValidationError(w, r, msg, nil)
		return
	}
	h.logger.Error("catalog request failed", zap.String("path", r.URL.Path), zap.Error(err))
	httpx.JSONError(w, r, http.StatusBadGateway, httpx.CodeBadGateway, "Card catalog unavailable", nil)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
