package card

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/httpx"

	"github.com/shopspring/decimal"
)

const (
	defaultPage = 0
	defaultSize = 20

	CodeInvalidSort = "INVALID_SORT"
)

type HTTPHandler struct {
	catalog *Catalog
}

func NewHTTPHandler(catalog *Catalog) *HTTPHandler {
	return &HTTPHandler{catalog: catalog}
}

// Register mounts the card routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/cards", h.List)
	mux.HandleFunc("GET /api/cards/filter", h.Filter)
	mux.HandleFunc("GET /api/cards/search", h.Search)
}

// List godoc
// @Summary List cards one page at a time
// @Tags cards
// @Produce json
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/cards [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := intParam(query, "page", defaultPage)
	if err != nil {
		httpx.ValidationError(w, r, "page must be an integer", nil)
		return
	}
	size, err := intParam(query, "size", defaultSize)
	if err != nil {
		httpx.ValidationError(w, r, "size must be an integer", nil)
		return
	}

	cards := h.catalog.Paginate(page, size)
	page, size = h.catalog.PageBounds(page, size)
	httpx.JSONSuccess(w, r, cards, map[string]any{
		"page":  page,
		"size":  size,
		"total": h.catalog.Len(),
	})
}

// Filter godoc
// @Summary Filter cards by price range and specialty, optionally sorted
// @Tags cards
// @Produce json
// @Param minPrice query number false "Inclusive lower price bound"
// @Param maxPrice query number false "Inclusive upper price bound"
// @Param specialty query string false "Specialty substring"
// @Param sort query string false "name or price"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/cards/filter [get]
func (h *HTTPHandler) Filter(w http.ResponseWriter, r *http.Request) {
	f, details, err := ParseFilter(r.URL.Query())
	if errors.Is(err, ErrInvalidSort) {
		httpx.JSONError(w, r, http.StatusBadRequest, CodeInvalidSort, err.Error(), nil)
		return
	}
	if err != nil {
		httpx.ValidationError(w, r, "Invalid filter parameters", details)
		return
	}

	cards := h.catalog.FilterAndSort(f)
	httpx.JSONSuccess(w, r, cards, map[string]any{"total": len(cards)})
}

// Search godoc
// @Summary Search cards by name or contribution
// @Tags cards
// @Produce json
// @Param query query string true "Substring to look for"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/cards/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("query") {
		httpx.ValidationError(w, r, "query parameter is required", []httpx.ErrorDetail{
			{Field: "query", Message: "query is required"},
		})
		return
	}

	cards := h.catalog.Search(query.Get("query"))
	httpx.JSONSuccess(w, r, cards, map[string]any{"total": len(cards)})
}

// ParseFilter turns query parameters into a Filter. An absent or empty
// parameter leaves its constraint unset. It returns ErrInvalidSort for an
// unknown sort key and a non-nil error with details for malformed prices.
func ParseFilter(query url.Values) (Filter, []httpx.ErrorDetail, error) {
	var (
		f       Filter
		details []httpx.ErrorDetail
	)

	sortKey, err := ParseSortKey(query.Get("sort"))
	if err != nil {
		return Filter{}, nil, err
	}
	f.Sort = sortKey

	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"minPrice", &f.MinPrice},
		{"maxPrice", &f.MaxPrice},
	} {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: p.name, Message: p.name + " must be a decimal number"})
			continue
		}
		*p.dst = &d
	}
	if len(details) > 0 {
		return Filter{}, details, errors.New("invalid price bound")
	}

	if query.Has("specialty") {
		s := query.Get("specialty")
		f.Specialty = &s
	}
	return f, nil, nil
}

func intParam(query url.Values, key string, def int) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
