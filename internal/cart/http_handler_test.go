package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMux(t *testing.T) (*http.ServeMux, *MockRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	mux := http.NewServeMux()
	NewHTTPHandler(NewService(repo), zap.NewNop()).Register(mux)
	return mux, repo
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func dataOf[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	require.True(t, env.Success)
	return env.Data
}

func TestHTTPHandler_CartsWithoutOrders(t *testing.T) {
	mux, repo := newTestMux(t)
	repo.EXPECT().ListWithoutOrders(gomock.Any()).Return([]Cart{testCart()}, nil)

	w := do(mux, http.MethodGet, "/cart/noorder", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	carts := dataOf[[]Cart](t, w)
	require.Len(t, carts, 1)
	assert.Equal(t, "test-cart-1", carts[0].ID)
	assert.Equal(t, "test-person-1", carts[0].PersonID)
}

func TestHTTPHandler_GetCart(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(testCart(), nil)

		w := do(mux, http.MethodGet, "/cart/test-cart-1", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "test-person-1", dataOf[Cart](t, w).PersonID)
	})

	t.Run("not found", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Get(gomock.Any(), "missing").Return(Cart{}, ErrNotFound)

		w := do(mux, http.MethodGet, "/cart/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(Cart{}, context.DeadlineExceeded)

		w := do(mux, http.MethodGet, "/cart/test-cart-1", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_SaveCart(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c Cart) error {
			assert.Equal(t, "test-cart-1", c.ID)
			assert.Len(t, c.Items, 1)
			return nil
		})
		repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(testCart(), nil)

		body := `{"id":"test-cart-1","person_id":"test-person-1","items":[{"card_id":"7","name":"Ada","price":"10.00","quantity":2}]}`
		w := do(mux, http.MethodPost, "/cart", body)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "test-cart-1", dataOf[Cart](t, w).ID)
	})

	t.Run("missing id", func(t *testing.T) {
		mux, _ := newTestMux(t)
		w := do(mux, http.MethodPost, "/cart", `{"person_id":"p"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid item", func(t *testing.T) {
		mux, _ := newTestMux(t)
		w := do(mux, http.MethodPost, "/cart", `{"id":"c","items":[{"card_id":"7","name":"Ada","price":"-1","quantity":0}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		mux, _ := newTestMux(t)
		w := do(mux, http.MethodPost, "/cart", `{"id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("price finer than cents", func(t *testing.T) {
		mux, _ := newTestMux(t)
		w := do(mux, http.MethodPost, "/cart", `{"id":"c","items":[{"card_id":"7","name":"Ada","price":"10.005","quantity":1}]}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var env httpx.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
		assert.Equal(t, httpx.CodeValidation, env.Error.Code)
		assert.Equal(t, []httpx.ErrorDetail{{Field: "items[0].price", Message: "items[0].price must have at most 2 decimal places"}}, env.Error.Details)
	})
}

func TestFitsMoney(t *testing.T) {
	tests := map[string]bool{
		"0":       true,
		"10":      true,
		"10.5":    true,
		"10.50":   true,
		"10.500":  true,
		"10.505":  false,
		"0.001":   false,
		"-12.34":  true,
		"1.00001": false,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, FitsMoney(decimal.RequireFromString(in)))
		})
	}
}

func TestHTTPHandler_AddItem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo := newTestMux(t)
		withItem := testCart()
		withItem.Items = []Item{testItem()}

		gomock.InOrder(
			repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(testCart(), nil),
			repo.EXPECT().AddItem(gomock.Any(), "test-cart-1", gomock.Any()).Return(testItem(), nil),
			repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(withItem, nil),
		)

		w := do(mux, http.MethodPost, "/cart/test-cart-1/item", `{"card_id":"test-card-1","name":"Test Card","price":"10","quantity":1}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, dataOf[Cart](t, w).Items, 1)
	})

	t.Run("price finer than cents", func(t *testing.T) {
		mux, _ := newTestMux(t)
		w := do(mux, http.MethodPost, "/cart/test-cart-1/item", `{"card_id":"1","name":"Test","price":"0.125","quantity":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cart not found", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Get(gomock.Any(), "nope").Return(Cart{}, ErrNotFound)

		w := do(mux, http.MethodPost, "/cart/nope/item", `{"card_id":"1","name":"Test","price":"1","quantity":1}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_UpdateItem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo := newTestMux(t)
		withItem := testCart()
		withItem.Items = []Item{testItem()}

		gomock.InOrder(
			repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(withItem, nil),
			repo.EXPECT().UpdateItem(gomock.Any(), "test-cart-1", gomock.Any()).Return(nil),
			repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(withItem, nil),
		)

		w := do(mux, http.MethodPut, "/cart/test-cart-1/item", `{"id":1,"card_id":"test-card-1","name":"Test Card","price":"10","quantity":4}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing item id", func(t *testing.T) {
		mux, _ := newTestMux(t)
		w := do(mux, http.MethodPut, "/cart/test-cart-1/item", `{"card_id":"test-card-1","name":"Test Card","price":"10","quantity":4}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_RemoveItem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo := newTestMux(t)
		withItem := testCart()
		withItem.Items = []Item{testItem()}

		gomock.InOrder(
			repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(withItem, nil),
			repo.EXPECT().DeleteItem(gomock.Any(), "test-cart-1", int64(1)).Return(nil),
			repo.EXPECT().Get(gomock.Any(), "test-cart-1").Return(testCart(), nil),
		)

		w := do(mux, http.MethodDelete, "/cart/test-cart-1/item/1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "test-cart-1", dataOf[Cart](t, w).ID)
	})

	t.Run("non-numeric item id", func(t *testing.T) {
		mux, _ := newTestMux(t)
		w := do(mux, http.MethodDelete, "/cart/test-cart-1/item/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_RemoveCart(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Delete(gomock.Any(), "test-cart-1").Return(nil)

		w := do(mux, http.MethodDelete, "/cart/test-cart-1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("referenced by order", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Delete(gomock.Any(), "test-cart-1").Return(ErrHasOrder)

		w := do(mux, http.MethodDelete, "/cart/test-cart-1", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
