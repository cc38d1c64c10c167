package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/httpx"
	"storefront/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validOrderJSON = `{
	"customer": {"first_name": "John", "last_name": "Doe", "email": "john@example.com"},
	"cart": {"id": "cart1"},
	"shipping_address": {"address_line1": "123 Main St", "city": "Springfield", "country": "USA"},
	"total": "22.00"
}`

func newTestMux(t *testing.T) (*http.ServeMux, *MockRepository, *MockCartReader) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	carts := NewMockCartReader(ctrl)
	mux := http.NewServeMux()
	NewHTTPHandler(NewService(repo, carts), zap.NewNop()).Register(mux)
	return mux, repo, carts
}

func post(mux *http.ServeMux, body string) testutil.RecordResponse {
	r := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func get(mux *http.ServeMux, target string) testutil.RecordResponse {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return testutil.RecordHTTPResponse(w)
}

func TestHTTPHandler_Save(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo, carts := newTestMux(t)
		carts.EXPECT().GetCart(gomock.Any(), "cart1").Return(storedCart(), nil)
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o *Order) error {
			o.ID = 7
			return nil
		})

		res := post(mux, validOrderJSON)
		require.Equal(t, http.StatusCreated, res.Code)
		data := res.Body["data"].(map[string]interface{})
		assert.EqualValues(t, 7, data["id"])
		assert.Equal(t, "22", data["total"])
	})

	for _, field := range []string{"customer", "cart", "shipping_address", "total"} {
		t.Run("missing "+field, func(t *testing.T) {
			mux, _, _ := newTestMux(t)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(validOrderJSON), &body))
			delete(body, field)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/order", body))
			res := testutil.RecordHTTPResponse(w)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Equal(t, "VALIDATION_ERROR", res.ErrorCode())
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		mux, _, _ := newTestMux(t)
		res := post(mux, "{")
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("negative total", func(t *testing.T) {
		mux, _, _ := newTestMux(t)
		res := post(mux, strings.Replace(validOrderJSON, `"22.00"`, `"-1"`, 1))
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("money finer than cents", func(t *testing.T) {
		mux, _, _ := newTestMux(t)
		body := strings.Replace(validOrderJSON, `"total": "22.00"`, `"tax": "1.765", "total": "22.005"`, 1)
		res := post(mux, body)

		require.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, httpx.CodeValidation, res.ErrorCode())
		raw, err := json.Marshal(res.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "tax must have at most 2 decimal places")
		assert.Contains(t, string(raw), "total must have at most 2 decimal places")
	})

	t.Run("cart not found", func(t *testing.T) {
		mux, _, carts := newTestMux(t)
		carts.EXPECT().GetCart(gomock.Any(), "cart1").Return(cart.Cart{}, cart.ErrNotFound)

		res := post(mux, validOrderJSON)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo, carts := newTestMux(t)
		stored := testOrder()
		stored.ID = 1
		repo.EXPECT().Get(gomock.Any(), int64(1)).Return(stored, nil)
		carts.EXPECT().GetCart(gomock.Any(), "cart1").Return(storedCart(), nil)

		res := get(mux, "/order/1")
		require.Equal(t, http.StatusOK, res.Code)
		data := res.Body["data"].(map[string]interface{})
		assert.EqualValues(t, 1, data["id"])
	})

	t.Run("non-numeric id", func(t *testing.T) {
		mux, _, _ := newTestMux(t)
		res := get(mux, "/order/abc")
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mux, repo, _ := newTestMux(t)
		repo.EXPECT().Get(gomock.Any(), int64(42)).Return(Order{}, ErrNotFound)

		res := get(mux, "/order/42")
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "NOT_FOUND", res.ErrorCode())
	})
}
