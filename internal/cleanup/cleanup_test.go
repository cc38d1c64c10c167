package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/platform/storeapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	carts   []cart.Cart
	listErr error
	failing map[string]error

	mu      sync.Mutex
	deleted []string

	active    atomic.Int32
	maxActive atomic.Int32
}

func (s *fakeStore) CartsWithoutOrders(context.Context) ([]cart.Cart, error) {
	return s.carts, s.listErr
}

func (s *fakeStore) DeleteCart(_ context.Context, id string) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		peak := s.maxActive.Load()
		if n <= peak || s.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if err, ok := s.failing[id]; ok {
		return err
	}
	s.mu.Lock()
	s.deleted = append(s.deleted, id)
	s.mu.Unlock()
	return nil
}

func cartsNamed(n int) []cart.Cart {
	carts := make([]cart.Cart, n)
	for i := range carts {
		carts[i] = cart.Cart{ID: fmt.Sprintf("cart-%d", i)}
	}
	return carts
}

func TestJob_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes every cart", func(t *testing.T) {
		store := &fakeStore{carts: cartsNamed(7)}
		report, err := NewJob(store, 2, zap.NewNop()).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, Report{Found: 7, Deleted: 7}, report)
		assert.Len(t, store.deleted, 7)
	})

	t.Run("respects the worker limit", func(t *testing.T) {
		store := &fakeStore{carts: cartsNamed(12)}
		_, err := NewJob(store, 3, zap.NewNop()).Run(ctx)

		require.NoError(t, err)
		assert.LessOrEqual(t, store.maxActive.Load(), int32(3))
	})

	t.Run("no carts", func(t *testing.T) {
		report, err := NewJob(&fakeStore{}, 2, zap.NewNop()).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, Report{}, report)
	})

	t.Run("single cart with default workers", func(t *testing.T) {
		store := &fakeStore{carts: cartsNamed(1)}
		report, err := NewJob(store, 0, zap.NewNop()).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Deleted)
	})

	t.Run("failures are collected", func(t *testing.T) {
		boom := errors.New("conflict")
		store := &fakeStore{
			carts:   cartsNamed(4),
			failing: map[string]error{"cart-1": boom, "cart-3": boom},
		}
		report, err := NewJob(store, 2, zap.NewNop()).Run(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "cart-1")
		assert.Contains(t, err.Error(), "cart-3")
		assert.Equal(t, Report{Found: 4, Deleted: 2, Failed: 2}, report)
	})

	t.Run("already deleted counts as deleted", func(t *testing.T) {
		store := &fakeStore{
			carts:   cartsNamed(2),
			failing: map[string]error{"cart-0": storeapi.ErrNotFound},
		}
		report, err := NewJob(store, 2, zap.NewNop()).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, Report{Found: 2, Deleted: 2}, report)
	})

	t.Run("list failure", func(t *testing.T) {
		store := &fakeStore{listErr: errors.New("store down")}
		_, err := NewJob(store, 2, zap.NewNop()).Run(ctx)
		assert.ErrorContains(t, err, "store down")
	})
}

func TestNewScheduler(t *testing.T) {
	job := NewJob(&fakeStore{}, 1, zap.NewNop())

	t.Run("default schedule", func(t *testing.T) {
		s, err := NewScheduler(job, "", zap.NewNop())
		require.NoError(t, err)
		require.Len(t, s.cron.Entries(), 1)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		_, err := NewScheduler(job, "every day", zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("runs the job", func(t *testing.T) {
		store := &fakeStore{carts: cartsNamed(1)}
		s, err := NewScheduler(NewJob(store, 1, zap.NewNop()), "* * * * * *", zap.NewNop())
		require.NoError(t, err)

		s.Start()
		assert.Eventually(t, func() bool {
			store.mu.Lock()
			defer store.mu.Unlock()
			return len(store.deleted) > 0
		}, 3*time.Second, 20*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
}
