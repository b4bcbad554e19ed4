package cart

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	kv.Store
	failSet bool
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func product(id int64, price domain.Money) domain.Product {
	return domain.Product{ID: id, Name: "P", Price: price, Stock: 10}
}

func newStore(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	mem := kv.NewMemory()
	s, err := Load(context.Background(), mem, "cart:test")
	require.NoError(t, err)
	return s, mem
}

func TestAddToCartMergesSameProductAndSize(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.AddToCart(ctx, product(1, 5000), "M", 1))
	require.NoError(t, s.AddToCart(ctx, product(1, 5000), "M", 2))
	require.NoError(t, s.AddToCart(ctx, product(1, 5000), "G", 1))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "G", items[1].Size)
	assert.Equal(t, 4, s.TotalItems())
	assert.Equal(t, domain.Money(20000), s.TotalPrice())
}

func TestAddToCartRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	assert.ErrorIs(t, s.AddToCart(ctx, product(1, 100), "", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, s.AddToCart(ctx, product(1, 100), "", -3), ErrInvalidQuantity)
	assert.ErrorIs(t, s.AddToCart(ctx, product(0, 100), "", 1), ErrInvalidProduct)
	assert.Empty(t, s.Items())
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	a, _ := newStore(t)
	b, _ := newStore(t)
	for _, s := range []*Store{a, b} {
		require.NoError(t, s.AddToCart(ctx, product(1, 100), "P", 2))
		require.NoError(t, s.AddToCart(ctx, product(2, 300), "", 1))
	}

	require.NoError(t, a.UpdateQuantity(ctx, 1, 0, "P"))
	require.NoError(t, b.RemoveItem(ctx, 1, "P"))
	assert.Equal(t, b.Items(), a.Items())
}

func TestUpdateQuantityMatchesSize(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	require.NoError(t, s.AddToCart(ctx, product(1, 100), "P", 1))
	require.NoError(t, s.AddToCart(ctx, product(1, 100), "M", 1))

	require.NoError(t, s.UpdateQuantity(ctx, 1, 5, "M"))
	items := s.Items()
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 5, items[1].Quantity)

	// unknown line is a no-op
	require.NoError(t, s.UpdateQuantity(ctx, 9, 5, ""))
	assert.Equal(t, 6, s.TotalItems())
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	require.NoError(t, s.AddToCart(ctx, product(1, 100), "", 1))
	require.NoError(t, s.AddToCart(ctx, product(2, 100), "", 1))

	require.NoError(t, s.RemoveItem(ctx, 1, ""))
	once := s.Items()
	require.NoError(t, s.RemoveItem(ctx, 1, ""))
	assert.Equal(t, once, s.Items())
}

func TestCartRehydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	require.NoError(t, s.AddToCart(ctx, product(1, 5000), "", 2))
	require.NoError(t, s.AddToCart(ctx, product(2, 3000), "", 1))

	reloaded, err := Load(ctx, mem, "cart:test")
	require.NoError(t, err)
	assert.Equal(t, s.Items(), reloaded.Items())
	assert.Equal(t, domain.Money(13000), reloaded.TotalPrice())

	require.NoError(t, reloaded.ClearCart(ctx))
	again, err := Load(ctx, mem, "cart:test")
	require.NoError(t, err)
	assert.Empty(t, again.Items())
}

func TestLoadCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, "cart:x", []byte("not-json")))
	_, err := Load(ctx, mem, "cart:x")
	require.Error(t, err)
}

func TestLoadDropsNonPositiveQuantities(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, "cart:x", []byte(`[{"productId":1,"quantity":0},{"productId":2,"quantity":2,"unitPriceCents":100}]`)))
	s, err := Load(ctx, mem, "cart:x")
	require.NoError(t, err)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, int64(2), s.Items()[0].ProductID)
}

func TestPersistFailureLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingKV{Store: kv.NewMemory()}
	s, err := Load(ctx, store, "cart:x")
	require.NoError(t, err)
	require.NoError(t, s.AddToCart(ctx, product(1, 100), "", 1))

	store.failSet = true
	require.Error(t, s.AddToCart(ctx, product(1, 100), "", 1))
	require.Error(t, s.RemoveItem(ctx, 1, ""))
	require.Error(t, s.ClearCart(ctx))
	assert.Equal(t, 1, s.TotalItems())
}

type lineKey struct {
	id   int64
	size string
}

func TestTotalsMatchRandomSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	sizes := []string{"", "P", "M"}
	prices := map[int64]domain.Money{1: 8990, 2: 6990, 3: 3990, 4: 1}

	for run := 0; run < 50; run++ {
		s, _ := newStore(t)
		model := map[lineKey]int{}

		for step := 0; step < 40; step++ {
			id := int64(rng.Intn(4) + 1)
			size := sizes[rng.Intn(len(sizes))]
			k := lineKey{id, size}
			switch rng.Intn(3) {
			case 0:
				qty := rng.Intn(3) + 1
				require.NoError(t, s.AddToCart(ctx, product(id, prices[id]), size, qty))
				model[k] += qty
			case 1:
				qty := rng.Intn(5) - 1
				require.NoError(t, s.UpdateQuantity(ctx, id, qty, size))
				if qty <= 0 {
					delete(model, k)
				} else if _, ok := model[k]; ok {
					model[k] = qty
				}
			default:
				require.NoError(t, s.RemoveItem(ctx, id, size))
				delete(model, k)
			}

			wantItems := 0
			var wantPrice domain.Money
			for k, q := range model {
				wantItems += q
				wantPrice += prices[k.id].Mul(q)
			}
			require.Equal(t, wantItems, s.TotalItems())
			require.Equal(t, wantPrice, s.TotalPrice())
			require.Len(t, s.Items(), len(model))
		}
	}
}
