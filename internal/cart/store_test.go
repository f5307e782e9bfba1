package cart

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(price int64) Product {
	return Product{ID: uuid.New(), Name: "Desk Lamp", Price: price}
}

func TestStore_AddIncrementsExistingPair(t *testing.T) {
	s := NewStore(Cart{})
	p := product(2500)

	require.NoError(t, s.Add(p, "black"))
	require.NoError(t, s.Add(p, "black"))
	require.NoError(t, s.Add(p, "white"))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, "black", snap.Items[0].Variant)
	assert.Equal(t, 1, snap.Items[1].Quantity)
	assert.Equal(t, 3, s.TotalItems())
	assert.Equal(t, int64(7500), s.TotalPrice())
}

func TestStore_AddTrimsVariant(t *testing.T) {
	s := NewStore(Cart{})
	p := product(100)

	require.NoError(t, s.Add(p, "red"))
	require.NoError(t, s.Add(p, " red "))

	assert.Len(t, s.Snapshot().Items, 1)
	assert.Equal(t, 2, s.TotalItems())
}

func TestStore_AddRejectsInvalidProduct(t *testing.T) {
	s := NewStore(Cart{})

	assert.ErrorIs(t, s.Add(Product{Price: 100}, ""), ErrInvalidProduct)
	assert.ErrorIs(t, s.Add(product(-1), ""), ErrInvalidProduct)
	assert.Zero(t, s.TotalItems())
}

func TestStore_SetQuantityZeroRemoves(t *testing.T) {
	s := NewStore(Cart{})
	a, b := product(1000), product(300)
	require.NoError(t, s.Add(a, ""))
	require.NoError(t, s.Add(b, ""))
	require.Equal(t, int64(1300), s.TotalPrice())

	changed, err := s.SetQuantity(a.ID, "", 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, s.Snapshot().Items, 1)
	assert.Equal(t, int64(300), s.TotalPrice())

	changed, err = s.SetQuantity(b.ID, "", 4)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(1200), s.TotalPrice())

	changed, err = s.SetQuantity(a.ID, "", 3)
	require.NoError(t, err)
	assert.False(t, changed, "missing entry is not recreated")
}

func TestStore_SetQuantityRejectsAboveLimit(t *testing.T) {
	s := NewStore(Cart{})
	p := product(4999)
	require.NoError(t, s.Add(p, "red"))

	var notified int
	unsubscribe := s.Subscribe(func(Cart) { notified++ })
	defer unsubscribe()

	changed, err := s.SetQuantity(p.ID, "red", math.MaxInt64/4000)
	require.ErrorIs(t, err, ErrQuantityLimit)
	assert.False(t, changed)
	assert.Zero(t, notified)
	assert.Equal(t, 1, s.TotalItems())
	assert.Equal(t, int64(4999), s.TotalPrice())

	changed, err = s.SetQuantity(p.ID, "red", MaxQuantity)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(MaxQuantity)*4999, s.TotalPrice())

	assert.ErrorIs(t, s.Add(p, "red"), ErrQuantityLimit)
	assert.Equal(t, MaxQuantity, s.TotalItems())
}

func TestNormalize_CapsStoredQuantities(t *testing.T) {
	id := uuid.New()
	c := Normalize(Cart{Items: []Item{
		{ProductID: id, UnitPrice: 4999, Quantity: math.MaxInt / 2},
		{ProductID: id, UnitPrice: 4999, Quantity: math.MaxInt / 2},
	}})

	require.Len(t, c.Items, 1)
	assert.Equal(t, MaxQuantity, c.Items[0].Quantity)
	assert.GreaterOrEqual(t, c.TotalPrice(), int64(0))
}

func TestCart_TotalPriceSaturates(t *testing.T) {
	c := Cart{Items: []Item{
		{ProductID: uuid.New(), UnitPrice: math.MaxInt64 / 2, Quantity: MaxQuantity},
		{ProductID: uuid.New(), UnitPrice: 1, Quantity: 1},
	}}
	assert.Equal(t, int64(math.MaxInt64), c.TotalPrice())
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := NewStore(Cart{})
	p := product(100)
	require.NoError(t, s.Add(p, "blue"))

	assert.False(t, s.Remove(p.ID, "green"))
	assert.True(t, s.Remove(p.ID, "blue"))
	assert.Empty(t, s.Snapshot().Items)

	require.NoError(t, s.Add(p, "blue"))
	s.Clear()
	assert.Zero(t, s.TotalItems())
	assert.Zero(t, s.TotalPrice())
}

func TestStore_PriceSnapshotIsKept(t *testing.T) {
	s := NewStore(Cart{})
	p := product(1000)
	require.NoError(t, s.Add(p, ""))

	p.Price = 5000
	require.NoError(t, s.Add(p, ""))

	assert.Equal(t, int64(2000), s.TotalPrice())
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	s := NewStore(Cart{})
	var seen []int
	unsubscribe := s.Subscribe(func(c Cart) { seen = append(seen, c.TotalItems()) })

	p := product(100)
	require.NoError(t, s.Add(p, ""))
	require.NoError(t, s.Add(p, ""))
	s.Remove(uuid.New(), "")
	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Add(p, ""))

	assert.Equal(t, []int{1, 2}, seen)
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore(Cart{})
	require.NoError(t, s.Add(product(100), ""))

	snap := s.Snapshot()
	snap.Items[0].Quantity = 99

	assert.Equal(t, 1, s.TotalItems())
}

func TestNormalize_MergesAndDrops(t *testing.T) {
	id := uuid.New()
	c := Normalize(Cart{Items: []Item{
		{ProductID: id, Variant: "red", Quantity: 1, UnitPrice: 100},
		{ProductID: id, Variant: "red ", Quantity: 2, UnitPrice: 100},
		{ProductID: uuid.New(), Quantity: 0, UnitPrice: 100},
		{ProductID: uuid.Nil, Quantity: 1, UnitPrice: 100},
	}})

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestStore_RandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := []Product{product(0), product(199), product(2500), product(99999)}
	variants := []string{"", "red", "blue"}

	s := NewStore(Cart{})
	for i := 0; i < 2000; i++ {
		p := products[rng.Intn(len(products))]
		v := variants[rng.Intn(len(variants))]
		switch rng.Intn(4) {
		case 0, 1:
			require.NoError(t, s.Add(p, v))
		case 2:
			s.Remove(p.ID, v)
		case 3:
			_, err := s.SetQuantity(p.ID, v, rng.Intn(6)-2)
			require.NoError(t, err)
		}

		snap := s.Snapshot()
		seen := map[string]bool{}
		sum := 0
		var price int64
		for _, it := range snap.Items {
			key := it.ProductID.String() + "/" + it.Variant
			require.False(t, seen[key], "duplicate entry %s", key)
			seen[key] = true
			require.GreaterOrEqual(t, it.Quantity, 1)
			sum += it.Quantity
			price += int64(it.Quantity) * it.UnitPrice
		}
		require.Equal(t, sum, s.TotalItems())
		require.Equal(t, price, s.TotalPrice())
		require.GreaterOrEqual(t, s.TotalPrice(), int64(0))
	}
}

func TestStore_MergeKeepsExistingPrice(t *testing.T) {
	p := product(100)
	s := NewStore(Cart{})
	require.NoError(t, s.Add(p, "red"))

	guest := Cart{Items: []Item{
		{ProductID: p.ID, Variant: "red", Quantity: 2, UnitPrice: 80},
		{ProductID: uuid.New(), Variant: "", Quantity: 1, UnitPrice: 500},
	}}
	var notified int
	s.Subscribe(func(Cart) { notified++ })

	assert.True(t, s.Merge(guest))
	assert.False(t, s.Merge(Cart{}))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, int64(100), snap.Items[0].UnitPrice)
	assert.Equal(t, int64(800), s.TotalPrice())
	assert.Equal(t, 1, notified)
}
