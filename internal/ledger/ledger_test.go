package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fanatic033/shoro-market/internal/domain"
)

func testPolicy() Policy {
	p := DefaultPolicy()
	p.Delivery = domain.DeliveryPolicy{FreeThreshold: 50000, Fee: 500}
	return p
}

func drink(id, price int64) domain.Product {
	return domain.Product{ProductID: id, Title: "Чалап", UnitPrice: price, Category: "drinks"}
}

func cups(id, price int64, size int) domain.Product {
	return domain.Product{ProductID: id, Title: "Стакан бумажный", UnitPrice: price, Category: "cups", PackageSize: size}
}

type recorder struct {
	snapshots []domain.Snapshot
}

func (r *recorder) CartChanged(s domain.Snapshot) { r.snapshots = append(r.snapshots, s) }

func assertConsistent(t *testing.T, l *Ledger) {
	t.Helper()
	var items int
	var subtotal int64
	seen := map[int64]bool{}
	for _, it := range l.Items() {
		assert.Positive(t, it.Quantity, "product %d", it.ProductID)
		assert.False(t, seen[it.ProductID], "duplicate product %d", it.ProductID)
		seen[it.ProductID] = true
		items += it.Quantity
		subtotal += it.UnitPrice * int64(it.Quantity)
	}
	tot := l.Totals()
	assert.Equal(t, items, tot.TotalItems)
	assert.Equal(t, subtotal, tot.Subtotal)
	assert.Equal(t, tot.Subtotal+tot.DeliveryCost, tot.Total)
}

// --- Scenarios ---

func TestAddItem_SameProductTwiceMerges(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(drink(1, 100))
	l.AddItem(drink(1, 100))

	require.Len(t, l.Items(), 1)
	assert.Equal(t, 2, l.GetItemQuantity(1))
	assert.Equal(t, int64(200), l.Totals().Subtotal)
	assertConsistent(t, l)
}

func TestAddItem_PackagedCategoryUsesPackageSize(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(cups(2, 50, 6))

	assert.Equal(t, 6, l.GetItemQuantity(2))
	assert.Equal(t, int64(300), l.Totals().Subtotal)
	assert.Equal(t, 6, l.Items()[0].PackageSize)
}

func TestAddItem_InvalidPackageSizeFallsBackToOne(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(cups(2, 50, 0))
	l.AddItem(cups(3, 50, -4))

	assert.Equal(t, 1, l.GetItemQuantity(2))
	assert.Equal(t, 1, l.GetItemQuantity(3))
	for _, it := range l.Items() {
		assert.Equal(t, 1, it.PackageSize)
	}
}

func TestDecreaseItem_SingleStepRemovesPackage(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(cups(2, 50, 6))
	l.DecreaseItem(2)

	assert.False(t, l.IsInCart(2))
	assert.Empty(t, l.Items())
	assert.Equal(t, domain.Totals{}, l.Totals())
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	a := New(testPolicy())
	a.AddItem(drink(1, 100))
	a.AddItem(drink(3, 40))
	a.UpdateQuantity(1, 0)

	b := New(testPolicy())
	b.AddItem(drink(1, 100))
	b.AddItem(drink(3, 40))
	b.RemoveItem(1)

	assert.False(t, a.IsInCart(1))
	assert.Equal(t, b.Snapshot(), a.Snapshot())
}

func TestDelivery_FreeAboveThreshold(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(drink(1, 60000))

	tot := l.Totals()
	assert.Equal(t, int64(60000), tot.Subtotal)
	assert.Zero(t, tot.DeliveryCost)
	assert.Equal(t, tot.Subtotal, tot.Total)
}

func TestDelivery_ThresholdIsExclusive(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(drink(1, 50000))

	assert.Equal(t, int64(500), l.Totals().DeliveryCost)
	assert.Equal(t, int64(50500), l.Totals().Total)
}

func TestDelivery_EmptyCartPaysNothing(t *testing.T) {
	l := New(testPolicy())
	assert.Equal(t, domain.Totals{}, l.Totals())

	l.AddItem(drink(1, 100))
	assert.Equal(t, int64(500), l.Totals().DeliveryCost)

	l.RemoveItem(1)
	assert.Equal(t, domain.Totals{}, l.Totals())
}

// --- Mutations ---

func TestIncreaseItem_UsesStep(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(cups(2, 50, 6))
	l.AddItem(drink(1, 100))

	l.IncreaseItem(2)
	l.IncreaseItem(1)

	assert.Equal(t, 12, l.GetItemQuantity(2))
	assert.Equal(t, 2, l.GetItemQuantity(1))
	assertConsistent(t, l)
}

func TestUpdateQuantity_IgnoresStep(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(cups(2, 50, 6))
	l.UpdateQuantity(2, 7)

	assert.Equal(t, 7, l.GetItemQuantity(2))
	assert.Equal(t, int64(350), l.Totals().Subtotal)
}

func TestUnknownProduct_IsNoOp(t *testing.T) {
	rec := &recorder{}
	l := New(testPolicy(), rec)
	l.AddItem(drink(1, 100))
	before := l.Snapshot()

	l.IncreaseItem(99)
	l.DecreaseItem(99)
	l.RemoveItem(99)
	l.UpdateQuantity(99, 5)
	l.UpdateQuantity(99, 0)

	assert.Equal(t, before, l.Snapshot())
	assert.Len(t, rec.snapshots, 1)
}

func TestDecreaseItem_BoundaryIsCeilOfQuantityOverStep(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		size     int
		calls    int
	}{
		{"exact multiple", 12, 6, 2},
		{"override above step", 7, 6, 2},
		{"override below step", 5, 6, 1},
		{"unit step", 3, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(testPolicy())
			l.AddItem(cups(2, 50, tt.size))
			l.UpdateQuantity(2, tt.quantity)

			for i := 0; i < tt.calls-1; i++ {
				l.DecreaseItem(2)
				require.True(t, l.IsInCart(2), "removed after %d calls", i+1)
				assert.Positive(t, l.GetItemQuantity(2))
			}
			l.DecreaseItem(2)
			assert.False(t, l.IsInCart(2))
		})
	}
}

func TestClearCart_IsTotal(t *testing.T) {
	l := New(testPolicy())
	l.AddItem(drink(1, 100))
	l.AddItem(cups(2, 50, 6))
	l.ReplayOrder([]domain.OrderLine{{ProductID: 7, Title: "Квас", Price: 90, Quantity: 2}})

	l.ClearCart()

	for _, id := range []int64{1, 2, 7, 42} {
		assert.Zero(t, l.GetItemQuantity(id))
		assert.False(t, l.IsInCart(id))
	}
	assert.Equal(t, domain.Totals{}, l.Totals())
	assert.NotNil(t, l.Items())
	assert.Empty(t, l.Items())
}

func TestTotals_IndependentMutationsCommute(t *testing.T) {
	ops := map[string]func(l *Ledger){
		"add drink":    func(l *Ledger) { l.AddItem(drink(1, 120)) },
		"add cups":     func(l *Ledger) { l.AddItem(cups(2, 35, 6)) },
		"add kvass":    func(l *Ledger) { l.AddItem(drink(3, 90)) },
		"bump kvass":   func(l *Ledger) { l.UpdateQuantity(3, 4) },
		"add water":    func(l *Ledger) { l.AddItem(drink(4, 25000)) },
		"another cups": func(l *Ledger) { l.AddItem(cups(5, 10, 12)) },
	}
	forward := []string{"add drink", "add cups", "add kvass", "bump kvass", "add water", "another cups"}
	shuffled := []string{"another cups", "add kvass", "add water", "bump kvass", "add cups", "add drink"}

	a := New(testPolicy())
	for _, name := range forward {
		ops[name](a)
		assertConsistent(t, a)
	}
	b := New(testPolicy())
	for _, name := range shuffled {
		ops[name](b)
		assertConsistent(t, b)
	}

	assert.Equal(t, a.Totals(), b.Totals())
	assert.ElementsMatch(t, a.Items(), b.Items())
}

// --- Observers ---

func TestObserver_CalledAfterEveryMutation(t *testing.T) {
	rec := &recorder{}
	l := New(testPolicy(), rec)

	l.AddItem(drink(1, 100))
	l.IncreaseItem(1)
	l.DecreaseItem(1)
	l.UpdateQuantity(1, 5)
	l.RemoveItem(1)
	l.ClearCart()

	require.Len(t, rec.snapshots, 6)
	assert.Equal(t, 1, rec.snapshots[0].TotalItems)
	assert.Equal(t, 2, rec.snapshots[1].TotalItems)
	assert.Equal(t, 5, rec.snapshots[3].TotalItems)
	assert.True(t, rec.snapshots[4].IsEmpty())
}

func TestObserver_SnapshotIsDetached(t *testing.T) {
	var got domain.Snapshot
	l := New(testPolicy(), ObserverFunc(func(s domain.Snapshot) { got = s }))
	l.AddItem(drink(1, 100))

	got.Items[0].Quantity = 99
	assert.Equal(t, 1, l.GetItemQuantity(1))
}

func TestObserve_AddsObserver(t *testing.T) {
	calls := 0
	l := New(testPolicy())
	l.Observe(ObserverFunc(func(domain.Snapshot) { calls++ }))
	l.AddItem(drink(1, 100))
	assert.Equal(t, 1, calls)
}

// --- Snapshot / Restore ---

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	states := map[string]func(l *Ledger){
		"empty":  func(l *Ledger) {},
		"single": func(l *Ledger) { l.AddItem(drink(1, 100)) },
		"multi": func(l *Ledger) {
			l.AddItem(drink(1, 100))
			l.AddItem(cups(2, 50, 6))
			l.UpdateQuantity(1, 9)
		},
		"post replay": func(l *Ledger) {
			l.AddItem(drink(1, 100))
			l.ReplayOrder([]domain.OrderLine{
				{ProductID: 1, Title: "Чалап", Price: 100, Quantity: 3},
				{ProductID: 8, Title: "Вода питьевая", Price: 30, Quantity: 12, PackageSize: 12},
			})
		},
	}

	for name, build := range states {
		t.Run(name, func(t *testing.T) {
			src := New(testPolicy())
			build(src)
			snap := src.Snapshot()

			rec := &recorder{}
			dst := New(testPolicy(), rec)
			dst.Restore(snap)

			assert.Equal(t, snap, dst.Snapshot())
			assert.Empty(t, rec.snapshots)
		})
	}
}

func TestRestore_DropsInvalidLinesAndRecomputes(t *testing.T) {
	l := New(testPolicy())
	l.Restore(domain.Snapshot{
		Items: []domain.LineItem{
			{ProductID: 1, UnitPrice: 100, Quantity: 2, PackageSize: 0},
			{ProductID: 2, UnitPrice: 50, Quantity: 0},
			{ProductID: 1, UnitPrice: 100, Quantity: 7},
			{ProductID: 3, UnitPrice: 10, Quantity: -1},
		},
		Totals: domain.Totals{TotalItems: 1000, Subtotal: 1, Total: 1},
	})

	require.Len(t, l.Items(), 1)
	assert.Equal(t, 2, l.GetItemQuantity(1))
	assert.Equal(t, 1, l.Items()[0].PackageSize)
	assert.Equal(t, domain.Totals{TotalItems: 2, Subtotal: 200, DeliveryCost: 500, Total: 700}, l.Totals())
}
