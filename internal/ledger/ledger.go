// Package ledger holds a customer's cart: the line items, the quantity
// rules that mutate them and the totals derived from them.
//
// A Ledger is not safe for concurrent use; callers serialise access.
package ledger

import "github.com/Fanatic033/shoro-market/internal/domain"

// Observer is told about every mutation, after totals are recomputed.
type Observer interface {
	CartChanged(snapshot domain.Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(domain.Snapshot)

// CartChanged calls f.
func (f ObserverFunc) CartChanged(s domain.Snapshot) { f(s) }

// Policy is the pricing and quantity context a ledger computes with.
type Policy struct {
	Steps    domain.StepRule
	Delivery domain.DeliveryPolicy
	Images   domain.ImageResolver
}

// DefaultPolicy uses the default packaged keywords, delivery terms and images.
func DefaultPolicy() Policy {
	return Policy{
		Steps:    domain.NewStepRule(nil),
		Delivery: domain.DefaultDeliveryPolicy(),
		Images:   domain.DefaultImageResolver,
	}
}

// Ledger is the cart aggregate. Product ids are unique within it and every
// stored quantity is positive and at most domain.MaxLineQuantity.
type Ledger struct {
	policy    Policy
	items     []domain.LineItem
	totals    domain.Totals
	observers []Observer
}

// New returns an empty ledger.
func New(policy Policy, observers ...Observer) *Ledger {
	if policy.Images == nil {
		policy.Images = domain.DefaultImageResolver
	}
	return &Ledger{
		policy:    policy,
		items:     []domain.LineItem{},
		observers: observers,
	}
}

// Observe registers another observer.
func (l *Ledger) Observe(o Observer) {
	l.observers = append(l.observers, o)
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// AddItem puts one step of product into the cart, merging with an existing
// line of the same product. A step that would pass the line cap is ignored.
func (l *Ledger) AddItem(p domain.Product) {
	if !l.CanAdd(p) {
		return
	}
	packageSize := domain.NormalizePackageSize(p.PackageSize)
	step := l.policy.Steps.Step(p.Category, packageSize)

	if i := l.indexOf(p.ProductID); i >= 0 {
		l.items[i].Quantity += step
	} else {
		l.items = append(l.items, domain.LineItem{
			ProductID:   p.ProductID,
			GUID:        p.GUID,
			Title:       p.Title,
			UnitPrice:   p.UnitPrice,
			OldPrice:    p.OldPrice,
			URL:         p.URL,
			Quantity:    step,
			Category:    p.Category,
			PackageSize: packageSize,
			ImageRef:    p.ImageRef,
		})
	}
	l.changed()
}

// IncreaseItem adds one step to the line. Unknown ids and steps that would
// pass the line cap are ignored.
func (l *Ledger) IncreaseItem(productID int64) {
	i := l.indexOf(productID)
	if i < 0 || !l.CanIncrease(productID) {
		return
	}
	l.items[i].Quantity += l.stepOf(l.items[i])
	l.changed()
}

// DecreaseItem removes one step from the line, dropping the line when
// nothing positive is left. Unknown ids are ignored.
func (l *Ledger) DecreaseItem(productID int64) {
	i := l.indexOf(productID)
	if i < 0 {
		return
	}
	if q := l.items[i].Quantity - l.stepOf(l.items[i]); q > 0 {
		l.items[i].Quantity = q
	} else {
		l.removeAt(i)
	}
	l.changed()
}

// UpdateQuantity sets the line's quantity verbatim, ignoring the step.
// A quantity of zero or less removes the line; one above the line cap is
// lowered to it.
func (l *Ledger) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		l.RemoveItem(productID)
		return
	}
	i := l.indexOf(productID)
	if i < 0 {
		return
	}
	l.items[i].Quantity = capQuantity(quantity)
	l.changed()
}

// RemoveItem deletes the line. Unknown ids are ignored.
func (l *Ledger) RemoveItem(productID int64) {
	i := l.indexOf(productID)
	if i < 0 {
		return
	}
	l.removeAt(i)
	l.changed()
}

// ClearCart empties the cart and zeroes every total.
func (l *Ledger) ClearCart() {
	l.items = []domain.LineItem{}
	l.changed()
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// GetItemQuantity returns the stored quantity, or 0 when absent.
func (l *Ledger) GetItemQuantity(productID int64) int {
	if i := l.indexOf(productID); i >= 0 {
		return l.items[i].Quantity
	}
	return 0
}

// CanAdd reports whether one step of p fits under the line cap.
func (l *Ledger) CanAdd(p domain.Product) bool {
	step := l.policy.Steps.Step(p.Category, domain.NormalizePackageSize(p.PackageSize))
	return l.GetItemQuantity(p.ProductID)+step <= domain.MaxLineQuantity
}

// CanIncrease reports whether one more step fits on an existing line.
// It is false for unknown ids.
func (l *Ledger) CanIncrease(productID int64) bool {
	i := l.indexOf(productID)
	if i < 0 {
		return false
	}
	return l.items[i].Quantity+l.stepOf(l.items[i]) <= domain.MaxLineQuantity
}

// IsInCart reports whether a line for productID exists.
func (l *Ledger) IsInCart(productID int64) bool {
	return l.indexOf(productID) >= 0
}

// Items returns a copy of the lines in insertion order.
func (l *Ledger) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Totals returns the derived totals.
func (l *Ledger) Totals() domain.Totals {
	return l.totals
}

// Snapshot returns a detached copy of the cart.
func (l *Ledger) Snapshot() domain.Snapshot {
	return domain.Snapshot{Items: l.Items(), Totals: l.totals}
}

// Restore replaces the contents with a persisted snapshot. Lines with a
// non-positive quantity or a repeated product id are dropped, quantities
// above the line cap are lowered to it, package sizes are normalised and
// totals are recomputed rather than trusted. Observers are not notified.
func (l *Ledger) Restore(s domain.Snapshot) {
	items := make([]domain.LineItem, 0, len(s.Items))
	seen := make(map[int64]struct{}, len(s.Items))
	for _, it := range s.Items {
		if it.Quantity <= 0 {
			continue
		}
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		it.Quantity = capQuantity(it.Quantity)
		it.PackageSize = domain.NormalizePackageSize(it.PackageSize)
		items = append(items, it)
	}
	l.items = items
	l.updateCalculations()
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

func (l *Ledger) indexOf(productID int64) int {
	for i := range l.items {
		if l.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (l *Ledger) removeAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
}

func capQuantity(q int) int {
	return min(q, domain.MaxLineQuantity)
}

// stepOf recomputes the step from the line's stored fields.
func (l *Ledger) stepOf(it domain.LineItem) int {
	return l.policy.Steps.Step(it.Category, it.PackageSize)
}

// updateCalculations recomputes every total from the item list.
func (l *Ledger) updateCalculations() {
	var t domain.Totals
	for _, it := range l.items {
		t.TotalItems += it.Quantity
		t.Subtotal += it.LineTotal()
	}
	if len(l.items) > 0 {
		t.DeliveryCost = l.policy.Delivery.Cost(t.Subtotal)
	}
	t.Total = t.Subtotal + t.DeliveryCost
	l.totals = t
}

func (l *Ledger) changed() {
	l.updateCalculations()
	if len(l.observers) == 0 {
		return
	}
	snap := l.Snapshot()
	for _, o := range l.observers {
		o.CartChanged(snap)
	}
}
