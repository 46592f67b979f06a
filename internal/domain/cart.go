package domain

// MaxLineQuantity caps the quantity of a single cart line. It keeps line
// totals well inside int64 for any catalog price.
const MaxLineQuantity = 100_000

// LineItem is one product held in a cart. Quantity is always positive;
// a line whose quantity would drop to zero is removed instead.
type LineItem struct {
	ProductID   int64  `json:"product_id"`
	GUID        string `json:"guid,omitempty"`
	Title       string `json:"title"`
	UnitPrice   int64  `json:"unit_price"`
	OldPrice    int64  `json:"old_price,omitempty"`
	URL         string `json:"url,omitempty"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category"`
	PackageSize int    `json:"package_size"`
	ImageRef    string `json:"image_ref,omitempty"`
}

// LineTotal is UnitPrice × Quantity in minor units.
func (i LineItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Totals are derived from the item list and never set directly.
type Totals struct {
	TotalItems   int   `json:"total_items"`
	Subtotal     int64 `json:"subtotal"`
	DeliveryCost int64 `json:"delivery_cost"`
	Total        int64 `json:"total"`
}

// Snapshot is the persisted and wire form of a cart.
type Snapshot struct {
	Items []LineItem `json:"items"`
	Totals
}

// IsEmpty reports whether the snapshot holds no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Product is a catalog record as consumed by the cart.
type Product struct {
	ProductID   int64  `json:"id"`
	GUID        string `json:"guid,omitempty"`
	Title       string `json:"title"`
	UnitPrice   int64  `json:"price"`
	OldPrice    int64  `json:"old_price,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category"`
	PackageSize int    `json:"package_size"`
	ImageRef    string `json:"image,omitempty"`
	InStock     bool   `json:"in_stock"`
}

// OrderLine is one line of a previously placed order. Quantity is absolute,
// not a multiple of any step.
type OrderLine struct {
	ProductID   int64  `json:"product_id"`
	GUID        string `json:"guid,omitempty"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category,omitempty"`
	PackageSize int    `json:"package_size,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
}

// OrderLinesFromItems converts cart lines into order lines.
func OrderLinesFromItems(items []LineItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderLine{
			ProductID:   it.ProductID,
			GUID:        it.GUID,
			Title:       it.Title,
			Price:       it.UnitPrice,
			Quantity:    it.Quantity,
			Category:    it.Category,
			PackageSize: it.PackageSize,
			ImageRef:    it.ImageRef,
		})
	}
	return lines
}
