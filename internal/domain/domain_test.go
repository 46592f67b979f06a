package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// DeliveryPolicy
// ============================================================================

func TestDeliveryPolicy_Cost(t *testing.T) {
	p := DeliveryPolicy{FreeThreshold: 50000, Fee: 500}

	assert.Equal(t, int64(500), p.Cost(1))
	assert.Equal(t, int64(500), p.Cost(50000), "threshold itself is not free")
	assert.Equal(t, int64(0), p.Cost(50001))
}

func TestDefaultDeliveryPolicy(t *testing.T) {
	p := DefaultDeliveryPolicy()
	assert.Equal(t, DefaultFreeDeliveryThreshold, p.FreeThreshold)
	assert.Equal(t, DefaultDeliveryFee, p.Fee)
}

// ============================================================================
// ImageResolver
// ============================================================================

func TestDefaultImageResolver(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Квас Шоро 1л", "images/shoro.png"},
		{"ТАН газированный", "images/shoro1.png"},
		{"Вода питьевая", "images/shoro2.png"},
		{"Легенда 0.5", "images/shoro2.png"},
		{"Стакан бумажный", "images/shoro1.png"},
		{"Чалап", DefaultImage},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultImageResolver(tt.title))
		})
	}
}

func TestKeywordImageResolver_FirstRuleWins(t *testing.T) {
	resolve := KeywordImageResolver([]ImageRule{
		{Keywords: []string{"a"}, Image: "first"},
		{Keywords: []string{"ab"}, Image: "second"},
	}, "none")

	assert.Equal(t, "first", resolve("AB"))
	assert.Equal(t, "none", resolve("xyz"))
}

// ============================================================================
// Lines and orders
// ============================================================================

func TestLineItem_LineTotal(t *testing.T) {
	assert.Equal(t, int64(3000), LineItem{UnitPrice: 1000, Quantity: 3}.LineTotal())
}

func TestOrderLinesFromItems(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, GUID: "g-1", Title: "Квас", UnitPrice: 5500, Quantity: 2, Category: "Напитки", PackageSize: 1, ImageRef: "images/shoro.png"},
	}

	lines := OrderLinesFromItems(items)

	assert.Equal(t, []OrderLine{
		{ProductID: 1, GUID: "g-1", Title: "Квас", Price: 5500, Quantity: 2, Category: "Напитки", PackageSize: 1, ImageRef: "images/shoro.png"},
	}, lines)
	assert.NotNil(t, OrderLinesFromItems(nil))
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod(" Наличные ")
	assert.True(t, ok)
	assert.Equal(t, PaymentCash, m)
	assert.Equal(t, 0, m.Code())

	m, ok = ParsePaymentMethod("перечисление")
	assert.True(t, ok)
	assert.Equal(t, 1, m.Code())

	m, ok = ParsePaymentMethod("консигнация")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Code())

	_, ok = ParsePaymentMethod("bitcoin")
	assert.False(t, ok)
}

func TestOrder_ItemCount(t *testing.T) {
	o := &Order{Items: []OrderLine{{Quantity: 2}, {Quantity: 6}}}
	assert.Equal(t, 8, o.ItemCount())
}

func TestSnapshot_IsEmpty(t *testing.T) {
	assert.True(t, Snapshot{}.IsEmpty())
	assert.False(t, Snapshot{Items: []LineItem{{ProductID: 1, Quantity: 1}}}.IsEmpty())
}

// ============================================================================
// Address
// ============================================================================

func TestJoinAddress(t *testing.T) {
	tests := []struct {
		name                            string
		city, district, village, street string
		want                            string
	}{
		{"all parts", "Бишкек", "Первомайский", "Ала-Арча", "Чуй 120", "Бишкек, Первомайский, Ала-Арча, Чуй 120"},
		{"blanks skipped", "Бишкек", "", "  ", "Чуй 120", "Бишкек, Чуй 120"},
		{"nothing", "", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinAddress(tt.city, tt.district, tt.village, tt.street))
		})
	}
}

func TestAddress_Normalize(t *testing.T) {
	a := Address{City: " Ош ", Street: "Ленина 5 ", FullAddress: "stale"}
	a.Normalize()

	assert.Equal(t, "Ош", a.City)
	assert.Equal(t, "Ленина 5", a.Street)
	assert.Equal(t, "Ош, Ленина 5", a.FullAddress)
}
