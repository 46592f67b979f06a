package domain

import (
	"strings"
	"time"
)

// PaymentMethod is the customer-facing payment choice.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "наличные"
	PaymentTransfer    PaymentMethod = "перечисление"
	PaymentConsignment PaymentMethod = "консигнация"
)

var paymentCodes = map[PaymentMethod]int{
	PaymentCash:        0,
	PaymentTransfer:    1,
	PaymentConsignment: 2,
}

// ParsePaymentMethod accepts the method name in any letter case.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	_, ok := paymentCodes[m]
	return m, ok
}

// Code is the numeric payment type understood by the commerce API.
func (m PaymentMethod) Code() int {
	return paymentCodes[m]
}

// Customer holds the delivery contact of an order.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Order is a placed order as kept in the local history.
type Order struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	RemoteRef    string        `json:"remote_ref,omitempty"`
	Customer     Customer      `json:"customer"`
	DeliveryDate string        `json:"delivery_date"`
	Payment      PaymentMethod `json:"payment"`
	Comment      string        `json:"comment,omitempty"`
	Items        []OrderLine   `json:"items"`
	Subtotal     int64         `json:"subtotal"`
	DeliveryCost int64         `json:"delivery_cost"`
	Total        int64         `json:"total"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ItemCount is the sum of line quantities.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}
