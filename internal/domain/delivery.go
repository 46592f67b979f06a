package domain

// Default delivery terms in minor units: free above 50 000 som, else 500 som.
const (
	DefaultFreeDeliveryThreshold int64 = 5_000_000
	DefaultDeliveryFee           int64 = 50_000
)

// DeliveryPolicy prices delivery from the cart subtotal.
type DeliveryPolicy struct {
	// FreeThreshold is exclusive: a subtotal equal to it still pays Fee.
	FreeThreshold int64
	Fee           int64
}

// DefaultDeliveryPolicy returns the standard delivery terms.
func DefaultDeliveryPolicy() DeliveryPolicy {
	return DeliveryPolicy{FreeThreshold: DefaultFreeDeliveryThreshold, Fee: DefaultDeliveryFee}
}

// Cost returns the delivery charge for a non-empty cart.
func (p DeliveryPolicy) Cost(subtotal int64) int64 {
	if subtotal > p.FreeThreshold {
		return 0
	}
	return p.Fee
}
