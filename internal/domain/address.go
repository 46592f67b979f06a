package domain

import (
	"strings"
	"time"
)

// MaxAddresses caps the saved delivery addresses per customer.
const MaxAddresses = 20

// Address is a saved delivery address. A customer has at most one default.
type Address struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	Village     string    `json:"village"`
	Street      string    `json:"street"`
	FullAddress string    `json:"full_address"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}

// JoinAddress renders the non-blank parts, comma separated, in
// city, district, village, street order.
func JoinAddress(city, district, village, street string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{city, district, village, street} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Normalize trims every part and recomputes FullAddress.
func (a *Address) Normalize() {
	a.City = strings.TrimSpace(a.City)
	a.District = strings.TrimSpace(a.District)
	a.Village = strings.TrimSpace(a.Village)
	a.Street = strings.TrimSpace(a.Street)
	a.FullAddress = JoinAddress(a.City, a.District, a.Village, a.Street)
}
