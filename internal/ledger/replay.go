package ledger

import "github.com/Fanatic033/shoro-market/internal/domain"

// ReplayOrder folds the lines of a past order into the cart. Quantities are
// added verbatim, without step rounding, and lines are not checked against
// the live catalog. Merged quantities are held at the line cap. Lines with
// a non-positive quantity are skipped. Totals are recomputed and observers
// notified once, after the last line.
func (l *Ledger) ReplayOrder(lines []domain.OrderLine) {
	applied := 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		applied++

		if i := l.indexOf(line.ProductID); i >= 0 {
			l.items[i].Quantity = capQuantity(l.items[i].Quantity + line.Quantity)
			if l.items[i].ImageRef == "" {
				l.items[i].ImageRef = l.imageFor(line)
			}
			continue
		}

		l.items = append(l.items, domain.LineItem{
			ProductID:   line.ProductID,
			GUID:        line.GUID,
			Title:       line.Title,
			UnitPrice:   line.Price,
			Quantity:    capQuantity(line.Quantity),
			Category:    line.Category,
			PackageSize: domain.NormalizePackageSize(line.PackageSize),
			ImageRef:    l.imageFor(line),
		})
	}

	if applied > 0 {
		l.changed()
	}
}

func (l *Ledger) imageFor(line domain.OrderLine) string {
	if line.ImageRef != "" {
		return line.ImageRef
	}
	return l.policy.Images(line.Title)
}
