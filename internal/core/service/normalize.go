package service

import (
	"sort"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

// normalizeCart maps the remote cart payload to rendered lines. Zero-quantity
// lines and lines without a product are dropped, and duplicate products are
// folded into their first occurrence.
func normalizeCart(p *ports.CartPayload) []domain.CartLine {
	if p == nil {
		return nil
	}

	lines := make([]domain.CartLine, 0, len(p.Items))
	index := make(map[string]int, len(p.Items))
	for _, it := range p.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.ProductID]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(lines)
		lines = append(lines, domain.CartLine{
			LineID:      it.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
			DisplayName: it.ProductName,
			ImageRef:    it.ImageURL,
			UnitLabel:   it.Unit,
			SellerName:  it.Farmer,
		})
	}
	return lines
}

// overlay applies one pending intent on top of lines and returns a new slice.
// Server-owned fields of an existing line are kept; only the quantity changes.
func overlay(lines []domain.CartLine, m domain.PendingMutation) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines)+1)
	found := false
	for _, l := range lines {
		if l.ProductID != m.TargetProductID {
			out = append(out, l)
			continue
		}
		found = true
		if m.DesiredQuantity > 0 {
			l.Quantity = m.DesiredQuantity
			out = append(out, l)
		}
	}
	if !found && m.DesiredQuantity > 0 {
		line := m.Line
		line.Quantity = m.DesiredQuantity
		out = append(out, line)
	}
	return out
}

// overlayAll applies pending intents in the order they were issued.
func overlayAll(lines []domain.CartLine, pending map[string]domain.PendingMutation) []domain.CartLine {
	out := append([]domain.CartLine(nil), lines...)
	if len(pending) == 0 {
		return out
	}
	ordered := make([]domain.PendingMutation, 0, len(pending))
	for _, m := range pending {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AppliedAt < ordered[j].AppliedAt })
	for _, m := range ordered {
		out = overlay(out, m)
	}
	return out
}
