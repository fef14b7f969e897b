package domain

import "time"

// Product is the catalogue entry a cart line refers to.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	ImageURL    string  `json:"image_url"`
	Farmer      string  `json:"farmer"`
	Rating      float64 `json:"rating,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
}

// CartLine is one product row of the rendered cart.
// LineID is empty while the line only exists optimistically.
// The display fields are denormalized from the server payload and never used for pricing.
type CartLine struct {
	LineID      string  `json:"line_id,omitempty"`
	ProductID   string  `json:"product_id"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	DisplayName string  `json:"display_name"`
	ImageRef    string  `json:"image_ref,omitempty"`
	UnitLabel   string  `json:"unit_label,omitempty"`
	SellerName  string  `json:"seller_name,omitempty"`
}

// Persisted reports whether the remote store has assigned the line an id.
func (l CartLine) Persisted() bool { return l.LineID != "" }

// LineFromProduct builds an unpersisted line for p.
func LineFromProduct(p Product, quantity int) CartLine {
	return CartLine{
		ProductID:   p.ID,
		Quantity:    quantity,
		UnitPrice:   p.Price,
		DisplayName: p.Name,
		ImageRef:    p.ImageURL,
		UnitLabel:   p.Unit,
		SellerName:  p.Farmer,
	}
}

// CartSnapshot is an immutable copy of cart lines.
// Version increases every time server truth is applied.
type CartSnapshot struct {
	Lines      []CartLine `json:"lines"`
	Version    uint64     `json:"version"`
	CapturedAt time.Time  `json:"captured_at"`
}

// ItemCount is the sum of all line quantities (the cart badge).
func (s CartSnapshot) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the display-only total of the snapshot.
func (s CartSnapshot) Subtotal() float64 {
	var total float64
	for _, l := range s.Lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// LineByID returns the line with the given server id.
func (s CartSnapshot) LineByID(lineID string) (CartLine, bool) {
	for _, l := range s.Lines {
		if l.LineID != "" && l.LineID == lineID {
			return l, true
		}
	}
	return CartLine{}, false
}

// LineByProduct returns the line for productID.
func (s CartSnapshot) LineByProduct(productID string) (CartLine, bool) {
	for _, l := range s.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s CartSnapshot) Clone() CartSnapshot {
	out := s
	out.Lines = append([]CartLine(nil), s.Lines...)
	return out
}

// MutationKind enumerates the cart mutations.
type MutationKind string

const (
	MutationAdd         MutationKind = "add"
	MutationSetQuantity MutationKind = "set_quantity"
	MutationRemove      MutationKind = "remove"
)

// PendingMutation is an optimistic change awaiting confirmation.
// AppliedAt is the store-wide sequence number used to discard superseded responses.
type PendingMutation struct {
	ID              string
	Kind            MutationKind
	TargetLineID    string
	TargetProductID string
	DesiredQuantity int
	AppliedAt       uint64
	// Line carries the display fields used when the line has to be re-inserted.
	Line CartLine
}
