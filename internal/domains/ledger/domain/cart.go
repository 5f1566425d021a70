package domain

import "github.com/shopspring/decimal"

// CartLine snapshots the product name and price at the time it entered the cart.
type CartLine struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per product, in insertion order.
type Cart struct {
	lines []CartLine
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []CartLine {
	if c == nil || len(c.lines) == 0 {
		return nil
	}
	return append([]CartLine(nil), c.lines...)
}

// Line looks up the line for a product.
func (c *Cart) Line(productID string) (CartLine, bool) {
	if idx := c.index(productID); idx >= 0 {
		return c.lines[idx], true
	}
	return CartLine{}, false
}

// Add puts qty units of product in the cart, merging with an existing line.
// The cumulative quantity may never exceed the product's live stock.
func (c *Cart) Add(product *Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if product == nil {
		return ErrProductNotFound
	}
	if product.Stock <= 0 {
		return ErrOutOfStock
	}
	idx := c.index(product.ID)
	current := 0
	if idx >= 0 {
		current = c.lines[idx].Quantity
	}
	if current+qty > product.Stock {
		return insufficient(Shortfall{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   current + qty,
			Available:   product.Stock,
		})
	}
	if idx >= 0 {
		c.lines[idx].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, CartLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    qty,
	})
	return nil
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero or less removes it;
// a missing line is left alone.
func (c *Cart) SetQuantity(product *Product, productID string, qty int) error {
	idx := c.index(productID)
	if idx < 0 {
		return nil
	}
	if qty <= 0 {
		c.removeAt(idx)
		return nil
	}
	if product == nil {
		return ErrProductNotFound
	}
	if qty > product.Stock {
		return insufficient(Shortfall{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   qty,
			Available:   product.Stock,
		})
	}
	c.lines[idx].Quantity = qty
	return nil
}

// Remove drops the line for a product and reports whether one existed.
func (c *Cart) Remove(productID string) bool {
	idx := c.index(productID)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	return true
}

// Retain keeps only lines whose product passes keep.
func (c *Cart) Retain(keep func(productID string) bool) {
	kept := c.lines[:0]
	for _, line := range c.lines {
		if keep(line.ProductID) {
			kept = append(kept, line)
		}
	}
	c.lines = kept
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.lines) == 0
}

// Total sums every line subtotal.
func (c *Cart) Total() decimal.Decimal {
	return ComputeTotal(c.Lines())
}

// Clone returns an independent copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return NewCart()
	}
	return &Cart{lines: c.Lines()}
}

func (c *Cart) index(productID string) int {
	if c == nil {
		return -1
	}
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}

// CheckStock verifies every line can be served by the given product catalog.
// Lines for unknown products count as zero available.
func CheckStock(lookup func(productID string) *Product, items []CartLine) error {
	var shortfalls []Shortfall
	for _, item := range items {
		available := 0
		name := item.ProductName
		if product := lookup(item.ProductID); product != nil {
			available = product.Stock
			name = product.Name
		}
		if available < item.Quantity {
			shortfalls = append(shortfalls, Shortfall{
				ProductID:   item.ProductID,
				ProductName: name,
				Requested:   item.Quantity,
				Available:   available,
			})
		}
	}
	if len(shortfalls) > 0 {
		return insufficient(shortfalls...)
	}
	return nil
}
