package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item with a live stock count.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Stock    int
	Category string
	SKU      string
	ImageURL string
	// Version increments on every persisted change.
	Version int64
}

// ProductPatch carries the fields to merge into an existing product. Nil fields are left untouched.
type ProductPatch struct {
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
	Category *string          `json:"category,omitempty"`
	SKU      *string          `json:"sku,omitempty"`
	ImageURL *string          `json:"imageUrl,omitempty"`
}

// Product field names used for patch bookkeeping.
const (
	FieldName     = "name"
	FieldPrice    = "price"
	FieldStock    = "stock"
	FieldCategory = "category"
	FieldSKU      = "sku"
	FieldImageURL = "imageUrl"
)

// NewProduct builds a normalized product, generating an id when none is supplied.
func NewProduct(id, name string, price decimal.Decimal, stock int) *Product {
	p := &Product{ID: strings.TrimSpace(id), Name: name, Price: price, Stock: stock}
	p.Normalize()
	return p
}

// NewProductID returns a fresh product identifier.
func NewProductID() string {
	return uuid.NewString()
}

// Normalize clamps numeric fields and assigns an id when missing.
func (p *Product) Normalize() {
	if p.ID == "" {
		p.ID = NewProductID()
	}
	p.Price = ClampPrice(p.Price)
	p.Stock = ClampStock(p.Stock)
}

// Apply merges a patch into the product.
func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = ClampPrice(*patch.Price)
	}
	if patch.Stock != nil {
		p.Stock = ClampStock(*patch.Stock)
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
}

// DecrementStock removes qty units, never going below zero.
func (p *Product) DecrementStock(qty int) {
	p.Stock = ClampStock(p.Stock - qty)
}

// StockValue is price multiplied by the units on hand.
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}

// Matches reports whether the product name, sku or category contains the query (case-insensitive).
func (p *Product) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{p.Name, p.SKU, p.Category} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Fields lists the product fields a patch touches.
func (patch ProductPatch) Fields() []string {
	var fields []string
	if patch.Name != nil {
		fields = append(fields, FieldName)
	}
	if patch.Price != nil {
		fields = append(fields, FieldPrice)
	}
	if patch.Stock != nil {
		fields = append(fields, FieldStock)
	}
	if patch.Category != nil {
		fields = append(fields, FieldCategory)
	}
	if patch.SKU != nil {
		fields = append(fields, FieldSKU)
	}
	if patch.ImageURL != nil {
		fields = append(fields, FieldImageURL)
	}
	return fields
}

// IsEmpty reports whether the patch changes nothing.
func (patch ProductPatch) IsEmpty() bool {
	return len(patch.Fields()) == 0
}

// Normalized returns a copy of the patch with numeric fields clamped.
func (patch ProductPatch) Normalized() ProductPatch {
	if patch.Price != nil {
		price := ClampPrice(*patch.Price)
		patch.Price = &price
	}
	if patch.Stock != nil {
		stock := ClampStock(*patch.Stock)
		patch.Stock = &stock
	}
	return patch
}

// CopyField copies a single named field from src into p.
func (p *Product) CopyField(field string, src *Product) {
	switch field {
	case FieldName:
		p.Name = src.Name
	case FieldPrice:
		p.Price = src.Price
	case FieldStock:
		p.Stock = src.Stock
	case FieldCategory:
		p.Category = src.Category
	case FieldSKU:
		p.SKU = src.SKU
	case FieldImageURL:
		p.ImageURL = src.ImageURL
	}
}

// ClampStock returns stock limited to zero or more.
func ClampStock(stock int) int {
	if stock < 0 {
		return 0
	}
	return stock
}

// ClampPrice returns price limited to zero or more.
func ClampPrice(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// ParsePrice coerces free-form input into a price. Missing or unparsable input yields zero.
func ParsePrice(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return ClampPrice(price)
}

// ParseStock coerces free-form input into a stock count. Fractions are truncated,
// missing or unparsable input yields zero.
func ParseStock(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	return ClampStock(int(value.IntPart()))
}
