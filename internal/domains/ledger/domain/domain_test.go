package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widget(stock int) *Product {
	return NewProduct("p1", "Widget", decimal.NewFromInt(10), stock)
}

func TestNewProduct_NormalizesAndAssignsID(t *testing.T) {
	p := NewProduct("", "Gadget", decimal.NewFromInt(-3), -2)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.Price.IsZero())
	assert.Equal(t, 0, p.Stock)
}

func TestParseHelpers_CoerceInvalidToZero(t *testing.T) {
	assert.True(t, ParsePrice("abc").IsZero())
	assert.True(t, ParsePrice("").IsZero())
	assert.True(t, ParsePrice("12.50").Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 0, ParseStock("x"))
	assert.Equal(t, 3, ParseStock("3.9"))
	assert.Equal(t, 0, ParseStock("-4"))
}

func TestProductApply_ClampsPatchedNumbers(t *testing.T) {
	p := widget(5)
	stock := -1
	name := "Widget XL"
	p.Apply(ProductPatch{Stock: &stock, Name: &name})
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, "Widget XL", p.Name)
	assert.Equal(t, []string{FieldName, FieldStock}, ProductPatch{Stock: &stock, Name: &name}.Fields())
}

func TestProductDecrementStock_NeverNegative(t *testing.T) {
	p := widget(2)
	p.DecrementStock(5)
	assert.Equal(t, 0, p.Stock)
}

func TestProductMatches(t *testing.T) {
	p := widget(1)
	p.SKU = "WID-001"
	p.Category = "Hardware"
	assert.True(t, p.Matches("wid"))
	assert.True(t, p.Matches("hard"))
	assert.True(t, p.Matches("001"))
	assert.False(t, p.Matches("food"))
}

func TestCartAdd_Rules(t *testing.T) {
	cart := NewCart()
	p := widget(5)

	require.ErrorIs(t, cart.Add(p, 0), ErrInvalidQuantity)
	require.ErrorIs(t, cart.Add(widget(0), 1), ErrOutOfStock)

	require.NoError(t, cart.Add(p, 3))
	err := cart.Add(p, 3)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 6, stockErr.Shortfalls[0].Requested)
	assert.Equal(t, 5, stockErr.Shortfalls[0].Available)

	require.NoError(t, cart.Add(p, 2))
	line, ok := cart.Line("p1")
	require.True(t, ok)
	assert.Equal(t, 5, line.Quantity)
	assert.Len(t, cart.Lines(), 1)
}

func TestCartSetQuantity(t *testing.T) {
	cart := NewCart()
	p := widget(5)
	require.NoError(t, cart.Add(p, 1))

	require.ErrorIs(t, cart.SetQuantity(p, "p1", 6), ErrInsufficientStock)
	require.NoError(t, cart.SetQuantity(p, "p1", 4))
	line, _ := cart.Line("p1")
	assert.Equal(t, 4, line.Quantity)

	require.NoError(t, cart.SetQuantity(p, "p1", 0))
	assert.True(t, cart.IsEmpty())

	require.NoError(t, cart.SetQuantity(p, "missing", 3))
	assert.True(t, cart.IsEmpty())
}

func TestCartTotal(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.Add(widget(5), 2))
	other := NewProduct("p2", "Bolt", decimal.RequireFromString("0.25"), 100)
	require.NoError(t, cart.Add(other, 4))
	assert.True(t, cart.Total().Equal(decimal.NewFromInt(21)))
}

func TestCheckStock_ReportsEveryShortfall(t *testing.T) {
	products := map[string]*Product{"p1": widget(1)}
	items := []CartLine{
		{ProductID: "p1", ProductName: "Widget", Price: decimal.NewFromInt(10), Quantity: 2},
		{ProductID: "gone", ProductName: "Ghost", Price: decimal.NewFromInt(1), Quantity: 1},
	}
	err := CheckStock(func(id string) *Product { return products[id] }, items)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortfalls, 2)
	assert.Equal(t, 0, stockErr.Shortfalls[1].Available)
}

func TestSaleLifecycle(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := NewSale(nil, SaleStatusPending, now)
	require.ErrorIs(t, err, ErrEmptyCart)

	items := []CartLine{{ProductID: "p1", ProductName: "Widget", Price: decimal.NewFromInt(10), Quantity: 2}}
	sale, err := NewSale(items, SaleStatusPending, now)
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(20)))
	assert.Nil(t, sale.CompletedAt)

	require.NoError(t, sale.Complete("", now.Add(time.Hour)))
	assert.Equal(t, SaleStatusCompleted, sale.Status)
	assert.Equal(t, DefaultPaymentMethod, sale.PaymentMethod)
	require.NotNil(t, sale.CompletedAt)
	require.ErrorIs(t, sale.Complete("Card", now), ErrSaleNotPending)
}

func TestActionValidate(t *testing.T) {
	action := NewAction(ActionDeleteProduct, time.Now())
	require.ErrorIs(t, action.Validate(), ErrInvalidAction)
	action.ProductID = "p1"
	require.NoError(t, action.Validate())
	assert.Equal(t, "p1", action.Subject())
}
