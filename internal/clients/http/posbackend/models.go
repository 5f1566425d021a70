package posbackend

import "github.com/Apurer/go-gin-pos-ledger/internal/shared/loosejson"

// Product is the backend's catalog row. Numbers may arrive as strings.
type Product struct {
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Stock    loosejson.Number `json:"stock"`
	Price    loosejson.Number `json:"price"`
	Category *string          `json:"category"`
	SKU      *string          `json:"sku"`
	ImageURL *string          `json:"imageUrl"`
}

// SaleItem is one line of a sale or pending order.
type SaleItem struct {
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName,omitempty"`
	Price       loosejson.Number `json:"price"`
	Quantity    loosejson.Number `json:"quantity"`
}

// Sale covers both /api/sales and /api/pending-orders payloads.
// Date is an RFC 3339 timestamp; Status is "completed" or "pending" (older clients send "Paid").
type Sale struct {
	ID            string           `json:"id"`
	UserID        loosejson.ID     `json:"userId"`
	UserName      string           `json:"userName"`
	PaymentMethod string           `json:"paymentMethod"`
	CustomerName  string           `json:"customerName"`
	Notes         string           `json:"notes"`
	Date          string           `json:"date"`
	CompletedAt   string           `json:"completedAt,omitempty"`
	Items         []SaleItem       `json:"items"`
	Total         loosejson.Number `json:"total"`
	Status        string           `json:"status"`
}
