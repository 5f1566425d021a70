package rest

import (
	"strings"
	"time"

	"github.com/Apurer/go-gin-pos-ledger/internal/clients/http/posbackend"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/loosejson"
)

// dateLayouts are the timestamp shapes the backend has been seen to emit.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ToProductPayload converts a domain product into the backend payload.
func ToProductPayload(p *domain.Product) posbackend.Product {
	return posbackend.Product{
		ID:       p.ID,
		Name:     p.Name,
		Stock:    loosejson.NumberFromInt(p.Stock),
		Price:    loosejson.NumberFromDecimal(p.Price),
		Category: optional(p.Category),
		SKU:      optional(p.SKU),
		ImageURL: optional(p.ImageURL),
	}
}

// FromProductPayload normalizes a backend row: numbers are coerced, negatives clamped, a missing id generated.
func FromProductPayload(payload posbackend.Product) *domain.Product {
	product := &domain.Product{
		ID:       strings.TrimSpace(payload.ID),
		Name:     payload.Name,
		Price:    domain.ParsePrice(payload.Price.String()),
		Stock:    domain.ParseStock(payload.Stock.String()),
		Category: deref(payload.Category),
		SKU:      deref(payload.SKU),
		ImageURL: deref(payload.ImageURL),
	}
	product.Normalize()
	return product
}

// ToSalePayload converts a sale or pending order into the backend payload.
func ToSalePayload(s *domain.Sale) posbackend.Sale {
	items := make([]posbackend.SaleItem, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, posbackend.SaleItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       loosejson.NumberFromDecimal(item.Price),
			Quantity:    loosejson.NumberFromInt(item.Quantity),
		})
	}
	payload := posbackend.Sale{
		ID:            s.ID,
		UserID:        loosejson.ID(s.UserID),
		UserName:      s.UserName,
		PaymentMethod: s.PaymentMethod,
		CustomerName:  s.CustomerName,
		Notes:         s.Notes,
		Date:          s.CreatedAt.UTC().Format(time.RFC3339Nano),
		Items:         items,
		Total:         loosejson.NumberFromDecimal(s.Total),
		Status:        strings.ToLower(string(s.Status)),
	}
	if s.CompletedAt != nil {
		payload.CompletedAt = s.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return payload
}

// FromSalePayload converts a backend row. fallback applies when the row carries no status.
// Lines with a non-positive quantity are dropped and the total is recomputed from the lines.
func FromSalePayload(payload posbackend.Sale, fallback domain.SaleStatus) *domain.Sale {
	items := make([]domain.CartLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		qty := item.Quantity.Int()
		if qty <= 0 || strings.TrimSpace(item.ProductID) == "" {
			continue
		}
		items = append(items, domain.CartLine{
			ProductID:   strings.TrimSpace(item.ProductID),
			ProductName: item.ProductName,
			Price:       domain.ParsePrice(item.Price.String()),
			Quantity:    qty,
		})
	}
	sale := &domain.Sale{
		ID:            strings.TrimSpace(payload.ID),
		Items:         items,
		Total:         domain.ComputeTotal(items),
		PaymentMethod: payload.PaymentMethod,
		UserID:        payload.UserID.String(),
		UserName:      payload.UserName,
		CustomerName:  payload.CustomerName,
		Notes:         payload.Notes,
		Status:        parseStatus(payload.Status, fallback),
		CreatedAt:     parseDate(payload.Date),
	}
	if sale.Status == domain.SaleStatusCompleted {
		completed := sale.CreatedAt
		if at := parseDate(payload.CompletedAt); !at.IsZero() {
			completed = at
		}
		sale.CompletedAt = &completed
	}
	return sale
}

func parseStatus(raw string, fallback domain.SaleStatus) domain.SaleStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "complete", "paid":
		return domain.SaleStatusCompleted
	case "pending":
		return domain.SaleStatusPending
	default:
		return fallback
	}
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
