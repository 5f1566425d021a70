package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents where a sale sits in its lifecycle.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
)

// DefaultPaymentMethod applies when checkout does not name one.
const DefaultPaymentMethod = "Cash"

// Sale is a frozen snapshot of cart lines. Pending sales are held orders that have not touched stock.
type Sale struct {
	ID            string
	Items         []CartLine
	Total         decimal.Decimal
	PaymentMethod string
	UserID        string
	UserName      string
	CustomerName  string
	Notes         string
	Status        SaleStatus
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// NewSale snapshots items into a sale with a computed total.
func NewSale(items []CartLine, status SaleStatus, createdAt time.Time) (*Sale, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if !isValidSaleStatus(status) {
		return nil, ErrInvalidStatus
	}
	sale := &Sale{
		ID:        uuid.NewString(),
		Items:     append([]CartLine(nil), items...),
		Total:     ComputeTotal(items),
		Status:    status,
		CreatedAt: createdAt.UTC(),
	}
	if status == SaleStatusCompleted {
		completed := sale.CreatedAt
		sale.CompletedAt = &completed
	}
	return sale, nil
}

// Validate enforces sale invariants.
func (s *Sale) Validate() error {
	if len(s.Items) == 0 {
		return ErrEmptyCart
	}
	if !isValidSaleStatus(s.Status) {
		return ErrInvalidStatus
	}
	for _, item := range s.Items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Complete moves a pending sale to completed.
func (s *Sale) Complete(paymentMethod string, at time.Time) error {
	if s.Status != SaleStatusPending {
		return ErrSaleNotPending
	}
	if strings.TrimSpace(paymentMethod) != "" {
		s.PaymentMethod = paymentMethod
	}
	if s.PaymentMethod == "" {
		s.PaymentMethod = DefaultPaymentMethod
	}
	completed := at.UTC()
	s.CompletedAt = &completed
	s.Status = SaleStatusCompleted
	return nil
}

// IsPending reports whether the sale is a held order.
func (s *Sale) IsPending() bool {
	return s.Status == SaleStatusPending
}

// ItemCount sums all line quantities.
func (s *Sale) ItemCount() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// ProductIDs lists distinct product ids in line order.
func (s *Sale) ProductIDs() []string {
	seen := make(map[string]struct{}, len(s.Items))
	ids := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// EffectiveAt is the completion time for completed sales and the creation time otherwise.
func (s *Sale) EffectiveAt() time.Time {
	if s.CompletedAt != nil {
		return *s.CompletedAt
	}
	return s.CreatedAt
}

// Clone returns a deep copy.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Items = append([]CartLine(nil), s.Items...)
	if s.CompletedAt != nil {
		completed := *s.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}

// ComputeTotal sums price times quantity over items.
func ComputeTotal(items []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func isValidSaleStatus(status SaleStatus) bool {
	switch status {
	case SaleStatusPending, SaleStatusCompleted:
		return true
	default:
		return false
	}
}
