package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.Persistence = (*Store)(nil)

// Store is an in-memory ledger backend for development and tests. SetOffline simulates an
// unreachable backend.
type Store struct {
	mu       sync.RWMutex
	products []*domain.Product
	sales    []*domain.Sale
	pending  []*domain.Sale
	offline  bool
}

func NewStore() *Store {
	return &Store{}
}

// Seed replaces the stored products.
func (s *Store) Seed(products ...*domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = s.products[:0]
	for _, p := range products {
		clone := p.Clone()
		clone.Normalize()
		s.products = append(s.products, clone)
	}
}

// SetOffline makes every call fail with ports.ErrUnavailable while offline is true.
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *Store) LoadProducts(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	out := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *Store) LoadSales(_ context.Context) ([]*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	return cloneSales(s.sales), nil
}

func (s *Store) LoadPendingOrders(_ context.Context) ([]*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	return cloneSales(s.pending), nil
}

func (s *Store) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	clone := product.Clone()
	clone.Normalize()
	if _, existing := s.findProduct(clone.ID); existing != nil {
		return nil, ports.ErrAlreadyExists
	}
	clone.Version = 1
	s.products = append(s.products, clone)
	return clone.Clone(), nil
}

func (s *Store) PatchProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	_, product := s.findProduct(id)
	if product == nil {
		return nil, ports.ErrNotFound
	}
	product.Apply(patch.Normalized())
	product.Version++
	return product.Clone(), nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ports.ErrUnavailable
	}
	idx, product := s.findProduct(id)
	if product == nil {
		return ports.ErrNotFound
	}
	s.products = append(s.products[:idx], s.products[idx+1:]...)
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	if err := sale.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	if _, existing := findSale(s.sales, sale.ID); existing != nil {
		return nil, ports.ErrAlreadyExists
	}
	clone := sale.Clone()
	if clone.Status == domain.SaleStatusCompleted {
		s.decrement(clone.Items)
	}
	s.sales = append(s.sales, clone)
	return clone.Clone(), nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ports.ErrUnavailable
	}
	idx, sale := findSale(s.sales, id)
	if sale == nil {
		return ports.ErrNotFound
	}
	s.sales = append(s.sales[:idx], s.sales[idx+1:]...)
	return nil
}

func (s *Store) ClearSales(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ports.ErrUnavailable
	}
	s.sales = nil
	return nil
}

func (s *Store) CreatePendingOrder(_ context.Context, order *domain.Sale) (*domain.Sale, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if !order.IsPending() {
		return nil, domain.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	if _, existing := findSale(s.pending, order.ID); existing != nil {
		return nil, ports.ErrAlreadyExists
	}
	clone := order.Clone()
	s.pending = append(s.pending, clone)
	return clone.Clone(), nil
}

func (s *Store) DeletePendingOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ports.ErrUnavailable
	}
	idx, order := findSale(s.pending, id)
	if order == nil {
		return ports.ErrNotFound
	}
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	return nil
}

func (s *Store) CompletePendingOrder(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, domain.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, ports.ErrUnavailable
	}
	idx, order := findSale(s.pending, sale.ID)
	if order == nil {
		if _, done := findSale(s.sales, sale.ID); done != nil {
			return nil, ports.ErrAlreadyExists
		}
		return nil, ports.ErrNotFound
	}
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	clone := sale.Clone()
	s.decrement(clone.Items)
	s.sales = append(s.sales, clone)
	return clone.Clone(), nil
}

func (s *Store) findProduct(id string) (int, *domain.Product) {
	for i, p := range s.products {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (s *Store) decrement(items []domain.CartLine) {
	for _, item := range items {
		if _, p := s.findProduct(item.ProductID); p != nil {
			p.DecrementStock(item.Quantity)
			p.Version++
		}
	}
}

func findSale(list []*domain.Sale, id string) (int, *domain.Sale) {
	for i, sale := range list {
		if sale.ID == id {
			return i, sale
		}
	}
	return -1, nil
}

func cloneSales(src []*domain.Sale) []*domain.Sale {
	out := make([]*domain.Sale, 0, len(src))
	for _, sale := range src {
		out = append(out, sale.Clone())
	}
	return out
}
