package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.Persistence = (*MockPersistence)(nil)

// MockPersistence is a testify mock of ports.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) LoadProducts(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPersistence) LoadSales(ctx context.Context) ([]*domain.Sale, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]*domain.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPersistence) LoadPendingOrders(ctx context.Context) ([]*domain.Sale, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]*domain.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPersistence) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if p := args.Get(0); p != nil {
		return p.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPersistence) PatchProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	args := m.Called(ctx, id, patch)
	if p := args.Get(0); p != nil {
		return p.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPersistence) DeleteProduct(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPersistence) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	args := m.Called(ctx, sale)
	if s := args.Get(0); s != nil {
		return s.(*domain.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPersistence) DeleteSale(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPersistence) ClearSales(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPersistence) CreatePendingOrder(ctx context.Context, order *domain.Sale) (*domain.Sale, error) {
	args := m.Called(ctx, order)
	if s := args.Get(0); s != nil {
		return s.(*domain.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPersistence) DeletePendingOrder(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPersistence) CompletePendingOrder(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	args := m.Called(ctx, sale)
	if s := args.Get(0); s != nil {
		return s.(*domain.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

// ExpectEmptySnapshot stubs the three load calls with an empty backend.
func (m *MockPersistence) ExpectEmptySnapshot() {
	m.On("LoadProducts", mock.Anything).Return([]*domain.Product{}, nil)
	m.On("LoadSales", mock.Anything).Return([]*domain.Sale{}, nil)
	m.On("LoadPendingOrders", mock.Anything).Return([]*domain.Sale{}, nil)
}
