package application

import (
	"context"
	"strings"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/projection"
)

// ListProducts returns the catalog in insertion order.
func (l *Ledger) ListProducts(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	l.read(func(s *ledgerState) {
		out = cloneProducts(s.products)
	})
	return out, nil
}

// SearchProducts filters the catalog by name, sku or category.
func (l *Ledger) SearchProducts(_ context.Context, query string) ([]*domain.Product, error) {
	var out []*domain.Product
	l.read(func(s *ledgerState) {
		for _, p := range s.products {
			if p.Matches(query) {
				out = append(out, p.Clone())
			}
		}
	})
	return out, nil
}

// AddProduct appends a product to the catalog. Duplicate names are allowed.
func (l *Ledger) AddProduct(ctx context.Context, input types.AddProductInput) (*types.ProductResult, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	product := domain.NewProduct(input.ID, input.Name, input.Price, input.Stock)
	product.Category = strings.TrimSpace(input.Category)
	product.SKU = strings.TrimSpace(input.SKU)
	product.ImageURL = strings.TrimSpace(input.ImageURL)

	before, err := l.mutate(func(s *ledgerState) error {
		s.products = append(s.products, product.Clone())
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	action := domain.NewAction(domain.ActionAddProduct, l.now())
	action.ProductID = product.ID
	action.Product = product.Clone()
	outcome, err := l.commit(ctx, before, action, commitPolicy{queueable: true}, func(ctx context.Context) error {
		saved, err := l.persistence.CreateProduct(ctx, product.Clone())
		if err == nil {
			l.adoptProduct(saved)
		}
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return projection.New(l.productSnapshot(product.ID), outcome.metadata(l)), nil
}

// UpdateProduct merges a patch into an existing product. Unknown ids are a silent no-op and
// return a nil result.
func (l *Ledger) UpdateProduct(ctx context.Context, input types.UpdateProductInput) (*types.ProductResult, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	patch := input.Patch.Normalized()
	found := false
	before, err := l.mutate(func(s *ledgerState) error {
		if p := s.lookup(input.ID); p != nil {
			found = true
			p.Apply(patch)
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	if !found {
		return nil, nil
	}
	if patch.IsEmpty() {
		return projection.New(l.productSnapshot(input.ID), projection.Metadata{UpdatedAt: l.now().UTC()}), nil
	}
	action := domain.NewAction(domain.ActionUpdateProduct, l.now())
	action.ProductID = input.ID
	action.Patch = &patch
	outcome, err := l.commit(ctx, before, action, commitPolicy{queueable: true, silentNotFound: true}, func(ctx context.Context) error {
		saved, err := l.persistence.PatchProduct(ctx, input.ID, patch)
		if err == nil {
			l.adoptProduct(saved)
		}
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return projection.New(l.productSnapshot(input.ID), outcome.metadata(l)), nil
}

// DeleteProduct removes a product from the catalog and from the active cart.
// Historical sales keep their line snapshots.
func (l *Ledger) DeleteProduct(ctx context.Context, input types.ProductIdentifier) (*types.CommandResult, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	found := false
	before, err := l.mutate(func(s *ledgerState) error {
		idx, p := s.findProduct(input.ID)
		if p == nil {
			return nil
		}
		found = true
		s.products = append(s.products[:idx], s.products[idx+1:]...)
		s.cart.Remove(input.ID)
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	if !found {
		return &types.CommandResult{Applied: false}, nil
	}
	action := domain.NewAction(domain.ActionDeleteProduct, l.now())
	action.ProductID = input.ID
	outcome, err := l.commit(ctx, before, action, commitPolicy{queueable: true, silentNotFound: true}, func(ctx context.Context) error {
		return l.persistence.DeleteProduct(ctx, input.ID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &types.CommandResult{Applied: true, Metadata: outcome.metadata(l)}, nil
}

// adoptProduct takes version and normalized fields from the backend copy.
func (l *Ledger) adoptProduct(saved *domain.Product) {
	if saved == nil {
		return
	}
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if idx, p := l.state.findProduct(saved.ID); p != nil {
		l.state.products[idx] = saved.Clone()
	}
}

func (l *Ledger) productSnapshot(id string) *domain.Product {
	var out *domain.Product
	l.read(func(s *ledgerState) {
		out = s.lookup(id).Clone()
	})
	return out
}
