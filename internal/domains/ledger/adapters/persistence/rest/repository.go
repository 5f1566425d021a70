package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Apurer/go-gin-pos-ledger/internal/clients/http/posbackend"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.Persistence = (*Repository)(nil)

// Repository implements the ledger persistence port against the remote POS backend.
type Repository struct {
	client *posbackend.Client
}

// NewRepository wraps a backend client.
func NewRepository(client *posbackend.Client) *Repository {
	return &Repository{client: client}
}

// TokenFromSessions reads the bearer token from the session store on every call,
// so a new sign-in is picked up without rebuilding the client.
func TokenFromSessions(sessions ports.SessionStore) posbackend.TokenSource {
	return func(ctx context.Context) (string, error) {
		if sessions == nil {
			return "", nil
		}
		identity, err := sessions.Load(ctx)
		if err != nil || identity == nil {
			return "", err
		}
		return identity.Token, nil
	}
}

func (r *Repository) LoadProducts(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	payloads, err := r.client.ListProducts(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	products := make([]*domain.Product, 0, len(payloads))
	for _, payload := range payloads {
		products = append(products, FromProductPayload(payload))
	}
	return products, nil
}

// LoadSales returns completed sales only; rows the backend stores with a pending status are skipped.
func (r *Repository) LoadSales(ctx context.Context) ([]*domain.Sale, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	payloads, err := r.client.ListSales(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	sales := make([]*domain.Sale, 0, len(payloads))
	for _, payload := range payloads {
		sale := FromSalePayload(payload, domain.SaleStatusCompleted)
		if sale.Status != domain.SaleStatusCompleted || len(sale.Items) == 0 {
			continue
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (r *Repository) LoadPendingOrders(ctx context.Context) ([]*domain.Sale, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	payloads, err := r.client.ListPendingOrders(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	orders := make([]*domain.Sale, 0, len(payloads))
	for _, payload := range payloads {
		order := FromSalePayload(payload, domain.SaleStatusPending)
		if order.Status != domain.SaleStatusPending || len(order.Items) == 0 {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	created, err := r.client.CreateProduct(ctx, ToProductPayload(product))
	if err != nil {
		return nil, r.createError(ctx, err, func(ctx context.Context) (bool, error) {
			_, findErr := r.findProduct(ctx, product.ID)
			if errors.Is(findErr, ports.ErrNotFound) {
				return false, nil
			}
			return findErr == nil, findErr
		})
	}
	saved := FromProductPayload(*created)
	if saved.ID != product.ID && product.ID != "" {
		saved.ID = product.ID
	}
	return saved, nil
}

// PatchProduct reads the current row and sends it back merged with the patch,
// because the backend overwrites every column on update.
func (r *Repository) PatchProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	current, err := r.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	current.Apply(patch)
	if err := r.client.UpdateProduct(ctx, id, ToProductPayload(current)); err != nil {
		return nil, mapError(err)
	}
	return current, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	if err := r.ensureClient(); err != nil {
		return err
	}
	return mapError(r.client.DeleteProduct(ctx, id))
}

func (r *Repository) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	if err := sale.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.client.CreateSale(ctx, ToSalePayload(sale)); err != nil {
		return nil, r.createError(ctx, err, func(ctx context.Context) (bool, error) {
			return r.hasSale(ctx, sale.ID)
		})
	}
	return sale.Clone(), nil
}

func (r *Repository) DeleteSale(ctx context.Context, id string) error {
	if err := r.ensureClient(); err != nil {
		return err
	}
	return mapError(r.client.DeleteSale(ctx, id))
}

func (r *Repository) ClearSales(ctx context.Context) error {
	if err := r.ensureClient(); err != nil {
		return err
	}
	return mapError(r.client.ClearSales(ctx))
}

func (r *Repository) CreatePendingOrder(ctx context.Context, order *domain.Sale) (*domain.Sale, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if !order.IsPending() {
		return nil, domain.ErrInvalidStatus
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.client.CreatePendingOrder(ctx, ToSalePayload(order)); err != nil {
		return nil, r.createError(ctx, err, func(ctx context.Context) (bool, error) {
			return r.hasPendingOrder(ctx, order.ID)
		})
	}
	return order.Clone(), nil
}

func (r *Repository) DeletePendingOrder(ctx context.Context, id string) error {
	if err := r.ensureClient(); err != nil {
		return err
	}
	return mapError(r.client.DeletePendingOrder(ctx, id))
}

// CompletePendingOrder records the sale under the order's id and then removes the pending order.
// The backend has no atomic completion, so a sale that already exists still gets its pending
// order removed before ErrAlreadyExists is reported.
func (r *Repository) CompletePendingOrder(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, domain.ErrInvalidStatus
	}
	pending, err := r.hasPendingOrder(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	if !pending {
		exists, err := r.hasSale(ctx, sale.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ports.ErrAlreadyExists
		}
		return nil, ports.ErrNotFound
	}

	_, createErr := r.CreateSale(ctx, sale)
	if createErr != nil && !errors.Is(createErr, ports.ErrAlreadyExists) {
		return nil, createErr
	}
	if err := r.DeletePendingOrder(ctx, sale.ID); err != nil && !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	if createErr != nil {
		return nil, createErr
	}
	return sale.Clone(), nil
}

// createError maps a failed insert. The backend answers a duplicate primary key with a 500,
// so a server error is checked against the listing before it is reported as an outage.
func (r *Repository) createError(ctx context.Context, err error, exists func(context.Context) (bool, error)) error {
	mapped := mapError(err)
	var statusErr *posbackend.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode < http.StatusInternalServerError {
		return mapped
	}
	found, lookupErr := exists(ctx)
	if lookupErr != nil || !found {
		return mapped
	}
	return fmt.Errorf("%w: %w", ports.ErrAlreadyExists, err)
}

func (r *Repository) findProduct(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.LoadProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		if product.ID == id {
			return product, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) hasPendingOrder(ctx context.Context, id string) (bool, error) {
	orders, err := r.LoadPendingOrders(ctx)
	if err != nil {
		return false, err
	}
	for _, order := range orders {
		if order.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) hasSale(ctx context.Context, id string) (bool, error) {
	sales, err := r.LoadSales(ctx)
	if err != nil {
		return false, err
	}
	for _, sale := range sales {
		if sale.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) ensureClient() error {
	if r == nil || r.client == nil {
		return errors.New("rest persistence not configured")
	}
	return nil
}
