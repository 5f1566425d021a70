package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.Persistence = (*Repository)(nil)

// Repository persists the ledger in PostgreSQL using GORM. Stock decrements run in the same
// transaction as the sale they belong to and are clamped at zero by the database.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed ledger. The caller owns the DB lifecycle and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) LoadProducts(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

func (r *Repository) LoadSales(ctx context.Context) ([]*domain.Sale, error) {
	return r.loadSales(ctx, domain.SaleStatusCompleted)
}

func (r *Repository) LoadPendingOrders(ctx context.Context) ([]*domain.Sale, error) {
	return r.loadSales(ctx, domain.SaleStatusPending)
}

// CreateProduct inserts a new product. An existing id yields ports.ErrAlreadyExists.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := product.Clone()
	clone.Normalize()
	record := toProductRecord(clone)
	record.Version = 1
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, mapError(err)
	}
	return record.toDomain(), nil
}

// PatchProduct applies the non-nil patch fields and bumps the version.
func (r *Repository) PatchProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	patch = patch.Normalized()
	updates := map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": gorm.Expr("NOW()"),
	}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Stock != nil {
		updates["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.SKU != nil {
		updates["sku"] = *patch.SKU
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}
	var record productRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&productRecord{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		return tx.First(&record, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return record.toDomain(), nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&productRecord{}, "id = ?", id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// CreateSale stores a sale. Completed sales decrement stock in the same transaction.
func (r *Repository) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	if err := sale.Validate(); err != nil {
		return nil, err
	}
	record := toSaleRecord(sale)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if sale.Status != domain.SaleStatusCompleted {
			return nil
		}
		return decrementStock(tx, sale.Items)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return record.toDomain(), nil
}

func (r *Repository) DeleteSale(ctx context.Context, id string) error {
	return r.deleteSale(ctx, id, domain.SaleStatusCompleted)
}

// ClearSales deletes every completed sale. Pending orders are kept.
func (r *Repository) ClearSales(ctx context.Context) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.SaleStatusCompleted)).
		Delete(&saleRecord{}).Error
	return mapError(err)
}

func (r *Repository) CreatePendingOrder(ctx context.Context, order *domain.Sale) (*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if !order.IsPending() {
		return nil, domain.ErrInvalidStatus
	}
	record := toSaleRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, mapError(err)
	}
	return record.toDomain(), nil
}

func (r *Repository) DeletePendingOrder(ctx context.Context, id string) error {
	return r.deleteSale(ctx, id, domain.SaleStatusPending)
}

// CompletePendingOrder flips a pending order to completed under the same id and decrements
// stock. A row that is already completed yields ports.ErrAlreadyExists.
func (r *Repository) CompletePendingOrder(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, domain.ErrInvalidStatus
	}
	record := toSaleRecord(sale)
	var stored saleRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&saleRecord{}).
			Where("id = ? AND status = ?", sale.ID, string(domain.SaleStatusPending)).
			Updates(map[string]any{
				"status":         record.Status,
				"payment_method": record.PaymentMethod,
				"user_id":        record.UserID,
				"user_name":      record.UserName,
				"completed_at":   record.CompletedAt,
				"updated_at":     gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&saleRecord{}).Where("id = ?", sale.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ports.ErrAlreadyExists
			}
			return ports.ErrNotFound
		}
		if err := decrementStock(tx, sale.Items); err != nil {
			return err
		}
		return tx.First(&stored, "id = ?", sale.ID).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return stored.toDomain(), nil
}

func (r *Repository) loadSales(ctx context.Context, status domain.SaleStatus) ([]*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []saleRecord
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at asc, id asc").
		Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	sales := make([]*domain.Sale, 0, len(records))
	for i := range records {
		sales = append(sales, records[i].toDomain())
	}
	return sales, nil
}

func (r *Repository) deleteSale(ctx context.Context, id string, status domain.SaleStatus) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&saleRecord{}, "id = ? AND status = ?", id, string(status))
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// decrementStock lowers stock for each line, never below zero. Lines for deleted products are skipped.
func decrementStock(tx *gorm.DB, items []domain.CartLine) error {
	for _, item := range items {
		err := tx.Model(&productRecord{}).
			Where("id = ?", item.ProductID).
			Updates(map[string]any{
				"stock":      gorm.Expr("GREATEST(stock - ?, 0)", item.Quantity),
				"version":    gorm.Expr("version + 1"),
				"updated_at": gorm.Expr("NOW()"),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres ledger repository not configured")
	}
	return nil
}
