package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

// productRecord maps a catalog item to the ledger_products table.
type productRecord struct {
	ID        string          `gorm:"primaryKey;column:id;size:64"`
	Name      string          `gorm:"column:name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(14,2)"`
	Stock     int             `gorm:"column:stock;check:chk_ledger_products_stock,stock >= 0"`
	Category  string          `gorm:"column:category;index"`
	SKU       string          `gorm:"column:sku;index"`
	ImageURL  string          `gorm:"column:image_url"`
	Version   int64           `gorm:"column:version"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "ledger_products" }

func toProductRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		SKU:      p.SKU,
		ImageURL: p.ImageURL,
		Version:  p.Version,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:       r.ID,
		Name:     r.Name,
		Price:    r.Price,
		Stock:    r.Stock,
		Category: r.Category,
		SKU:      r.SKU,
		ImageURL: r.ImageURL,
		Version:  r.Version,
	}
}

// saleRecord stores completed sales and pending orders; Status tells them apart.
type saleRecord struct {
	ID            string            `gorm:"primaryKey;column:id;size:64"`
	Status        string            `gorm:"column:status;type:varchar(16);index:idx_ledger_sales_status_created"`
	Items         []domain.CartLine `gorm:"column:items;type:jsonb;serializer:json"`
	ProductIDs    pq.StringArray    `gorm:"column:product_ids;type:text[]"`
	Total         decimal.Decimal   `gorm:"column:total;type:numeric(14,2)"`
	PaymentMethod string            `gorm:"column:payment_method"`
	UserID        string            `gorm:"column:user_id;index"`
	UserName      string            `gorm:"column:user_name"`
	CustomerName  string            `gorm:"column:customer_name"`
	Notes         string            `gorm:"column:notes"`
	CreatedAt     time.Time         `gorm:"column:created_at;index:idx_ledger_sales_status_created"`
	CompletedAt   *time.Time        `gorm:"column:completed_at;index"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
}

func (saleRecord) TableName() string { return "ledger_sales" }

func toSaleRecord(s *domain.Sale) saleRecord {
	rec := saleRecord{
		ID:            s.ID,
		Status:        string(s.Status),
		Items:         append([]domain.CartLine(nil), s.Items...),
		ProductIDs:    pq.StringArray(s.ProductIDs()),
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod,
		UserID:        s.UserID,
		UserName:      s.UserName,
		CustomerName:  s.CustomerName,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt.UTC(),
	}
	if s.CompletedAt != nil {
		completed := s.CompletedAt.UTC()
		rec.CompletedAt = &completed
	}
	return rec
}

func (r saleRecord) toDomain() *domain.Sale {
	sale := &domain.Sale{
		ID:            r.ID,
		Items:         append([]domain.CartLine(nil), r.Items...),
		Total:         r.Total,
		PaymentMethod: r.PaymentMethod,
		UserID:        r.UserID,
		UserName:      r.UserName,
		CustomerName:  r.CustomerName,
		Notes:         r.Notes,
		Status:        domain.SaleStatus(r.Status),
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if r.CompletedAt != nil {
		completed := r.CompletedAt.UTC()
		sale.CompletedAt = &completed
	}
	return sale
}

// actionRecord is one queued offline action. Seq preserves enqueue order.
type actionRecord struct {
	Seq        int64         `gorm:"primaryKey;column:seq;autoIncrement"`
	ActionID   string        `gorm:"column:action_id;size:64;uniqueIndex"`
	Type       string        `gorm:"column:action_type;type:varchar(32)"`
	Payload    domain.Action `gorm:"column:payload;type:jsonb;serializer:json"`
	EnqueuedAt time.Time     `gorm:"column:enqueued_at"`
	CreatedAt  time.Time     `gorm:"column:created_at"`
}

func (actionRecord) TableName() string { return "ledger_offline_actions" }

type replayRecord struct {
	ActionID    string    `gorm:"primaryKey;column:action_id;size:64"`
	ActionType  string    `gorm:"column:action_type;type:varchar(32)"`
	Fingerprint string    `gorm:"column:fingerprint;size:128"`
	Outcome     string    `gorm:"column:outcome;type:varchar(16)"`
	Detail      string    `gorm:"column:detail"`
	AppliedAt   time.Time `gorm:"column:applied_at;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (replayRecord) TableName() string { return "ledger_replay_log" }

type sessionRecord struct {
	TerminalID string     `gorm:"primaryKey;column:terminal_id;size:128"`
	UserID     string     `gorm:"column:user_id;index"`
	UserName   string     `gorm:"column:user_name"`
	Token      string     `gorm:"column:token;size:512"`
	ExpiresAt  *time.Time `gorm:"column:expires_at;index"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "ledger_sessions" }
