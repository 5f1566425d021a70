package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the ledger schema. Adapters never migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&saleRecord{},
		&actionRecord{},
		&replayRecord{},
		&sessionRecord{},
	)
}

// Product schema mirrors the ledger Postgres adapter.
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

// Sale schema holds completed sales and pending orders.
type saleRecord struct {
	ID            string          `gorm:"primaryKey;column:id;size:64"`
	Status        string          `gorm:"column:status;type:varchar(16);index:idx_ledger_sales_status_created"`
	Items         []byte          `gorm:"column:items;type:jsonb"`
	ProductIDs    pq.StringArray  `gorm:"column:product_ids;type:text[];index:idx_ledger_sales_product_ids,type:gin"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(14,2)"`
	PaymentMethod string          `gorm:"column:payment_method"`
	UserID        string          `gorm:"column:user_id;index"`
	UserName      string          `gorm:"column:user_name"`
	CustomerName  string          `gorm:"column:customer_name"`
	Notes         string          `gorm:"column:notes"`
	CreatedAt     time.Time       `gorm:"column:created_at;index:idx_ledger_sales_status_created"`
	CompletedAt   *time.Time      `gorm:"column:completed_at;index"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (saleRecord) TableName() string { return "ledger_sales" }

// Offline queue schema mirrors the offline queue adapter.
type actionRecord struct {
	Seq        int64     `gorm:"primaryKey;column:seq;autoIncrement"`
	ActionID   string    `gorm:"column:action_id;size:64;uniqueIndex"`
	Type       string    `gorm:"column:action_type;type:varchar(32)"`
	Payload    []byte    `gorm:"column:payload;type:jsonb"`
	EnqueuedAt time.Time `gorm:"column:enqueued_at"`
	CreatedAt  time.Time `gorm:"column:created_at"`
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

// Session schema mirrors the session store.
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
