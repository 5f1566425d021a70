package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

// DefaultLowStockThreshold flags products with five units or fewer.
const DefaultLowStockThreshold = 5

// DefaultReportDays is the trailing window for daily revenue.
const DefaultReportDays = 7

// MaxReportDays bounds the daily revenue window.
const MaxReportDays = 366

// DefaultTopProducts is the number of best sellers listed in a report.
const DefaultTopProducts = 5

// ReportInput tunes the summary report.
type ReportInput struct {
	Days        int
	TopProducts int
	Now         time.Time
}

// DailyRevenue is the completed sales revenue for one calendar day (UTC).
type DailyRevenue struct {
	Day     time.Time
	Revenue decimal.Decimal
	Sales   int
}

// ProductSales aggregates completed sales for a product.
type ProductSales struct {
	ProductID   string
	ProductName string
	Quantity    int
	Revenue     decimal.Decimal
}

// CategoryStock aggregates stock per category.
type CategoryStock struct {
	Category string
	Units    int
	Value    decimal.Decimal
	Products int
}

// Report summarizes the ledger for dashboards.
type Report struct {
	GeneratedAt       time.Time
	Revenue           decimal.Decimal
	CompletedSales    int
	PendingOrders     int
	ItemsSold         int
	StockUnits        int
	StockValue        decimal.Decimal
	ProductCount      int
	LowStockThreshold int
	LowStock          []*domain.Product
	OutOfStock        []*domain.Product
	Daily             []DailyRevenue
	TopProducts       []ProductSales
	SlowProducts      []ProductSales
	Categories        []CategoryStock
}

// SyncStatus describes connectivity and the offline backlog.
type SyncStatus struct {
	Online        bool
	QueuedActions int
	LastReplayAt  *time.Time
	LastError     string
}

// ReplayReport summarizes one drain of the offline queue.
type ReplayReport struct {
	Applied    int
	Duplicates int
	Rejected   int
	Remaining  int
	// Stopped is set when the drain halted before the queue was empty.
	Stopped    bool
	StopReason string
	Rejections []ReplayRejection
}

// ReplayRejection records an action the backend refused permanently.
type ReplayRejection struct {
	ActionID   string
	ActionType domain.ActionType
	Reason     string
}

// Merge folds another report into r.
func (r *ReplayReport) Merge(other ReplayReport) {
	r.Applied += other.Applied
	r.Duplicates += other.Duplicates
	r.Rejected += other.Rejected
	r.Remaining = other.Remaining
	r.Stopped = other.Stopped
	r.StopReason = other.StopReason
	r.Rejections = append(r.Rejections, other.Rejections...)
}
