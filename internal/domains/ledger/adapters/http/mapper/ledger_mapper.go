package mapper

import (
	"strings"
	"time"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/loosejson"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/projection"
)

// ProductInput is the create payload. Price and stock may arrive as numbers or numeric strings.
type ProductInput struct {
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Price    loosejson.Number `json:"price"`
	Stock    loosejson.Number `json:"stock"`
	Category string           `json:"category,omitempty"`
	SKU      string           `json:"sku,omitempty"`
	ImageURL string           `json:"imageUrl,omitempty"`
}

// ProductPatch preserves field presence so that only supplied fields are merged.
type ProductPatch struct {
	Name     *string           `json:"name,omitempty"`
	Price    *loosejson.Number `json:"price,omitempty"`
	Stock    *loosejson.Number `json:"stock,omitempty"`
	Category *string           `json:"category,omitempty"`
	SKU      *string           `json:"sku,omitempty"`
	ImageURL *string           `json:"imageUrl,omitempty"`
}

// Product is the HTTP representation of a catalog item.
type Product struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Price    loosejson.Number `json:"price"`
	Stock    int              `json:"stock"`
	Category string           `json:"category,omitempty"`
	SKU      string           `json:"sku,omitempty"`
	ImageURL string           `json:"imageUrl,omitempty"`
	Queued   bool             `json:"queued,omitempty"`
	ActionID string           `json:"actionId,omitempty"`
}

// LineItem is a cart or sale line.
type LineItem struct {
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName"`
	Price       loosejson.Number `json:"price"`
	Quantity    int              `json:"quantity"`
	Subtotal    loosejson.Number `json:"subtotal"`
}

// CartItem is the payload for adding or resizing a cart line.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// Cart is the HTTP representation of the active cart.
type Cart struct {
	Items     []LineItem       `json:"items"`
	Total     loosejson.Number `json:"total"`
	ItemCount int              `json:"itemCount"`
}

// Checkout carries the payment method for a sale.
type Checkout struct {
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// HoldOrder carries optional customer details for a pending order.
type HoldOrder struct {
	CustomerName string `json:"customerName,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Sale is the HTTP representation of a completed sale or pending order.
type Sale struct {
	ID            string           `json:"id"`
	Items         []LineItem       `json:"items"`
	Total         loosejson.Number `json:"total"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	UserID        string           `json:"userId,omitempty"`
	UserName      string           `json:"userName,omitempty"`
	CustomerName  string           `json:"customerName,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Status        string           `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	Queued        bool             `json:"queued,omitempty"`
	ActionID      string           `json:"actionId,omitempty"`
}

// CommandResult reports whether a command changed anything.
type CommandResult struct {
	Applied  bool   `json:"applied"`
	Queued   bool   `json:"queued,omitempty"`
	ActionID string `json:"actionId,omitempty"`
}

// Threshold is the low stock preference payload.
type Threshold struct {
	Threshold *int `json:"threshold"`
}

// Session is the signed-in user. Token is accepted on sign-in and never echoed.
type Session struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	Token    string `json:"token,omitempty"`
}

// SyncStatus reports connectivity and the offline backlog.
type SyncStatus struct {
	Online        bool       `json:"online"`
	QueuedActions int        `json:"queuedActions"`
	LastReplayAt  *time.Time `json:"lastReplayAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// ReplayRejection names an action the backend refused.
type ReplayRejection struct {
	ActionID   string `json:"actionId"`
	ActionType string `json:"actionType"`
	Reason     string `json:"reason"`
}

// ReplayReport summarizes a drain of the offline queue.
type ReplayReport struct {
	Applied    int               `json:"applied"`
	Duplicates int               `json:"duplicates"`
	Rejected   int               `json:"rejected"`
	Remaining  int               `json:"remaining"`
	Stopped    bool              `json:"stopped"`
	StopReason string            `json:"stopReason,omitempty"`
	Rejections []ReplayRejection `json:"rejections,omitempty"`
}

// DailyRevenue is revenue for one UTC day.
type DailyRevenue struct {
	Day     string           `json:"day"`
	Revenue loosejson.Number `json:"revenue"`
	Sales   int              `json:"sales"`
}

// ProductSales aggregates what a product sold.
type ProductSales struct {
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName"`
	Quantity    int              `json:"quantity"`
	Revenue     loosejson.Number `json:"revenue"`
}

// CategoryStock aggregates stock per category.
type CategoryStock struct {
	Category string           `json:"category"`
	Units    int              `json:"units"`
	Value    loosejson.Number `json:"value"`
	Products int              `json:"products"`
}

// Report is the dashboard summary.
type Report struct {
	GeneratedAt       time.Time        `json:"generatedAt"`
	Revenue           loosejson.Number `json:"revenue"`
	CompletedSales    int              `json:"completedSales"`
	PendingOrders     int              `json:"pendingOrders"`
	ItemsSold         int              `json:"itemsSold"`
	StockUnits        int              `json:"stockUnits"`
	StockValue        loosejson.Number `json:"stockValue"`
	ProductCount      int              `json:"productCount"`
	LowStockThreshold int              `json:"lowStockThreshold"`
	LowStock          []Product        `json:"lowStock"`
	OutOfStock        []Product        `json:"outOfStock"`
	Daily             []DailyRevenue   `json:"daily"`
	TopProducts       []ProductSales   `json:"topProducts"`
	SlowProducts      []ProductSales   `json:"slowProducts"`
	Categories        []CategoryStock  `json:"categories"`
}

// ToAddProductInput coerces the create payload. Unparsable numbers become zero and negatives are clamped.
func ToAddProductInput(input ProductInput) ledgertypes.AddProductInput {
	return ledgertypes.AddProductInput{
		ID:       strings.TrimSpace(input.ID),
		Name:     strings.TrimSpace(input.Name),
		Price:    domain.ParsePrice(input.Price.String()),
		Stock:    domain.ParseStock(input.Stock.String()),
		Category: strings.TrimSpace(input.Category),
		SKU:      strings.TrimSpace(input.SKU),
		ImageURL: strings.TrimSpace(input.ImageURL),
	}
}

// ToUpdateProductInput converts a patch payload while preserving field presence.
func ToUpdateProductInput(id string, input ProductPatch) ledgertypes.UpdateProductInput {
	patch := domain.ProductPatch{
		Name:     cloneString(input.Name),
		Category: cloneString(input.Category),
		SKU:      cloneString(input.SKU),
		ImageURL: cloneString(input.ImageURL),
	}
	if input.Price != nil {
		price := domain.ParsePrice(input.Price.String())
		patch.Price = &price
	}
	if input.Stock != nil {
		stock := domain.ParseStock(input.Stock.String())
		patch.Stock = &stock
	}
	return ledgertypes.UpdateProductInput{ID: strings.TrimSpace(id), Patch: patch}
}

// ToCartItemInput maps a cart payload. A missing quantity means one unit.
func ToCartItemInput(productID string, input CartItem) ledgertypes.CartItemInput {
	if productID == "" {
		productID = input.ProductID
	}
	qty := 1
	if input.Quantity != nil {
		qty = *input.Quantity
	}
	return ledgertypes.CartItemInput{ProductID: strings.TrimSpace(productID), Quantity: qty}
}

// ToIdentity maps a sign-in payload.
func ToIdentity(input Session) domain.Identity {
	return domain.Identity{
		UserID:   strings.TrimSpace(input.UserID),
		UserName: strings.TrimSpace(input.UserName),
		Token:    strings.TrimSpace(input.Token),
	}
}

// FromDomainProduct maps a product into its transport shape.
func FromDomainProduct(p *domain.Product) Product {
	return Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    loosejson.NumberFromDecimal(p.Price),
		Stock:    p.Stock,
		Category: p.Category,
		SKU:      p.SKU,
		ImageURL: p.ImageURL,
	}
}

// FromDomainProductList maps a slice of products.
func FromDomainProductList(list []*domain.Product) []Product {
	resp := make([]Product, 0, len(list))
	for _, p := range list {
		resp = append(resp, FromDomainProduct(p))
	}
	return resp
}

// FromProductResult maps a product projection, flagging queued changes.
func FromProductResult(result *ledgertypes.ProductResult) Product {
	product := FromDomainProduct(result.Entity)
	product.Queued, product.ActionID = queuedFrom(result.Metadata)
	return product
}

// FromLines maps cart lines.
func FromLines(lines []domain.CartLine) []LineItem {
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, LineItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       loosejson.NumberFromDecimal(line.Price),
			Quantity:    line.Quantity,
			Subtotal:    loosejson.NumberFromDecimal(line.Subtotal()),
		})
	}
	return items
}

// FromCartView maps the cart read model.
func FromCartView(view *ledgertypes.CartView) Cart {
	if view == nil {
		return Cart{Items: []LineItem{}, Total: loosejson.NumberFromInt(0)}
	}
	return Cart{
		Items:     FromLines(view.Lines),
		Total:     loosejson.NumberFromDecimal(view.Total),
		ItemCount: view.ItemCount,
	}
}

// FromDomainSale maps a sale or pending order.
func FromDomainSale(s *domain.Sale) Sale {
	var completed *time.Time
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		completed = &at
	}
	return Sale{
		ID:            s.ID,
		Items:         FromLines(s.Items),
		Total:         loosejson.NumberFromDecimal(s.Total),
		PaymentMethod: s.PaymentMethod,
		UserID:        s.UserID,
		UserName:      s.UserName,
		CustomerName:  s.CustomerName,
		Notes:         s.Notes,
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt,
		CompletedAt:   completed,
	}
}

// FromDomainSaleList maps a slice of sales.
func FromDomainSaleList(list []*domain.Sale) []Sale {
	resp := make([]Sale, 0, len(list))
	for _, s := range list {
		resp = append(resp, FromDomainSale(s))
	}
	return resp
}

// FromSaleResult maps a sale projection, flagging queued changes.
func FromSaleResult(result *ledgertypes.SaleResult) Sale {
	sale := FromDomainSale(result.Entity)
	sale.Queued, sale.ActionID = queuedFrom(result.Metadata)
	return sale
}

// FromCommandResult maps a command outcome.
func FromCommandResult(result *ledgertypes.CommandResult) CommandResult {
	if result == nil {
		return CommandResult{}
	}
	queued, actionID := queuedFrom(result.Metadata)
	return CommandResult{Applied: result.Applied, Queued: queued, ActionID: actionID}
}

// FromIdentity maps the signed-in user without its token.
func FromIdentity(identity *domain.Identity) Session {
	return Session{UserID: identity.UserID, UserName: identity.UserName}
}

// FromSyncStatus maps the connectivity read model.
func FromSyncStatus(status *ledgertypes.SyncStatus) SyncStatus {
	var last *time.Time
	if status.LastReplayAt != nil {
		at := *status.LastReplayAt
		last = &at
	}
	return SyncStatus{
		Online:        status.Online,
		QueuedActions: status.QueuedActions,
		LastReplayAt:  last,
		LastError:     status.LastError,
	}
}

// FromReplayReport maps a drain summary.
func FromReplayReport(report *ledgertypes.ReplayReport) ReplayReport {
	if report == nil {
		return ReplayReport{}
	}
	var rejections []ReplayRejection
	for _, r := range report.Rejections {
		rejections = append(rejections, ReplayRejection{ActionID: r.ActionID, ActionType: string(r.ActionType), Reason: r.Reason})
	}
	return ReplayReport{
		Applied:    report.Applied,
		Duplicates: report.Duplicates,
		Rejected:   report.Rejected,
		Remaining:  report.Remaining,
		Stopped:    report.Stopped,
		StopReason: report.StopReason,
		Rejections: rejections,
	}
}

// FromReport maps the dashboard summary.
func FromReport(report *ledgertypes.Report) Report {
	daily := make([]DailyRevenue, 0, len(report.Daily))
	for _, d := range report.Daily {
		daily = append(daily, DailyRevenue{
			Day:     d.Day.Format(time.DateOnly),
			Revenue: loosejson.NumberFromDecimal(d.Revenue),
			Sales:   d.Sales,
		})
	}
	categories := make([]CategoryStock, 0, len(report.Categories))
	for _, c := range report.Categories {
		categories = append(categories, CategoryStock{
			Category: c.Category,
			Units:    c.Units,
			Value:    loosejson.NumberFromDecimal(c.Value),
			Products: c.Products,
		})
	}
	return Report{
		GeneratedAt:       report.GeneratedAt,
		Revenue:           loosejson.NumberFromDecimal(report.Revenue),
		CompletedSales:    report.CompletedSales,
		PendingOrders:     report.PendingOrders,
		ItemsSold:         report.ItemsSold,
		StockUnits:        report.StockUnits,
		StockValue:        loosejson.NumberFromDecimal(report.StockValue),
		ProductCount:      report.ProductCount,
		LowStockThreshold: report.LowStockThreshold,
		LowStock:          FromDomainProductList(report.LowStock),
		OutOfStock:        FromDomainProductList(report.OutOfStock),
		Daily:             daily,
		TopProducts:       fromProductSales(report.TopProducts),
		SlowProducts:      fromProductSales(report.SlowProducts),
		Categories:        categories,
	}
}

func fromProductSales(list []ledgertypes.ProductSales) []ProductSales {
	resp := make([]ProductSales, 0, len(list))
	for _, p := range list {
		resp = append(resp, ProductSales{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			Revenue:     loosejson.NumberFromDecimal(p.Revenue),
		})
	}
	return resp
}

func queuedFrom(metadata projection.Metadata) (bool, string) {
	if !metadata.Queued {
		return false, ""
	}
	return true, metadata.ActionID
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copy := strings.TrimSpace(*value)
	return &copy
}
