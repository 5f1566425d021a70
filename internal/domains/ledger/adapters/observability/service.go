package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

const tracerName = "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/observability/service"

// Service decorates the ledger application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core ledger.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Ledger.ListProducts")
	defer span.End()

	result, err := s.inner.ListProducts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	span.SetAttributes(attribute.Int("product.result.count", len(result)))
	return result, nil
}

func (s *Service) SearchProducts(ctx context.Context, query string) ([]*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Ledger.SearchProducts", attribute.String("product.query", query))
	defer span.End()

	result, err := s.inner.SearchProducts(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to search products")
	}
	span.SetAttributes(attribute.Int("product.result.count", len(result)))
	return result, nil
}

// AddProduct creates a catalog item with instrumentation.
func (s *Service) AddProduct(ctx context.Context, input ledgertypes.AddProductInput) (*ledgertypes.ProductResult, error) {
	ctx, span := s.startSpan(ctx, "Ledger.AddProduct", attribute.String("product.name", input.Name))
	defer span.End()

	s.logInfo(ctx, "adding product", slog.String("product.name", input.Name))
	result, err := s.inner.AddProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add product", slog.String("product.name", input.Name))
	}
	s.metrics.recordProduct(ctx, "created", result.Metadata.Queued)
	span.SetAttributes(attribute.String("product.id", result.Entity.ID), attribute.Bool("ledger.queued", result.Metadata.Queued))
	s.logInfo(ctx, "product added", slog.String("product.id", result.Entity.ID), slog.Bool("queued", result.Metadata.Queued))
	return result, nil
}

// UpdateProduct merges a patch with instrumentation.
func (s *Service) UpdateProduct(ctx context.Context, input ledgertypes.UpdateProductInput) (*ledgertypes.ProductResult, error) {
	ctx, span := s.startSpan(ctx, "Ledger.UpdateProduct", attribute.String("product.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "updating product", slog.String("product.id", input.ID))
	result, err := s.inner.UpdateProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update product", slog.String("product.id", input.ID))
	}
	if result == nil {
		s.logInfo(ctx, "product update skipped, unknown id", slog.String("product.id", input.ID))
		return nil, nil
	}
	s.metrics.recordProduct(ctx, "updated", result.Metadata.Queued)
	s.logInfo(ctx, "product updated", slog.String("product.id", input.ID), slog.Bool("queued", result.Metadata.Queued))
	return result, nil
}

// DeleteProduct removes a catalog item with instrumentation.
func (s *Service) DeleteProduct(ctx context.Context, input ledgertypes.ProductIdentifier) (*ledgertypes.CommandResult, error) {
	ctx, span := s.startSpan(ctx, "Ledger.DeleteProduct", attribute.String("product.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "deleting product", slog.String("product.id", input.ID))
	result, err := s.inner.DeleteProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to delete product", slog.String("product.id", input.ID))
	}
	if result.Applied {
		s.metrics.recordProduct(ctx, "deleted", result.Metadata.Queued)
	}
	s.logInfo(ctx, "product deleted", slog.String("product.id", input.ID), slog.Bool("applied", result.Applied))
	return result, nil
}

func (s *Service) Cart(ctx context.Context) (*ledgertypes.CartView, error) {
	return s.inner.Cart(ctx)
}

func (s *Service) AddToCart(ctx context.Context, input ledgertypes.CartItemInput) (*ledgertypes.CartView, error) {
	ctx, span := s.startSpan(ctx, "Ledger.AddToCart",
		attribute.String("product.id", input.ProductID), attribute.Int("cart.quantity", input.Quantity))
	defer span.End()

	result, err := s.inner.AddToCart(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrOutOfStock) {
			s.metrics.recordShortfall(ctx, "cart")
		}
		return nil, s.handleError(ctx, span, err, "failed to add to cart", slog.String("product.id", input.ProductID))
	}
	return result, nil
}

func (s *Service) UpdateCartItemQuantity(ctx context.Context, input ledgertypes.CartItemInput) (*ledgertypes.CartView, error) {
	ctx, span := s.startSpan(ctx, "Ledger.UpdateCartItemQuantity",
		attribute.String("product.id", input.ProductID), attribute.Int("cart.quantity", input.Quantity))
	defer span.End()

	result, err := s.inner.UpdateCartItemQuantity(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update cart line", slog.String("product.id", input.ProductID))
	}
	return result, nil
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) (*ledgertypes.CartView, error) {
	return s.inner.RemoveFromCart(ctx, productID)
}

func (s *Service) ClearCart(ctx context.Context) error {
	return s.inner.ClearCart(ctx)
}

// Checkout converts the cart into a sale with instrumentation.
func (s *Service) Checkout(ctx context.Context, input ledgertypes.CheckoutInput) (*ledgertypes.SaleResult, error) {
	ctx, span := s.startSpan(ctx, "Ledger.Checkout", attribute.String("sale.payment_method", input.PaymentMethod))
	defer span.End()

	s.logInfo(ctx, "checking out cart")
	result, err := s.inner.Checkout(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.recordShortfall(ctx, "checkout")
		}
		return nil, s.handleError(ctx, span, err, "failed to check out")
	}
	s.metrics.recordSale(ctx, result.Entity, result.Metadata.Queued)
	span.SetAttributes(attribute.String("sale.id", result.Entity.ID), attribute.Bool("ledger.queued", result.Metadata.Queued))
	s.logInfo(ctx, "sale completed",
		slog.String("sale.id", result.Entity.ID),
		slog.String("sale.total", result.Entity.Total.StringFixed(2)),
		slog.Bool("queued", result.Metadata.Queued))
	return result, nil
}

// HoldOrder parks the cart with instrumentation.
func (s *Service) HoldOrder(ctx context.Context, input ledgertypes.HoldOrderInput) (*ledgertypes.SaleResult, error) {
	ctx, span := s.startSpan(ctx, "Ledger.HoldOrder")
	defer span.End()

	s.logInfo(ctx, "holding order", slog.String("customer", input.CustomerName))
	result, err := s.inner.HoldOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to hold order")
	}
	s.metrics.recordSale(ctx, result.Entity, result.Metadata.Queued)
	s.logInfo(ctx, "order held", slog.String("order.id", result.Entity.ID), slog.Bool("queued", result.Metadata.Queued))
	return result, nil
}

// CompleteOrder finalizes a pending order with instrumentation.
func (s *Service) CompleteOrder(ctx context.Context, input ledgertypes.CompleteOrderInput) (*ledgertypes.SaleResult, error) {
	ctx, span := s.startSpan(ctx, "Ledger.CompleteOrder", attribute.String("order.id", input.OrderID))
	defer span.End()

	s.logInfo(ctx, "completing order", slog.String("order.id", input.OrderID))
	result, err := s.inner.CompleteOrder(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.recordShortfall(ctx, "complete")
		}
		return nil, s.handleError(ctx, span, err, "failed to complete order", slog.String("order.id", input.OrderID))
	}
	s.metrics.recordSale(ctx, result.Entity, result.Metadata.Queued)
	s.logInfo(ctx, "order completed", slog.String("order.id", input.OrderID), slog.Bool("queued", result.Metadata.Queued))
	return result, nil
}

// CancelOrder discards a pending order with instrumentation.
func (s *Service) CancelOrder(ctx context.Context, input ledgertypes.OrderIdentifier) (*ledgertypes.CommandResult, error) {
	ctx, span := s.startSpan(ctx, "Ledger.CancelOrder", attribute.String("order.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.String("order.id", input.ID))
	result, err := s.inner.CancelOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.String("order.id", input.ID))
	}
	if result.Applied {
		s.metrics.recordCancelled(ctx, result.Metadata.Queued)
	}
	s.logInfo(ctx, "order cancelled", slog.String("order.id", input.ID), slog.Bool("applied", result.Applied))
	return result, nil
}

func (s *Service) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	ctx, span := s.startSpan(ctx, "Ledger.ListSales")
	defer span.End()

	result, err := s.inner.ListSales(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list sales")
	}
	span.SetAttributes(attribute.Int("sale.result.count", len(result)))
	return result, nil
}

func (s *Service) ListPendingOrders(ctx context.Context) ([]*domain.Sale, error) {
	ctx, span := s.startSpan(ctx, "Ledger.ListPendingOrders")
	defer span.End()

	result, err := s.inner.ListPendingOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

// ClearSales deletes completed sales with instrumentation.
func (s *Service) ClearSales(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ledger.ClearSales")
	defer span.End()

	s.logInfo(ctx, "clearing sales")
	if err := s.inner.ClearSales(ctx); err != nil {
		return s.handleError(ctx, span, err, "failed to clear sales")
	}
	s.logInfo(ctx, "sales cleared")
	return nil
}

func (s *Service) Report(ctx context.Context, input ledgertypes.ReportInput) (*ledgertypes.Report, error) {
	ctx, span := s.startSpan(ctx, "Ledger.Report", attribute.Int("report.days", input.Days))
	defer span.End()

	result, err := s.inner.Report(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to build report")
	}
	span.SetAttributes(
		attribute.Int("report.completed_sales", result.CompletedSales),
		attribute.Int("report.low_stock", len(result.LowStock)))
	return result, nil
}

func (s *Service) SetLowStockThreshold(ctx context.Context, threshold int) error {
	ctx, span := s.startSpan(ctx, "Ledger.SetLowStockThreshold", attribute.Int("ledger.low_stock_threshold", threshold))
	defer span.End()

	if err := s.inner.SetLowStockThreshold(ctx, threshold); err != nil {
		return s.handleError(ctx, span, err, "failed to set low stock threshold")
	}
	s.logInfo(ctx, "low stock threshold changed", slog.Int("threshold", threshold))
	return nil
}

func (s *Service) StartSession(ctx context.Context, identity domain.Identity) error {
	ctx, span := s.startSpan(ctx, "Ledger.StartSession", attribute.String("user.id", identity.UserID))
	defer span.End()

	if err := s.inner.StartSession(ctx, identity); err != nil {
		return s.handleError(ctx, span, err, "failed to start session", slog.String("user.id", identity.UserID))
	}
	return nil
}

func (s *Service) EndSession(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ledger.EndSession")
	defer span.End()

	if err := s.inner.EndSession(ctx); err != nil {
		return s.handleError(ctx, span, err, "failed to end session")
	}
	s.logInfo(ctx, "session ended")
	return nil
}

func (s *Service) Session(ctx context.Context) (*domain.Identity, error) {
	return s.inner.Session(ctx)
}

func (s *Service) SyncStatus(ctx context.Context) (*ledgertypes.SyncStatus, error) {
	return s.inner.SyncStatus(ctx)
}

// Replay drains the offline queue with instrumentation.
func (s *Service) Replay(ctx context.Context) (*ledgertypes.ReplayReport, error) {
	ctx, span := s.startSpan(ctx, "Ledger.Replay")
	defer span.End()

	result, err := s.inner.Replay(ctx)
	return s.finishReplay(ctx, span, result, err)
}

func (s *Service) ReplayWith(ctx context.Context, drain ports.DrainFunc) (*ledgertypes.ReplayReport, error) {
	ctx, span := s.startSpan(ctx, "Ledger.ReplayWith")
	defer span.End()

	result, err := s.inner.ReplayWith(ctx, drain)
	return s.finishReplay(ctx, span, result, err)
}

func (s *Service) finishReplay(ctx context.Context, span trace.Span, result *ledgertypes.ReplayReport, err error) (*ledgertypes.ReplayReport, error) {
	if result != nil {
		s.metrics.recordReplay(ctx, result)
		span.SetAttributes(
			attribute.Int("replay.applied", result.Applied),
			attribute.Int("replay.duplicates", result.Duplicates),
			attribute.Int("replay.rejected", result.Rejected),
			attribute.Int("replay.remaining", result.Remaining))
	}
	if err != nil {
		return result, s.handleError(ctx, span, err, "offline replay failed")
	}
	if result != nil && (result.Applied+result.Duplicates+result.Rejected) > 0 {
		s.logInfo(ctx, "offline replay finished",
			slog.Int("applied", result.Applied),
			slog.Int("duplicates", result.Duplicates),
			slog.Int("rejected", result.Rejected),
			slog.Int("remaining", result.Remaining))
	}
	return result, nil
}

func (s *Service) Resync(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ledger.Resync")
	defer span.End()

	if err := s.inner.Resync(ctx); err != nil {
		return s.handleError(ctx, span, err, "failed to resync ledger")
	}
	return nil
}

func (s *Service) ApplyRemoteSnapshot(ctx context.Context, snapshot ports.Snapshot) error {
	ctx, span := s.startSpan(ctx, "Ledger.ApplyRemoteSnapshot",
		attribute.Int("snapshot.products", len(snapshot.Products)),
		attribute.Int("snapshot.sales", len(snapshot.Sales)),
		attribute.Int("snapshot.pending", len(snapshot.PendingOrders)))
	defer span.End()

	if err := s.inner.ApplyRemoteSnapshot(ctx, snapshot); err != nil {
		return s.handleError(ctx, span, err, "failed to apply remote snapshot")
	}
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	productChanges  metric.Int64Counter
	sales           metric.Int64Counter
	itemsSold       metric.Int64Counter
	ordersCancelled metric.Int64Counter
	shortfalls      metric.Int64Counter
	replayed        metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	productChanges, _ := m.Int64Counter("ledger.service.product_changes", metric.WithDescription("Number of catalog mutations"))
	sales, _ := m.Int64Counter("ledger.service.sales", metric.WithDescription("Number of sales recorded, by status"))
	itemsSold, _ := m.Int64Counter("ledger.service.items_sold", metric.WithDescription("Units removed from stock by completed sales"))
	ordersCancelled, _ := m.Int64Counter("ledger.service.orders_cancelled", metric.WithDescription("Number of pending orders cancelled"))
	shortfalls, _ := m.Int64Counter("ledger.service.stock_shortfalls", metric.WithDescription("Operations refused for insufficient stock"))
	replayed, _ := m.Int64Counter("ledger.service.replayed_actions", metric.WithDescription("Offline actions replayed, by outcome"))
	return serviceMetrics{
		productChanges:  productChanges,
		sales:           sales,
		itemsSold:       itemsSold,
		ordersCancelled: ordersCancelled,
		shortfalls:      shortfalls,
		replayed:        replayed,
	}
}

func (m serviceMetrics) recordProduct(ctx context.Context, change string, queued bool) {
	addCounter(ctx, m.productChanges, 1, attribute.String("product.change", change), attribute.Bool("ledger.queued", queued))
}

func (m serviceMetrics) recordSale(ctx context.Context, sale *domain.Sale, queued bool) {
	if sale == nil {
		return
	}
	addCounter(ctx, m.sales, 1, attribute.String("sale.status", string(sale.Status)), attribute.Bool("ledger.queued", queued))
	if sale.Status == domain.SaleStatusCompleted {
		addCounter(ctx, m.itemsSold, int64(sale.ItemCount()))
	}
}

func (m serviceMetrics) recordCancelled(ctx context.Context, queued bool) {
	addCounter(ctx, m.ordersCancelled, 1, attribute.Bool("ledger.queued", queued))
}

func (m serviceMetrics) recordShortfall(ctx context.Context, stage string) {
	addCounter(ctx, m.shortfalls, 1, attribute.String("ledger.stage", stage))
}

func (m serviceMetrics) recordReplay(ctx context.Context, report *ledgertypes.ReplayReport) {
	addCounter(ctx, m.replayed, int64(report.Applied), attribute.String("replay.outcome", string(ports.ReplayApplied)))
	addCounter(ctx, m.replayed, int64(report.Duplicates), attribute.String("replay.outcome", string(ports.ReplayDuplicate)))
	addCounter(ctx, m.replayed, int64(report.Rejected), attribute.String("replay.outcome", string(ports.ReplayRejected)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil || value == 0 {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
