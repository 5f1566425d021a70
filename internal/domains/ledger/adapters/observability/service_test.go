package observability

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	ledgermemory "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/memory"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
)

func TestService_RecordsSpansAndMetrics(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	ledger := application.NewLedger(ledgermemory.NewStore())
	require.NoError(t, ledger.Start(ctx))
	svc := New(ledger, WithTracer(tp.Tracer("test")), WithMeter(mp.Meter("test")))

	_, err := svc.AddProduct(ctx, ledgertypes.AddProductInput{Name: "Widget", Price: decimal.NewFromInt(10), Stock: 5})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, ledgertypes.CheckoutInput{})
	require.ErrorIs(t, err, application.ErrNoActor)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "Ledger.AddProduct", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "Ledger.Checkout", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	var names []string
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names = append(names, m.Name)
		}
	}
	assert.Contains(t, names, "ledger.service.product_changes")
}
