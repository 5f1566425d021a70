package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ledgermemory "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/memory"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports/mocks"
)

func addProductAction(name string) domain.Action {
	action := domain.NewAction(domain.ActionAddProduct, fixedNow)
	action.Product = domain.NewProduct("", name, decimal.NewFromInt(1), 1)
	action.ProductID = action.Product.ID
	return action
}

func TestReplayer_DeliversEachActionOnce(t *testing.T) {
	ctx := context.Background()
	store := ledgermemory.NewStore()
	queue := ledgermemory.NewOfflineQueue()
	replayLog := ledgermemory.NewReplayLog()
	replayer := NewReplayer(store, queue, WithReplayerLog(replayLog), WithReplayerClock(clock))

	action := addProductAction("Widget")
	require.NoError(t, queue.Enqueue(ctx, action))

	report, err := replayer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)

	// the acknowledgement was lost and the same action shows up again
	require.NoError(t, queue.Enqueue(ctx, action))
	report, err = replayer.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Applied)
	assert.Equal(t, 1, report.Duplicates)

	products, err := store.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	remaining, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	record, err := replayLog.Get(ctx, action.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, ports.ReplayApplied, record.Outcome)
	assert.Equal(t, fixedNow, record.AppliedAt)
}

func TestReplayer_BackendDuplicateCountsAsDelivered(t *testing.T) {
	ctx := context.Background()
	store := ledgermemory.NewStore()
	queue := ledgermemory.NewOfflineQueue()
	replayer := NewReplayer(store, queue)

	action := addProductAction("Widget")
	_, err := store.CreateProduct(ctx, action.Product)
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(ctx, action))

	record, err := replayer.ReplayAction(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, ports.ReplayDuplicate, record.Outcome)
}

func TestReplayer_RejectedActionDoesNotBlockQueue(t *testing.T) {
	ctx := context.Background()
	backend := new(mocks.MockPersistence)
	backend.On("CreateProduct", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil, errors.New("name is reserved")).Once()
	backend.On("CreateProduct", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(&domain.Product{ID: "ok"}, nil).Once()
	queue := ledgermemory.NewOfflineQueue()
	replayer := NewReplayer(backend, queue)

	bad := addProductAction("Reserved")
	good := addProductAction("Fine")
	require.NoError(t, queue.Enqueue(ctx, bad))
	require.NoError(t, queue.Enqueue(ctx, good))

	report, err := replayer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Rejections, 1)
	assert.Equal(t, bad.ID, report.Rejections[0].ActionID)
	assert.Contains(t, report.Rejections[0].Reason, "reserved")
	backend.AssertExpectations(t)
}

func TestReplayer_StopsOnUnauthorized(t *testing.T) {
	ctx := context.Background()
	backend := new(mocks.MockPersistence)
	backend.On("DeleteProduct", mock.Anything, "p1").Return(ports.ErrUnauthorized)
	queue := ledgermemory.NewOfflineQueue()
	replayer := NewReplayer(backend, queue)

	action := domain.NewAction(domain.ActionDeleteProduct, fixedNow)
	action.ProductID = "p1"
	require.NoError(t, queue.Enqueue(ctx, action))

	report, err := replayer.Drain(ctx)
	require.ErrorIs(t, err, ports.ErrUnauthorized)
	require.NotNil(t, report)
	assert.True(t, report.Stopped)
	assert.Equal(t, 1, report.Remaining)

	remaining, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

// blockingDrain parks inside the drain until release is closed.
func blockingDrain(started chan<- struct{}, release <-chan struct{}) ports.DrainFunc {
	return func(context.Context) (*ledgertypes.ReplayReport, error) {
		close(started)
		<-release
		return &ledgertypes.ReplayReport{}, nil
	}
}

func TestReplayWith_CommandsProceedDuringDrain(t *testing.T) {
	ctx := context.Background()
	store := ledgermemory.NewStore()
	store.Seed(widget(5))
	l := startLedger(t, store)
	signIn(t, l)

	started := make(chan struct{})
	release := make(chan struct{})
	replayed := make(chan error, 1)
	go func() {
		_, err := l.ReplayWith(ctx, blockingDrain(started, release))
		replayed <- err
	}()
	<-started

	sold := make(chan error, 1)
	go func() {
		if _, err := l.AddToCart(ctx, ledgertypes.CartItemInput{ProductID: "p1", Quantity: 2}); err != nil {
			sold <- err
			return
		}
		_, err := l.Checkout(ctx, ledgertypes.CheckoutInput{PaymentMethod: "Cash"})
		sold <- err
	}()
	select {
	case err := <-sold:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("checkout waited for the replay drain")
	}

	close(release)
	require.NoError(t, <-replayed)
	products, err := store.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 3, products[0].Stock)

	status, err := l.SyncStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Online)
	require.NotNil(t, status.LastReplayAt)
}

func TestReplayWith_CloseDuringDrain(t *testing.T) {
	ctx := context.Background()
	l := startLedger(t, ledgermemory.NewStore())

	started := make(chan struct{})
	release := make(chan struct{})
	replayed := make(chan error, 1)
	go func() {
		_, err := l.ReplayWith(ctx, blockingDrain(started, release))
		replayed <- err
	}()
	<-started

	require.NoError(t, l.Close(ctx))
	close(release)
	assert.ErrorIs(t, <-replayed, ErrClosed)
}

func TestFingerprintAction_IgnoresIdentityAndTime(t *testing.T) {
	product := domain.NewProduct("p1", "Widget", decimal.NewFromInt(10), 5)
	a := domain.NewAction(domain.ActionAddProduct, fixedNow)
	a.Product = product
	b := domain.NewAction(domain.ActionAddProduct, fixedNow.Add(1))
	b.Product = product.Clone()

	fa, err := FingerprintAction(a)
	require.NoError(t, err)
	fb, err := FingerprintAction(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)

	b.Product.Stock = 6
	fc, err := FingerprintAction(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}
