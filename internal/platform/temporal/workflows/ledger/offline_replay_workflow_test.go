package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/memory"
	ledgerapp "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports/mocks"
	ledgeractivities "github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/activities/ledger"
	ledgerworkflows "github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/workflows/ledger"
)

func newReplayEnv(t *testing.T, backend ports.Persistence, queue ports.OfflineQueue) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	replayer := ledgerapp.NewReplayer(backend, queue, ledgerapp.WithReplayerLog(memory.NewReplayLog()))
	acts := ledgeractivities.NewActivities(replayer)
	env.RegisterWorkflowWithOptions(ledgerworkflows.OfflineReplayWorkflow, workflow.RegisterOptions{Name: ledgerworkflows.OfflineReplayWorkflowName})
	env.RegisterActivityWithOptions(acts.ListPendingActions, activity.RegisterOptions{Name: ledgeractivities.ListPendingActionsActivityName})
	env.RegisterActivityWithOptions(acts.ReplayAction, activity.RegisterOptions{Name: ledgeractivities.ReplayActionActivityName})
	return env
}

func queueProducts(t *testing.T, queue ports.OfflineQueue, ids ...string) {
	t.Helper()
	for _, id := range ids {
		action := domain.NewAction(domain.ActionAddProduct, time.Now())
		action.Product = domain.NewProduct(id, "Item "+id, decimal.NewFromInt(2), 3)
		require.NoError(t, queue.Enqueue(context.Background(), action))
	}
}

func TestOfflineReplayWorkflow_DeliversQueueInOrder(t *testing.T) {
	store := memory.NewStore()
	queue := memory.NewOfflineQueue()
	queueProducts(t, queue, "p1", "p2", "p3")

	env := newReplayEnv(t, store, queue)
	env.ExecuteWorkflow(ledgerworkflows.OfflineReplayWorkflowName, ledgerworkflows.OfflineReplayWorkflowInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var report ledgertypes.ReplayReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.Equal(t, 3, report.Applied)
	assert.False(t, report.Stopped)

	products, err := store.LoadProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "p3", products[2].ID)

	remaining, err := queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestOfflineReplayWorkflow_BatchLimitsDelivery(t *testing.T) {
	queue := memory.NewOfflineQueue()
	queueProducts(t, queue, "p1", "p2", "p3")

	env := newReplayEnv(t, memory.NewStore(), queue)
	env.ExecuteWorkflow(ledgerworkflows.OfflineReplayWorkflowName, ledgerworkflows.OfflineReplayWorkflowInput{Batch: 2})

	require.NoError(t, env.GetWorkflowError())
	var report ledgertypes.ReplayReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.Equal(t, 2, report.Applied)

	remaining, err := queue.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestOfflineReplayWorkflow_PausesWhileBackendUnreachable(t *testing.T) {
	store := memory.NewStore()
	store.SetOffline(true)
	queue := memory.NewOfflineQueue()
	queueProducts(t, queue, "p1", "p2")

	env := newReplayEnv(t, store, queue)
	env.ExecuteWorkflow(ledgerworkflows.OfflineReplayWorkflowName, ledgerworkflows.OfflineReplayWorkflowInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var report ledgertypes.ReplayReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.True(t, report.Stopped)
	assert.Equal(t, 2, report.Remaining)
	assert.Zero(t, report.Applied)

	remaining, err := queue.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestOfflineReplayWorkflow_FailsOnRejectedCredentials(t *testing.T) {
	backend := new(mocks.MockPersistence)
	backend.On("CreateProduct", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: token expired", ports.ErrUnauthorized)).Once()
	queue := memory.NewOfflineQueue()
	queueProducts(t, queue, "p1")

	env := newReplayEnv(t, backend, queue)
	env.ExecuteWorkflow(ledgerworkflows.OfflineReplayWorkflowName, ledgerworkflows.OfflineReplayWorkflowInput{})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ledgeractivities.ErrTypeUnauthorized, appErr.Type())
	backend.AssertExpectations(t)

	remaining, qerr := queue.Len(context.Background())
	require.NoError(t, qerr)
	assert.Equal(t, 1, remaining)
}
