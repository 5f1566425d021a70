//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// The ledger API is verified against the dashboard's contract; the ledger itself is the
// consumer of the remote POS backend.
const (
	ProviderName = "pos-ledger-api"
	ConsumerName = "pos-dashboard"

	BackendProviderName = "pos-backend"
	BackendConsumerName = "pos-ledger"
)

const (
	StateCatalogEmpty   = "catalog is empty"
	StateProductExists  = "product pact-widget exists"
	StateProductMissing = "no product with id ghost"
	StateLedgerOnline   = "ledger is online with an empty queue"

	StateBackendProducts     = "backend has products"
	StateBackendNoSales      = "backend has no sales"
	StateBackendOrderMissing = "backend has no pending order ghost-order"
)

const (
	ExistingProductID = "pact-widget"
	MissingProductID  = "ghost"
	MissingOrderID    = "ghost-order"
	ProductName       = "Pact Widget"
	SearchQuery       = "widget"
	BackendToken      = "pact-token"
	ExampleSaleID     = "pact-sale-1"
	ExampleSaleDate   = "2024-06-12T10:00:00Z"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the pact file the dashboard consumer writes for the ledger API.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// BackendPactFile returns the pact file the ledger writes for the remote backend.
func BackendPactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), BackendConsumerName+"-"+BackendProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleProductPayload is the product the dashboard creates.
func ExampleProductPayload() map[string]any {
	return map[string]any{
		"id":    ExistingProductID,
		"name":  ProductName,
		"price": "4.50",
		"stock": 12,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
