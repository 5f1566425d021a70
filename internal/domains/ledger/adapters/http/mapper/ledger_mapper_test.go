package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/projection"
)

func TestToAddProductInput_CoercesLooseNumbers(t *testing.T) {
	var payload ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":" Widget ","price":"4.50","stock":"7.9"}`), &payload))

	input := ToAddProductInput(payload)
	assert.Equal(t, "Widget", input.Name)
	assert.True(t, decimal.RequireFromString("4.5").Equal(input.Price))
	assert.Equal(t, 7, input.Stock)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Bad","price":"abc","stock":-3}`), &payload))
	input = ToAddProductInput(payload)
	assert.True(t, input.Price.IsZero())
	assert.Zero(t, input.Stock)
}

func TestToUpdateProductInput_KeepsFieldPresence(t *testing.T) {
	var payload ProductPatch
	require.NoError(t, json.Unmarshal([]byte(`{"stock":"12"}`), &payload))

	input := ToUpdateProductInput("p1", payload)
	assert.Equal(t, "p1", input.ID)
	assert.Equal(t, []string{domain.FieldStock}, input.Patch.Fields())
	require.NotNil(t, input.Patch.Stock)
	assert.Equal(t, 12, *input.Patch.Stock)
}

func TestToCartItemInput_DefaultsToOneUnit(t *testing.T) {
	input := ToCartItemInput("", CartItem{ProductID: "p1"})
	assert.Equal(t, ledgertypes.CartItemInput{ProductID: "p1", Quantity: 1}, input)

	qty := 0
	input = ToCartItemInput("p2", CartItem{ProductID: "ignored", Quantity: &qty})
	assert.Equal(t, ledgertypes.CartItemInput{ProductID: "p2", Quantity: 0}, input)
}

func TestFromSaleResult_EncodesNumbersAndQueueFlag(t *testing.T) {
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	sale, err := domain.NewSale([]domain.CartLine{{ProductID: "p1", ProductName: "Widget", Price: decimal.RequireFromString("2.25"), Quantity: 2}}, domain.SaleStatusCompleted, at)
	require.NoError(t, err)

	dto := FromSaleResult(projection.New(sale, projection.Metadata{Queued: true, ActionID: "a-1"}))
	assert.True(t, dto.Queued)
	assert.Equal(t, "a-1", dto.ActionID)

	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 4.5, decoded["total"])
	assert.Equal(t, "COMPLETED", decoded["status"])
	items := decoded["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 4.5, items[0].(map[string]any)["subtotal"])
}

func TestFromIdentity_NeverEchoesToken(t *testing.T) {
	session := FromIdentity(&domain.Identity{UserID: "u1", UserName: "Ana", Token: "secret"})
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}
