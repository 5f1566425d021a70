package posserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ledgermapper "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/http/mapper"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// SaleAPI exposes checkout, pending orders and the sales history.
type SaleAPI struct {
	service ports.Service
}

// NewSaleAPI creates a SaleAPI backed by the ledger service.
func NewSaleAPI(service ports.Service) SaleAPI {
	return SaleAPI{service: service}
}

// Post /v1/checkout
// Turns the cart into a completed sale
func (api *SaleAPI) Checkout(c *gin.Context) {
	var payload ledgermapper.Checkout
	if !bindOptionalJSON(c, &payload) {
		return
	}
	sale, err := api.service.Checkout(c.Request.Context(), ledgertypes.CheckoutInput{PaymentMethod: payload.PaymentMethod})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(statusFor(sale.Metadata.Queued, http.StatusCreated), ledgermapper.FromSaleResult(sale))
}

// Get /v1/pending-orders
// Lists held orders
func (api *SaleAPI) ListPendingOrders(c *gin.Context) {
	orders, err := api.service.ListPendingOrders(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromDomainSaleList(orders))
}

// Post /v1/pending-orders
// Parks the cart as a pending order
func (api *SaleAPI) HoldOrder(c *gin.Context) {
	var payload ledgermapper.HoldOrder
	if !bindOptionalJSON(c, &payload) {
		return
	}
	order, err := api.service.HoldOrder(c.Request.Context(), ledgertypes.HoldOrderInput{CustomerName: payload.CustomerName, Notes: payload.Notes})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(statusFor(order.Metadata.Queued, http.StatusCreated), ledgermapper.FromSaleResult(order))
}

// Post /v1/pending-orders/:orderId/complete
// Completes a pending order against live stock
func (api *SaleAPI) CompleteOrder(c *gin.Context) {
	var payload ledgermapper.Checkout
	if !bindOptionalJSON(c, &payload) {
		return
	}
	input := ledgertypes.CompleteOrderInput{OrderID: c.Param("orderId"), PaymentMethod: payload.PaymentMethod}
	sale, err := api.service.CompleteOrder(c.Request.Context(), input)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(statusFor(sale.Metadata.Queued, http.StatusOK), ledgermapper.FromSaleResult(sale))
}

// Delete /v1/pending-orders/:orderId
// Discards a pending order
func (api *SaleAPI) CancelOrder(c *gin.Context) {
	result, err := api.service.CancelOrder(c.Request.Context(), ledgertypes.OrderIdentifier{ID: c.Param("orderId")})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(statusFor(result.Metadata.Queued, http.StatusOK), ledgermapper.FromCommandResult(result))
}

// Get /v1/sales
// Lists completed sales
func (api *SaleAPI) ListSales(c *gin.Context) {
	sales, err := api.service.ListSales(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromDomainSaleList(sales))
}

// Delete /v1/sales
// Clears the completed sales history
func (api *SaleAPI) ClearSales(c *gin.Context) {
	if err := api.service.ClearSales(c.Request.Context()); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindOptionalJSON decodes a body when one was sent. An empty body leaves target untouched.
func bindOptionalJSON(c *gin.Context, target any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}
