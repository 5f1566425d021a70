package posserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ledgermapper "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/http/mapper"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// CartAPI exposes the active cart.
type CartAPI struct {
	service ports.Service
}

// NewCartAPI creates a CartAPI backed by the ledger service.
func NewCartAPI(service ports.Service) CartAPI {
	return CartAPI{service: service}
}

// Get /v1/cart
// Returns the active cart
func (api *CartAPI) GetCart(c *gin.Context) {
	view, err := api.service.Cart(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromCartView(view))
}

// Post /v1/cart/items
// Adds units of a product to the cart
func (api *CartAPI) AddToCart(c *gin.Context) {
	var payload ledgermapper.CartItem
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		respondMissingField(c, "productId")
		return
	}
	view, err := api.service.AddToCart(c.Request.Context(), ledgermapper.ToCartItemInput("", payload))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromCartView(view))
}

// Put /v1/cart/items/:productId
// Sets the quantity of a cart line; zero removes it
func (api *CartAPI) UpdateCartItem(c *gin.Context) {
	var payload ledgermapper.CartItem
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Quantity == nil {
		respondMissingField(c, "quantity")
		return
	}
	view, err := api.service.UpdateCartItemQuantity(c.Request.Context(), ledgermapper.ToCartItemInput(c.Param("productId"), payload))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromCartView(view))
}

// Delete /v1/cart/items/:productId
// Removes a cart line
func (api *CartAPI) RemoveFromCart(c *gin.Context) {
	view, err := api.service.RemoveFromCart(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromCartView(view))
}

// Delete /v1/cart
// Empties the cart
func (api *CartAPI) ClearCart(c *gin.Context) {
	if err := api.service.ClearCart(c.Request.Context()); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
