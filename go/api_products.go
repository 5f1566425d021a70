package posserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ledgermapper "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/http/mapper"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	apierrors "github.com/Apurer/go-gin-pos-ledger/internal/shared/errors"
)

// ProductAPI exposes the catalog.
type ProductAPI struct {
	service ports.Service
}

// NewProductAPI creates a ProductAPI backed by the ledger service.
func NewProductAPI(service ports.Service) ProductAPI {
	return ProductAPI{service: service}
}

// Get /v1/products
// Lists the catalog
func (api *ProductAPI) ListProducts(c *gin.Context) {
	products, err := api.service.ListProducts(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromDomainProductList(products))
}

// Get /v1/products/search
// Finds products by name, sku or category
func (api *ProductAPI) SearchProducts(c *gin.Context) {
	products, err := api.service.SearchProducts(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromDomainProductList(products))
}

// Post /v1/products
// Adds a product to the catalog
func (api *ProductAPI) AddProduct(c *gin.Context) {
	var payload ledgermapper.ProductInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		respondMissingField(c, "name")
		return
	}
	saved, err := api.service.AddProduct(c.Request.Context(), ledgermapper.ToAddProductInput(payload))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(statusFor(saved.Metadata.Queued, http.StatusCreated), ledgermapper.FromProductResult(saved))
}

// Patch /v1/products/:productId
// Merges the supplied fields into a product
func (api *ProductAPI) UpdateProduct(c *gin.Context) {
	id := c.Param("productId")
	var payload ledgermapper.ProductPatch
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	updated, err := api.service.UpdateProduct(c.Request.Context(), ledgermapper.ToUpdateProductInput(id, payload))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if updated == nil {
		ledgerResponder.Respond(c, apierrors.NewNotFoundProblem("product", id))
		return
	}
	c.JSON(statusFor(updated.Metadata.Queued, http.StatusOK), ledgermapper.FromProductResult(updated))
}

// Delete /v1/products/:productId
// Removes a product from the catalog and the cart
func (api *ProductAPI) DeleteProduct(c *gin.Context) {
	result, err := api.service.DeleteProduct(c.Request.Context(), ledgertypes.ProductIdentifier{ID: c.Param("productId")})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(statusFor(result.Metadata.Queued, http.StatusOK), ledgermapper.FromCommandResult(result))
}

// statusFor answers 202 when the change waits in the offline queue.
func statusFor(queued bool, status int) int {
	if queued {
		return http.StatusAccepted
	}
	return status
}
