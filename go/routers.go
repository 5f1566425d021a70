package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the handlers of every API part.
type ApiHandleFunctions struct {
	ProductAPI ProductAPI
	CartAPI    CartAPI
	SaleAPI    SaleAPI
	SessionAPI SessionAPI
	SyncAPI    SyncAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"ListProducts", http.MethodGet, "/v1/products", handleFunctions.ProductAPI.ListProducts},
		{"SearchProducts", http.MethodGet, "/v1/products/search", handleFunctions.ProductAPI.SearchProducts},
		{"AddProduct", http.MethodPost, "/v1/products", handleFunctions.ProductAPI.AddProduct},
		{"UpdateProduct", http.MethodPatch, "/v1/products/:productId", handleFunctions.ProductAPI.UpdateProduct},
		{"DeleteProduct", http.MethodDelete, "/v1/products/:productId", handleFunctions.ProductAPI.DeleteProduct},

		{"GetCart", http.MethodGet, "/v1/cart", handleFunctions.CartAPI.GetCart},
		{"AddToCart", http.MethodPost, "/v1/cart/items", handleFunctions.CartAPI.AddToCart},
		{"UpdateCartItem", http.MethodPut, "/v1/cart/items/:productId", handleFunctions.CartAPI.UpdateCartItem},
		{"RemoveFromCart", http.MethodDelete, "/v1/cart/items/:productId", handleFunctions.CartAPI.RemoveFromCart},
		{"ClearCart", http.MethodDelete, "/v1/cart", handleFunctions.CartAPI.ClearCart},

		{"Checkout", http.MethodPost, "/v1/checkout", handleFunctions.SaleAPI.Checkout},
		{"ListPendingOrders", http.MethodGet, "/v1/pending-orders", handleFunctions.SaleAPI.ListPendingOrders},
		{"HoldOrder", http.MethodPost, "/v1/pending-orders", handleFunctions.SaleAPI.HoldOrder},
		{"CompleteOrder", http.MethodPost, "/v1/pending-orders/:orderId/complete", handleFunctions.SaleAPI.CompleteOrder},
		{"CancelOrder", http.MethodDelete, "/v1/pending-orders/:orderId", handleFunctions.SaleAPI.CancelOrder},
		{"ListSales", http.MethodGet, "/v1/sales", handleFunctions.SaleAPI.ListSales},
		{"ClearSales", http.MethodDelete, "/v1/sales", handleFunctions.SaleAPI.ClearSales},

		{"GetReport", http.MethodGet, "/v1/reports/summary", handleFunctions.SyncAPI.GetReport},
		{"SetLowStockThreshold", http.MethodPut, "/v1/preferences/low-stock-threshold", handleFunctions.SyncAPI.SetLowStockThreshold},
		{"GetSyncStatus", http.MethodGet, "/v1/sync/status", handleFunctions.SyncAPI.GetSyncStatus},
		{"Replay", http.MethodPost, "/v1/sync/replay", handleFunctions.SyncAPI.Replay},

		{"StartSession", http.MethodPost, "/v1/session", handleFunctions.SessionAPI.StartSession},
		{"GetSession", http.MethodGet, "/v1/session", handleFunctions.SessionAPI.GetSession},
		{"EndSession", http.MethodDelete, "/v1/session", handleFunctions.SessionAPI.EndSession},
	}
}
