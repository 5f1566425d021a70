package posserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ledgerapp "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	apierrors "github.com/Apurer/go-gin-pos-ledger/internal/shared/errors"
)

// Problem types the ledger answers with beyond the generic ones.
const (
	TypeInsufficientStock = apierrors.TypeInsufficientStock
	TypeSyncPending       = apierrors.TypeSyncPending
	TypeUnavailable       = apierrors.TypeUnavailable
)

// ShortfallProblem is the extension payload describing lines that exceeded stock.
type ShortfallProblem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

var ledgerResponder = apierrors.NewResponder("", mapLedgerError)

// mapLedgerError translates ledger errors into problem documents.
func mapLedgerError(err error) (apierrors.ProblemDetail, bool) {
	var shortage *domain.InsufficientStockError
	switch {
	case errors.As(err, &shortage):
		shortfalls := make([]ShortfallProblem, 0, len(shortage.Shortfalls))
		for _, s := range shortage.Shortfalls {
			shortfalls = append(shortfalls, ShortfallProblem(s))
		}
		return apierrors.ErrInsufficientStock.WithDetail(err.Error()).WithExtension("shortfalls", shortfalls), true
	case errors.Is(err, domain.ErrOutOfStock):
		return apierrors.ErrInsufficientStock.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ledgerapp.ErrInvalidInput), errors.Is(err, domain.ErrInvalidQuantity):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ledgerapp.ErrNoActor), errors.Is(err, ports.ErrUnauthorized):
		return apierrors.ErrUnauthorized.WithDetail(err.Error()), true
	case errors.Is(err, ledgerapp.ErrSyncPending):
		return apierrors.ErrSyncPending.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrAlreadyExists):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrUnavailable), errors.Is(err, ledgerapp.ErrClosed):
		return apierrors.ErrUnavailable.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// respondError answers a malformed request.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	apierrors.Respond(c, problem)
}

// respondMissingField answers a request that omitted a required member.
func respondMissingField(c *gin.Context, field string) {
	ledgerResponder.ValidationFailed(c, map[string]string{field: "is required"})
}

// respondLedgerError answers a failed ledger operation.
func respondLedgerError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	ledgerResponder.RespondError(c, err)
}
