package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid ledger input")
	// ErrNoActor signals an operation that needs a signed-in user ran without one.
	ErrNoActor = errors.New("no signed-in user")
	// ErrSyncPending signals a destructive operation was refused while offline actions wait to replay.
	ErrSyncPending = errors.New("offline actions are still waiting to sync")
	// ErrClosed signals the ledger has been shut down.
	ErrClosed = errors.New("ledger is closed")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrSaleNotPending) ||
		errors.Is(err, domain.ErrInvalidThreshold) ||
		errors.Is(err, domain.ErrInvalidAction) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
