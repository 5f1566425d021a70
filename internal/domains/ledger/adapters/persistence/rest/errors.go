package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Apurer/go-gin-pos-ledger/internal/clients/http/posbackend"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// mapError translates backend responses into the ledger port errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var statusErr *posbackend.StatusError
	if errors.As(err, &statusErr) {
		switch code := statusErr.StatusCode; {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return fmt.Errorf("%w: %w", ports.ErrUnauthorized, err)
		case code == http.StatusNotFound:
			return fmt.Errorf("%w: %w", ports.ErrNotFound, err)
		case code == http.StatusConflict:
			return fmt.Errorf("%w: %w", ports.ErrAlreadyExists, err)
		case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
		}
		return err
	}
	if errors.Is(err, posbackend.ErrTransport) {
		return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
	}
	return err
}
