package posserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ledgermapper "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/http/mapper"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// SessionAPI signs the terminal's user in and out.
type SessionAPI struct {
	service ports.Service
}

// NewSessionAPI creates a SessionAPI backed by the ledger service.
func NewSessionAPI(service ports.Service) SessionAPI {
	return SessionAPI{service: service}
}

// Post /v1/session
// Signs a user in
func (api *SessionAPI) StartSession(c *gin.Context) {
	var payload ledgermapper.Session
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := api.service.StartSession(c.Request.Context(), ledgermapper.ToIdentity(payload)); err != nil {
		respondLedgerError(c, err)
		return
	}
	api.GetSession(c)
}

// Get /v1/session
// Returns the signed-in user
func (api *SessionAPI) GetSession(c *gin.Context) {
	identity, err := api.service.Session(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if identity == nil {
		respondError(c, http.StatusNotFound, errors.New("no user is signed in"))
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromIdentity(identity))
}

// Delete /v1/session
// Signs the user out
func (api *SessionAPI) EndSession(c *gin.Context) {
	if err := api.service.EndSession(c.Request.Context()); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
