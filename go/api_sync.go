package posserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	ledgermapper "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/http/mapper"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// SyncAPI exposes reports, preferences and offline replay.
type SyncAPI struct {
	service ports.Service
	replay  ports.ReplayOrchestrator
}

// NewSyncAPI creates a SyncAPI. A nil orchestrator replays in process through the service.
func NewSyncAPI(service ports.Service, replay ports.ReplayOrchestrator) SyncAPI {
	return SyncAPI{service: service, replay: replay}
}

// Get /v1/reports/summary
// Summarizes revenue and stock
func (api *SyncAPI) GetReport(c *gin.Context) {
	input := ledgertypes.ReportInput{Now: time.Now().UTC()}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 || days > ledgertypes.MaxReportDays {
			respondError(c, http.StatusBadRequest, fmt.Errorf("days must be an integer between 1 and %d", ledgertypes.MaxReportDays))
			return
		}
		input.Days = days
	}
	if raw := c.Query("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil || top <= 0 {
			respondError(c, http.StatusBadRequest, errors.New("top must be a positive integer"))
			return
		}
		input.TopProducts = top
	}
	report, err := api.service.Report(c.Request.Context(), input)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromReport(report))
}

// Put /v1/preferences/low-stock-threshold
// Sets the stock level at or below which products are flagged
func (api *SyncAPI) SetLowStockThreshold(c *gin.Context) {
	var payload ledgermapper.Threshold
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Threshold == nil {
		respondMissingField(c, "threshold")
		return
	}
	if err := api.service.SetLowStockThreshold(c.Request.Context(), *payload.Threshold); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// Get /v1/sync/status
// Reports connectivity and the offline backlog
func (api *SyncAPI) GetSyncStatus(c *gin.Context) {
	status, err := api.service.SyncStatus(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromSyncStatus(status))
}

// Post /v1/sync/replay
// Delivers queued offline actions to the backend
func (api *SyncAPI) Replay(c *gin.Context) {
	var (
		report *ledgertypes.ReplayReport
		err    error
	)
	if api.replay != nil {
		report, err = api.replay.Replay(c.Request.Context())
	} else {
		report, err = api.service.Replay(c.Request.Context())
	}
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgermapper.FromReplayReport(report))
}
