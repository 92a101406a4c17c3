package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billdue-backend-go/internal/core"
	"billdue-backend-go/internal/models"
)

// SettingsHandler exposes the per-session settings singleton.
type SettingsHandler struct {
	store  *core.BillStore
	logger *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store *core.BillStore, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, logger: logger}
}

// GetSettings handles GET /settings.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, toSettingsResponse(h.store.Settings()))
}

// UpdateSettings handles PUT /settings. SyncEnabled is not patchable
// here; it is derived from the session state.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	var patch core.SettingsPatch
	patch.BaseCurrency = req.BaseCurrency
	patch.DisplayCurrency = req.DisplayCurrency
	if req.MonthlyIncome != nil {
		income, err := decimal.NewFromString(*req.MonthlyIncome)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid settings", Details: "monthlyIncome must be a decimal number"})
			return
		}
		patch.MonthlyIncome = &income
	}

	updated, err := h.store.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		var perr *core.PersistenceError
		if errors.As(err, &perr) {
			h.logger.Error("Failed to update settings", zap.Error(err))
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Backing store unavailable"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to update settings", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(updated))
}
