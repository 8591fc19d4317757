// Bot settings and credit administration handlers.
//
// This file exposes the admin endpoints for the singleton bot configuration:
//   - GET  /settings            (read identity, personality, and balance)
//   - PUT  /settings            (update identity fields, balance untouched)
//   - POST /settings/credits    (top up the credit balance)
//   - GET  /stats               (dashboard counters)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atendezap/go-whats-backend/internal/repo"
)

// SettingsResponse is the JSON shape of the bot configuration as exposed to
// the console. CreditBalance is null when the ledger was never initialized.
type SettingsResponse struct {
	BotName       string `json:"bot_name"`
	CompanyName   string `json:"company_name"`
	Personality   string `json:"personality"`
	BusinessRules string `json:"business_rules"`
	CreditBalance *int64 `json:"credit_balance"`
}

// UpdateSettingsRequest is the JSON payload for updating the bot identity.
// Credits are managed exclusively through the top-up endpoint; this request
// cannot touch the balance.
type UpdateSettingsRequest struct {
	BotName       string `json:"bot_name" binding:"required,min=1,max=50"`
	CompanyName   string `json:"company_name" binding:"required,min=1,max=100"`
	Personality   string `json:"personality"`
	BusinessRules string `json:"business_rules"`
}

// AddCreditsRequest is the JSON payload for a credit top-up.
type AddCreditsRequest struct {
	// Amount is the number of credits to add. Must be positive.
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// AddCreditsResponse reports the balance after a successful top-up.
type AddCreditsResponse struct {
	CreditBalance int64 `json:"credit_balance"`
}

// GetSettings returns the current bot configuration, or 404 when it was never
// created.
func (h *Handlers) GetSettings(c *gin.Context) {
	cfg, err := repo.GetBotConfig(c.Request.Context(), h.db)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "bot configuration not set")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, SettingsResponse{
		BotName:       cfg.BotName,
		CompanyName:   cfg.CompanyName,
		Personality:   cfg.Personality,
		BusinessRules: cfg.BusinessRules,
		CreditBalance: cfg.CreditBalance,
	})
}

// UpdateSettings creates or updates the bot identity fields. The credit
// balance is never written here.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bot_name and company_name required")
		return
	}

	cfg, err := repo.UpsertBotConfig(c.Request.Context(), h.db, req.BotName, req.CompanyName, req.Personality, req.BusinessRules)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, SettingsResponse{
		BotName:       cfg.BotName,
		CompanyName:   cfg.CompanyName,
		Personality:   cfg.Personality,
		BusinessRules: cfg.BusinessRules,
		CreditBalance: cfg.CreditBalance,
	})
}

// AddCredits tops up the credit balance and returns the new total.
func (h *Handlers) AddCredits(c *gin.Context) {
	var req AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "amount must be a positive integer")
		return
	}

	balance, err := h.ledger.TopUp(c.Request.Context(), req.Amount)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "bot configuration not set")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, AddCreditsResponse{CreditBalance: balance})
}

// GetStats returns aggregate dashboard counters for the console.
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := repo.CollectDashboardStats(c.Request.Context(), h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}
