// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the admin dashboard. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

// DashboardStats is the aggregate snapshot shown on the console landing page.
type DashboardStats struct {
	Customers     int64  `json:"customers"`
	HumanHandled  int64  `json:"human_handled"`
	Messages      int64  `json:"messages"`
	CreditBalance *int64 `json:"credit_balance"`
}

// CollectDashboardStats runs the dashboard counters. A missing configuration
// row is reported as a nil balance, not an error; everything else propagates.
func CollectDashboardStats(ctx context.Context, db *gorm.DB) (*DashboardStats, error) {
	var s DashboardStats

	if err := db.WithContext(ctx).Model(&domain.Customer{}).Count(&s.Customers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("mode = ?", domain.ModeHuman).
		Count(&s.HumanHandled).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.Message{}).Count(&s.Messages).Error; err != nil {
		return nil, err
	}

	cfg, err := GetBotConfig(ctx, db)
	switch {
	case err == gorm.ErrRecordNotFound:
		// No configuration yet: the dashboard still renders.
	case err != nil:
		return nil, err
	default:
		s.CreditBalance = cfg.CreditBalance
	}
	return &s, nil
}
