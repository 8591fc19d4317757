// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the singleton
// BotConfig row, including the atomic credit check-and-decrement that gates
// AI usage.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

// GetBotConfig fetches the singleton configuration row, or ErrNotFound when
// it was never created. Absence is meaningful to callers (the credit check
// fails closed on it), so nothing is created implicitly here.
func GetBotConfig(ctx context.Context, db *gorm.DB) (*domain.BotConfig, error) {
	var cfg domain.BotConfig
	if err := db.WithContext(ctx).Where("id = ?", domain.BotConfigID).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertBotConfig creates or overwrites the singleton configuration row with
// the given identity and personality fields. The credit balance is left
// untouched on update: only the ledger and explicit top-ups move it.
func UpsertBotConfig(ctx context.Context, db *gorm.DB, botName, companyName, personality, businessRules string) (*domain.BotConfig, error) {
	var out *domain.BotConfig
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg domain.BotConfig
		err := tx.Where("id = ?", domain.BotConfigID).First(&cfg).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			cfg = domain.BotConfig{
				ID:            domain.BotConfigID,
				BotName:       botName,
				CompanyName:   companyName,
				Personality:   personality,
				BusinessRules: businessRules,
				UpdatedAt:     time.Now().UTC(),
			}
			if cerr := tx.Create(&cfg).Error; cerr != nil {
				return cerr
			}
		case err != nil:
			return err
		default:
			updates := map[string]any{
				"bot_name":       botName,
				"company_name":   companyName,
				"personality":    personality,
				"business_rules": businessRules,
				"updated_at":     time.Now().UTC(),
			}
			if uerr := tx.Model(&cfg).Updates(updates).Error; uerr != nil {
				return uerr
			}
			cfg.BotName, cfg.CompanyName = botName, companyName
			cfg.Personality, cfg.BusinessRules = personality, businessRules
		}
		out = &cfg
		return nil
	})
	return out, err
}

// TryConsumeCredits atomically decrements the credit balance by amount when
// the balance covers it, and reports whether the consumption happened.
//
// Semantics, in order:
//   - configuration row absent: (false, nil) — fail closed, no creation
//   - balance NULL (never initialized): persist zero, (false, nil)
//   - balance < amount: (false, nil), no mutation
//   - otherwise: balance -= amount, (true, nil)
//
// The decrement goes through a single conditional UPDATE (balance >= amount
// in the WHERE clause), so two concurrent consumers cannot both succeed on a
// balance that only covers one of them; the losing UPDATE simply matches no
// row. Persistent mutation happens only on success.
func TryConsumeCredits(ctx context.Context, db *gorm.DB, amount int64) (bool, error) {
	if amount <= 0 {
		return false, nil
	}

	res := db.WithContext(ctx).
		Model(&domain.BotConfig{}).
		Where("id = ? AND credit_balance >= ?", domain.BotConfigID, amount).
		Update("credit_balance", gorm.Expr("credit_balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// The conditional UPDATE matched nothing: missing row, NULL balance, or
	// insufficient funds. Distinguish only to normalize the NULL case.
	var cfg domain.BotConfig
	err := db.WithContext(ctx).Where("id = ?", domain.BotConfigID).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cfg.CreditBalance == nil {
		// Uninitialized ledger reads as zero from now on. The guarded update
		// keeps a concurrent top-up from being clobbered back to zero.
		if uerr := db.WithContext(ctx).
			Model(&domain.BotConfig{}).
			Where("id = ? AND credit_balance IS NULL", domain.BotConfigID).
			Update("credit_balance", 0).Error; uerr != nil {
			return false, uerr
		}
	}
	return false, nil
}

// AddCredits increases the balance by amount (external top-up). A NULL
// balance is treated as zero.
func AddCredits(ctx context.Context, db *gorm.DB, amount int64) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.BotConfig{}).
		Where("id = ?", domain.BotConfigID).
		Update("credit_balance", gorm.Expr("COALESCE(credit_balance, 0) + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	cfg, err := GetBotConfig(ctx, db)
	if err != nil {
		return 0, err
	}
	if cfg.CreditBalance == nil {
		return 0, nil
	}
	return *cfg.CreditBalance, nil
}
