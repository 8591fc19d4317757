// Package services – CreditLedger
//
// The credit ledger owns the single global balance stored on the BotConfig
// row. Every AI invocation and every operator-assisted send goes through
// TryConsume; the atomicity of the check-and-decrement lives in the repo
// layer (a conditional UPDATE), so the ledger itself carries no locks.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/observability"
	"github.com/atendezap/go-whats-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreditLedger exposes atomic consumption of the global credit balance.
type CreditLedger struct {
	DB *gorm.DB
}

// NewCreditLedger constructs a CreditLedger on the given handle.
func NewCreditLedger(db *gorm.DB) *CreditLedger {
	return &CreditLedger{DB: db}
}

// TryConsume attempts to spend amount credits and reports whether it
// succeeded. It fails closed: a missing configuration row or an
// uninitialized balance both refuse consumption without error. A refusal is
// an expected outcome, not an error; err is reserved for storage failures.
func (l *CreditLedger) TryConsume(ctx context.Context, amount int64) (bool, error) {
	tr := otel.Tracer("services/CreditLedger")
	ctx, span := tr.Start(ctx, "TryConsume",
		trace.WithAttributes(attribute.Int64("credit.amount", amount)),
	)
	defer span.End()

	ok, err := repo.TryConsumeCredits(ctx, l.DB, amount)
	span.SetAttributes(attribute.Bool("credit.consumed", ok))
	if ok {
		observability.CreditsConsumedTotal.Add(float64(amount))
	}
	return ok, err
}

// Balance returns the current balance. A missing configuration row or an
// uninitialized balance both read as (0, false).
func (l *CreditLedger) Balance(ctx context.Context) (int64, bool, error) {
	cfg, err := repo.GetBotConfig(ctx, l.DB)
	if err == gorm.ErrRecordNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if cfg.CreditBalance == nil {
		return 0, false, nil
	}
	return *cfg.CreditBalance, true, nil
}

// TopUp adds amount credits (admin action) and returns the new balance.
// Returns repo.ErrNotFound when no configuration row exists yet: top-ups do
// not create configuration implicitly either.
func (l *CreditLedger) TopUp(ctx context.Context, amount int64) (int64, error) {
	return repo.AddCredits(ctx, l.DB, amount)
}
