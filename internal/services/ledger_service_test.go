package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/repo"
)

func TestCreditLedger_TryConsume(t *testing.T) {
	db := newServicesDB(t)
	ledger := NewCreditLedger(db)
	ctx := context.Background()

	// No configuration at all: refusal, not error.
	ok, err := ledger.TryConsume(ctx, 1)
	if err != nil || ok {
		t.Fatalf("no config: ok=%v err=%v; want false, nil", ok, err)
	}

	seedBotConfig(t, db, 2)
	for i := 0; i < 2; i++ {
		ok, err := ledger.TryConsume(ctx, 1)
		if err != nil || !ok {
			t.Fatalf("consume %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err = ledger.TryConsume(ctx, 1)
	if err != nil || ok {
		t.Fatalf("exhausted: ok=%v err=%v; want false, nil", ok, err)
	}
}

func TestCreditLedger_Balance(t *testing.T) {
	db := newServicesDB(t)
	ledger := NewCreditLedger(db)
	ctx := context.Background()

	// Missing configuration reads as an unset zero balance.
	bal, set, err := ledger.Balance(ctx)
	if err != nil || set || bal != 0 {
		t.Fatalf("Balance = %d, %v, %v; want 0, false, nil", bal, set, err)
	}

	seedBotConfig(t, db, 7)
	bal, set, err = ledger.Balance(ctx)
	if err != nil || !set || bal != 7 {
		t.Fatalf("Balance = %d, %v, %v; want 7, true, nil", bal, set, err)
	}
}

func TestCreditLedger_TopUp(t *testing.T) {
	db := newServicesDB(t)
	ledger := NewCreditLedger(db)
	ctx := context.Background()

	if _, err := ledger.TopUp(ctx, 10); err != gorm.ErrRecordNotFound {
		t.Fatalf("top-up without config: err = %v; want ErrRecordNotFound", err)
	}

	seedBotConfig(t, db, 5)
	bal, err := ledger.TopUp(ctx, 10)
	if err != nil || bal != 15 {
		t.Fatalf("TopUp = %d, %v; want 15, nil", bal, err)
	}
	cfg, _ := repo.GetBotConfig(ctx, db)
	if *cfg.CreditBalance != 15 {
		t.Fatalf("persisted balance = %d; want 15", *cfg.CreditBalance)
	}
}
