package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

func newMessageDB(t *testing.T) (*gorm.DB, *domain.Customer) {
	t.Helper()
	db := newRepoDB(t, &domain.Customer{}, &domain.Message{})
	c, err := FindOrCreateCustomer(context.Background(), db, "whatsapp:+5511999990000")
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return db, c
}

func TestAppendMessage_SetsFields(t *testing.T) {
	db, c := newMessageDB(t)
	m, err := AppendMessage(context.Background(), db, c.ID, domain.RoleAssistant, "olá")
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if m.ID == "" || m.CustomerID != c.ID || m.Role != domain.RoleAssistant || m.Content != "olá" {
		t.Fatalf("unexpected message: %+v", m)
	}
	if m.MessageSID != nil {
		t.Fatalf("assistant message carries a transport sid: %v", *m.MessageSID)
	}
}

func TestAppendInboundMessage_DeduplicatesBySID(t *testing.T) {
	db, c := newMessageDB(t)
	ctx := context.Background()

	if _, err := AppendInboundMessage(ctx, db, c.ID, "oi", "SM1"); err != nil {
		t.Fatalf("first append: %v", err)
	}
	_, err := AppendInboundMessage(ctx, db, c.ID, "oi", "SM1")
	if err == nil {
		t.Fatal("expected error on redelivered sid")
	}
	if !IsDuplicateKey(err) {
		t.Fatalf("IsDuplicateKey(%v) = false; want true", err)
	}

	// Empty sid never participates in deduplication.
	if _, err := AppendInboundMessage(ctx, db, c.ID, "sem sid", ""); err != nil {
		t.Fatalf("append without sid: %v", err)
	}
	if _, err := AppendInboundMessage(ctx, db, c.ID, "sem sid de novo", ""); err != nil {
		t.Fatalf("second append without sid: %v", err)
	}
}

func TestIsDuplicateKey_NilAndOtherErrors(t *testing.T) {
	if IsDuplicateKey(nil) {
		t.Fatal("nil error reported as duplicate")
	}
	if IsDuplicateKey(fmt.Errorf("connection refused")) {
		t.Fatal("unrelated error reported as duplicate")
	}
	if !IsDuplicateKey(gorm.ErrDuplicatedKey) {
		t.Fatal("gorm.ErrDuplicatedKey not recognized")
	}
}

func TestRecentHistory_SuffixInLogOrder(t *testing.T) {
	db, c := newMessageDB(t)
	ctx := context.Background()

	// Insert with explicit ascending timestamps so ordering is deterministic.
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		m := domain.Message{
			ID:         fmt.Sprintf("m-%d", i),
			CustomerID: c.ID,
			Role:       domain.RoleCustomer,
			Content:    fmt.Sprintf("msg %d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	got, err := RecentHistory(ctx, db, c.ID, 3)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3", len(got))
	}
	// The window is the newest three, oldest first.
	for i, want := range []string{"msg 2", "msg 3", "msg 4"} {
		if got[i].Content != want {
			t.Fatalf("got[%d] = %q; want %q", i, got[i].Content, want)
		}
	}
}

func TestRecentHistory_ZeroLimitReturnsAll(t *testing.T) {
	db, c := newMessageDB(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := AppendMessage(ctx, db, c.ID, domain.RoleCustomer, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := RecentHistory(ctx, db, c.ID, 0)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3", len(got))
	}
}

func TestListMessagesPage_AppendOrder(t *testing.T) {
	db, c := newMessageDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		m := domain.Message{
			ID:         fmt.Sprintf("m-%d", i),
			CustomerID: c.ID,
			Role:       domain.RoleCustomer,
			Content:    fmt.Sprintf("msg %d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	total, err := CountMessages(ctx, db, c.ID)
	if err != nil || total != 4 {
		t.Fatalf("CountMessages = %d, %v; want 4, nil", total, err)
	}

	page, err := ListMessagesPage(ctx, db, c.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 2 || page[0].Content != "msg 1" || page[1].Content != "msg 2" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
