package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

const testPhone = "whatsapp:+5511999990000"

func TestFindOrCreateCustomer_CreatesWithDefaults(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{})
	ctx := context.Background()

	c, err := FindOrCreateCustomer(ctx, db, testPhone)
	if err != nil {
		t.Fatalf("FindOrCreateCustomer: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated ID")
	}
	if c.Name != "Desconhecido" {
		t.Fatalf("name = %q; want Desconhecido", c.Name)
	}
	if c.Mode != domain.ModeBot {
		t.Fatalf("mode = %q; want %q", c.Mode, domain.ModeBot)
	}
}

func TestFindOrCreateCustomer_Idempotent(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{})
	ctx := context.Background()

	first, err := FindOrCreateCustomer(ctx, db, testPhone)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := FindOrCreateCustomer(ctx, db, testPhone)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("IDs differ: %q vs %q", first.ID, second.ID)
	}
	var n int64
	db.Model(&domain.Customer{}).Count(&n)
	if n != 1 {
		t.Fatalf("customers = %d; want 1", n)
	}
}

func TestFindOrCreateCustomer_ConcurrentFirstContact(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{})
	ctx := context.Background()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	const callers = 10
	var wg sync.WaitGroup
	ids := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := FindOrCreateCustomer(ctx, db, testPhone)
			if err != nil {
				t.Errorf("FindOrCreateCustomer: %v", err)
				return
			}
			ids <- c.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("distinct identities = %d; want every caller to observe the same one", len(seen))
	}
}

func TestUpdateCustomerMode(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{})
	ctx := context.Background()

	c, _ := FindOrCreateCustomer(ctx, db, testPhone)

	if err := UpdateCustomerMode(ctx, db, c.ID, domain.ModeHuman); err != nil {
		t.Fatalf("UpdateCustomerMode: %v", err)
	}
	got, _ := GetCustomer(ctx, db, c.ID)
	if got.Mode != domain.ModeHuman {
		t.Fatalf("mode = %q; want %q", got.Mode, domain.ModeHuman)
	}

	if err := UpdateCustomerMode(ctx, db, "missing", domain.ModeBot); err != gorm.ErrRecordNotFound {
		t.Fatalf("missing customer: err = %v; want ErrRecordNotFound", err)
	}
}

func TestUpdateCustomerName_MissingRowIgnored(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{})
	if err := UpdateCustomerName(context.Background(), db, "missing", "Ana"); err != nil {
		t.Fatalf("expected nil for missing row, got %v", err)
	}
}

func TestListCustomersPage_OrdersByActivity(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{})
	ctx := context.Background()

	older, _ := FindOrCreateCustomer(ctx, db, "whatsapp:+5511911110000")
	newer, _ := FindOrCreateCustomer(ctx, db, "whatsapp:+5511922220000")

	// Force distinct activity times regardless of clock granularity.
	db.Model(&domain.Customer{}).Where("id = ?", older.ID).
		Update("updated_at", time.Now().UTC().Add(-time.Hour))
	if err := TouchCustomer(ctx, db, newer.ID); err != nil {
		t.Fatalf("TouchCustomer: %v", err)
	}

	page, err := ListCustomersPage(ctx, db, 0, 10)
	if err != nil {
		t.Fatalf("ListCustomersPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page len = %d; want 2", len(page))
	}
	if page[0].ID != newer.ID {
		t.Fatalf("first = %s; want most recently active %s", page[0].ID, newer.ID)
	}
}
