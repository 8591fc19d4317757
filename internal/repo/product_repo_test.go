package repo

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

func TestProductCRUD(t *testing.T) {
	db := newRepoDB(t, &domain.Product{})
	ctx := context.Background()

	p, err := CreateProduct(ctx, db, "Diária casal", "café incluso", "R$ 250,00", true)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if err := UpdateProduct(ctx, db, p.ID, "Diária casal", "café e jantar", "R$ 280,00", false); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	all, err := ListProducts(ctx, db)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListProducts = %d items, %v; want 1, nil", len(all), err)
	}
	if all[0].Price != "R$ 280,00" || all[0].Active {
		t.Fatalf("update not applied: %+v", all[0])
	}

	// Inactive items are listed but excluded from the prompt's view.
	active, err := ListActiveProducts(ctx, db)
	if err != nil || len(active) != 0 {
		t.Fatalf("ListActiveProducts = %d items, %v; want 0, nil", len(active), err)
	}

	if err := UpdateProduct(ctx, db, "missing", "x", "", "", true); err != gorm.ErrRecordNotFound {
		t.Fatalf("update missing: err = %v; want ErrRecordNotFound", err)
	}
}

func TestDeleteProduct_SoftDeleteHidesFromListings(t *testing.T) {
	db := newRepoDB(t, &domain.Product{})
	ctx := context.Background()

	p, _ := CreateProduct(ctx, db, "Passeio de barco", "", "R$ 120,00", true)
	if err := DeleteProduct(ctx, db, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	all, _ := ListProducts(ctx, db)
	if len(all) != 0 {
		t.Fatalf("deleted product still listed: %+v", all)
	}
	// The row survives physically (soft delete).
	var n int64
	db.Unscoped().Model(&domain.Product{}).Count(&n)
	if n != 1 {
		t.Fatalf("physical rows = %d; want 1", n)
	}

	if err := DeleteProduct(ctx, db, p.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("second delete: err = %v; want ErrRecordNotFound", err)
	}
}

func TestReplaceCatalog(t *testing.T) {
	db := newRepoDB(t, &domain.Product{})
	ctx := context.Background()

	if _, err := CreateProduct(ctx, db, "Antigo", "", "", true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := ReplaceCatalog(ctx, db, []ProductInput{
		{Name: "Diária casal", Description: "café incluso", Price: "R$ 250,00"},
		{Description: "sem nome no feed", Price: "R$ 10,00"},
	})
	if err != nil {
		t.Fatalf("ReplaceCatalog: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported = %d; want 2", n)
	}

	all, _ := ListProducts(ctx, db)
	if len(all) != 2 {
		t.Fatalf("catalog size = %d; want 2 (old catalog replaced)", len(all))
	}
	names := map[string]bool{}
	for _, p := range all {
		names[p.Name] = true
		if !p.Active {
			t.Fatalf("synced product inactive: %+v", p)
		}
	}
	if !names["Diária casal"] || !names["Sem Nome"] {
		t.Fatalf("unexpected names: %v", names)
	}

	// Old soft-deleted rows are purged too: the snapshot is authoritative.
	var physical int64
	db.Unscoped().Model(&domain.Product{}).Count(&physical)
	if physical != 2 {
		t.Fatalf("physical rows = %d; want 2", physical)
	}
}
