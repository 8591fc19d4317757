// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// catalog, which the prompt assembler reads and the admin console maintains.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

// ListActiveProducts returns all active catalog items in insertion order.
func ListActiveProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// ListProducts returns the whole catalog, active or not.
func ListProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).Order("created_at ASC").Find(&out).Error
	return out, err
}

// CreateProduct inserts a catalog item.
func CreateProduct(ctx context.Context, db *gorm.DB, name, description, price string, active bool) (*domain.Product, error) {
	p := &domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       price,
		Active:      active,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct overwrites a catalog item's fields. Returns ErrNotFound when
// the item does not exist.
func UpdateProduct(ctx context.Context, db *gorm.DB, id, name, description, price string, active bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":        name,
			"description": description,
			"price":       price,
			"active":      active,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProduct soft-deletes a catalog item.
func DeleteProduct(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ProductInput is one incoming catalog entry for ReplaceCatalog.
type ProductInput struct {
	Name        string `json:"nome"`
	Description string `json:"descricao"`
	Price       string `json:"preco"`
}

// ReplaceCatalog wipes the catalog and recreates it from the given items in
// one transaction. Delete-and-recreate is deliberate: external sync sources
// send full snapshots and the catalogs are small.
func ReplaceCatalog(ctx context.Context, db *gorm.DB, items []ProductInput) (int, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, it := range items {
			name := it.Name
			if name == "" {
				name = "Sem Nome"
			}
			p := domain.Product{
				ID:          uuid.NewString(),
				Name:        name,
				Description: it.Description,
				Price:       it.Price,
				Active:      true,
				CreatedAt:   now,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
