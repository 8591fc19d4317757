// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Customer
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a customer is not found, functions return ErrNotFound
//     (alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

// FindOrCreateCustomer looks up a customer by its unique address and creates
// one (default name, automated mode) on a miss.
//
// Concurrent first contact from the same address is resolved through the
// uniqueness constraint on phone: when the insert collides with a row another
// request just created, the function re-fetches instead of failing, so both
// callers observe the same identity.
func FindOrCreateCustomer(ctx context.Context, db *gorm.DB, phone string) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).Where("phone = ?", phone).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	c = domain.Customer{
		ID:        uuid.NewString(),
		Phone:     phone,
		Name:      "Desconhecido",
		Mode:      domain.ModeBot,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&c).Error; err != nil {
		// Lost the race against a concurrent first contact: the unique
		// index rejected our insert, so the row exists now. Re-fetch it.
		var existing domain.Customer
		if ferr := db.WithContext(ctx).Where("phone = ?", phone).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetCustomer fetches a single customer by ID, or ErrNotFound if missing.
func GetCustomer(ctx context.Context, db *gorm.DB, id string) (*domain.Customer, error) {
	var c domain.Customer
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCustomerMode sets the conversation mode of a customer. If no rows are
// affected (customer missing), it returns ErrNotFound.
func UpdateCustomerMode(ctx context.Context, db *gorm.DB, id, mode string) error {
	res := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Update("mode", mode)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateCustomerName overwrites the display name of a customer. Missing rows
// are ignored: the name is cosmetic and the webhook path must not fail on it.
func UpdateCustomerName(ctx context.Context, db *gorm.DB, id, name string) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Update("name", name).Error
}

// CountCustomers returns the total number of customers.
func CountCustomers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Customer{}).Count(&total).Error
	return total, err
}

// ListCustomersPage returns a page of customers ordered by most recent
// activity (updated_at descending). Use CountCustomers for pagination
// metadata.
func ListCustomersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Customer, error) {
	var out []domain.Customer
	err := db.WithContext(ctx).
		Order("updated_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TouchCustomer bumps updated_at so conversation lists sort by last activity.
func TouchCustomer(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}
