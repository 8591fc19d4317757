// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Operator
// accounts (the admin-console credential store).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

// GetOperatorByUsername fetches an operator for login, or ErrNotFound.
func GetOperatorByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Operator, error) {
	var op domain.Operator
	if err := db.WithContext(ctx).Where("username = ?", username).First(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

// CreateOperator inserts an operator account with an already-hashed password.
func CreateOperator(ctx context.Context, db *gorm.DB, username, passwordHash, role string) (*domain.Operator, error) {
	op := &domain.Operator{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(op).Error; err != nil {
		return nil, err
	}
	return op, nil
}

// CountOperators returns the number of operator accounts. Used at startup to
// decide whether the bootstrap admin needs to be seeded.
func CountOperators(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Operator{}).Count(&total).Error
	return total, err
}
