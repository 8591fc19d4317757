// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model: append-only writes and bounded, order-preserving read-back.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

// IsDuplicateKey reports whether err came from a uniqueness constraint.
// On the webhook path this means the transport redelivered a message we
// already hold. GORM only translates to ErrDuplicatedKey on some drivers,
// so the raw driver messages are matched as a fallback (SQLite and Postgres
// wordings differ).
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE constraint") || strings.Contains(s, "duplicate key")
}

// AppendMessage inserts a message row with a server-assigned timestamp.
// The log is append-only; nothing in the repository updates or deletes rows.
func AppendMessage(ctx context.Context, db *gorm.DB, customerID, role, content string) (*domain.Message, error) {
	return appendMessage(ctx, db, customerID, role, content, nil)
}

// AppendInboundMessage inserts a customer-authored message carrying the
// transport message id. The unique index on message_sid rejects webhook
// redeliveries; callers detect that case with IsDuplicateKey.
func AppendInboundMessage(ctx context.Context, db *gorm.DB, customerID, content, messageSID string) (*domain.Message, error) {
	var sid *string
	if messageSID != "" {
		sid = &messageSID
	}
	return appendMessage(ctx, db, customerID, domain.RoleCustomer, content, sid)
}

func appendMessage(ctx context.Context, db *gorm.DB, customerID, role, content string, sid *string) (*domain.Message, error) {
	m := &domain.Message{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Role:       role,
		Content:    content,
		MessageSID: sid,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// RecentHistory returns the most recent limit messages of a customer in
// chronological (oldest-first) order: a suffix of the append-ordered log,
// suitable as conversation context.
func RecentHistory(ctx context.Context, db *gorm.DB, customerID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	// Reverse the newest-first page back into log order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessages returns the number of messages in a customer's log.
func CountMessages(ctx context.Context, db *gorm.DB, customerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("customer_id = ?", customerID).
		Count(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered (CreatedAt ASC, ID ASC).
func ListMessagesPage(ctx context.Context, db *gorm.DB, customerID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
