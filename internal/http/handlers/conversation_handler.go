// Conversation HTTP handlers.
//
// This file exposes the operator-facing REST endpoints for conversations:
//   - GET  /conversations                  (list, paginated)
//   - GET  /conversations/{id}/messages    (list paginated messages)
//   - POST /conversations/{id}/messages    (operator sends a message)
//   - PUT  /conversations/{id}/mode        (switch bot/human handling)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
	"github.com/atendezap/go-whats-backend/internal/services"
	"github.com/atendezap/go-whats-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConversationService defines the conversation operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ConversationService interface {
	// HandleInbound routes a customer message arriving via webhook.
	HandleInbound(ctx context.Context, from, body, messageSID, profileName string) error
	// OperatorSend delivers an operator-authored message to a customer.
	OperatorSend(ctx context.Context, customerID, text string) (*domain.Message, error)
	// SetMode switches a conversation between automated and human handling.
	SetMode(ctx context.Context, customerID, mode string) (*domain.Customer, error)
	// ListConversations returns a page of customers and the total count.
	ListConversations(ctx context.Context, page, pageSize int) ([]domain.Customer, int64, error)
	// ListMessages returns a page of messages within a conversation.
	ListMessages(ctx context.Context, customerID string, page, pageSize int) ([]domain.Message, int64, error)
}

// LedgerService defines the credit operations consumed by admin handlers.
type LedgerService interface {
	// Balance reports the current credit balance and whether it was ever set.
	Balance(ctx context.Context) (int64, bool, error)
	// TopUp atomically adds credits and returns the new balance.
	TopUp(ctx context.Context, amount int64) (int64, error)
}

// AuthService defines login and account provisioning for operators.
type AuthService interface {
	// Login verifies credentials and returns a signed token.
	Login(ctx context.Context, username, password string) (string, *domain.Operator, error)
	// CreateOperator provisions a new console account.
	CreateOperator(ctx context.Context, username, password, role string) (*domain.Operator, error)
}

//
// Handler wiring
//

// SyncConfig controls the external catalog sync endpoint. When Token is empty
// or Enabled is false the endpoint refuses all requests.
type SyncConfig struct {
	Token   string
	Enabled bool
}

// Handlers groups the HTTP endpoints for the webhook, conversations, settings,
// catalog, and operator accounts. It depends on abstract service interfaces to
// keep transport concerns separate from business logic; the *gorm.DB handle is
// used only by the thin settings/catalog admin endpoints that map directly to
// repository calls.
type Handlers struct {
	convSvc ConversationService
	ledger  LedgerService
	authSvc AuthService
	db      *gorm.DB
	sync    SyncConfig
}

// New constructs a Handlers instance bound to the given services.
func New(db *gorm.DB, convSvc ConversationService, ledger LedgerService, authSvc AuthService, sync SyncConfig) *Handlers {
	return &Handlers{
		convSvc: convSvc,
		ledger:  ledger,
		authSvc: authSvc,
		db:      db,
		sync:    sync,
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of conversations and pagination
// information.
type ListConversationsResponse struct {
	Conversations []domain.Customer `json:"conversations"`
	Pagination    Pagination        `json:"pagination"`
}

// ListMessagesResponse contains a page of conversation messages and
// pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// OperatorMessageRequest is the JSON payload for an operator-sent message.
type OperatorMessageRequest struct {
	// Content is the message text. It must be non-empty.
	Content string `json:"content" binding:"required,min=1"`
}

// OperatorMessageResponse is the JSON envelope for a delivered operator
// message.
type OperatorMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// UpdateModeRequest is the JSON payload for switching conversation handling.
type UpdateModeRequest struct {
	// Mode is either "bot" or "humano".
	Mode string `json:"mode" binding:"required"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and caps, and returns the validated (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// paginate computes the metadata envelope for a list page.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// ListConversations returns a paginated list of customers, most recently
// active first.
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	items, total, err := h.convSvc.ListConversations(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    paginate(page, pageSize, total),
	})
}

// ListMessages returns a paginated, oldest-first list of messages for one
// conversation.
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	customerID := c.Param("id")

	if _, err := uuid.Parse(customerID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.convSvc.ListMessages(ctx, customerID, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrCustomerNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: paginate(page, pageSize, total),
	})
}

// PostOperatorMessage consumes a credit, delivers the operator's text to the
// customer, records it, and pins the conversation to human handling.
func (h *Handlers) PostOperatorMessage(c *gin.Context) {
	ctx := c.Request.Context()
	customerID := c.Param("id")

	if _, err := uuid.Parse(customerID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req OperatorMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	m, err := h.convSvc.OperatorSend(ctx, customerID, req.Content)
	if err != nil {
		switch err {
		case services.ErrEmptyMessage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case services.ErrCustomerNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case services.ErrInsufficientCredit:
			fail(c, http.StatusPaymentRequired, ErrCodeInsufficientCredit, "credit balance exhausted")
		case services.ErrDeliveryFailed:
			fail(c, http.StatusBadGateway, ErrCodeDeliveryFailed, "message could not be delivered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, OperatorMessageResponse{Message: m})
}

// UpdateMode switches a conversation between automated ("bot") and human
// ("humano") handling and returns the updated conversation.
func (h *Handlers) UpdateMode(c *gin.Context) {
	ctx := c.Request.Context()
	customerID := c.Param("id")

	if _, err := uuid.Parse(customerID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req UpdateModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode required")
		return
	}

	cust, err := h.convSvc.SetMode(ctx, customerID, req.Mode)
	if err != nil {
		switch err {
		case services.ErrInvalidMode:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, `mode must be "bot" or "humano"`)
		case services.ErrCustomerNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, cust)
}
