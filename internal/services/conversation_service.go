// Package services – ConversationService
//
// This file implements the conversation router: the component that decides,
// per inbound WhatsApp message, whether the automated assistant answers or
// the conversation stays with a human operator. It owns the full inbound
// pipeline — identity resolution, unconditional logging, mode gate, credit
// gate, prompt and history assembly, engine invocation with graceful
// degradation, persistence, and fire-and-forget delivery — plus the
// synchronous operator send path and the explicit mode toggle.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// customer identifiers and gate outcomes.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
	"github.com/atendezap/go-whats-backend/internal/observability"
	"github.com/atendezap/go-whats-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Engine-facing role vocabulary. The stored roles {customer, assistant,
// operator} are translated here and nowhere else.
const (
	EngineRoleUser  = "user"
	EngineRoleModel = "model"
)

// EngineMessage is one turn of conversation context handed to the reply
// engine, already in the engine's two-role vocabulary.
type EngineMessage struct {
	Role string
	Text string
}

// ReplyEngine produces a reply from a system prompt, ordered history, and the
// new user message. Implementations may block on external latency and must
// honor ctx; any failure is recovered by the router with a substitute reply.
type ReplyEngine interface {
	Reply(ctx context.Context, systemPrompt string, history []EngineMessage, userText string) (string, error)
}

// DeliveryChannel sends text to a destination address, independently of the
// inbound request lifecycle. Implementations must honor ctx.
type DeliveryChannel interface {
	Send(ctx context.Context, to, text string) error
}

// DefaultFallbackReply is delivered when the engine errors out: the customer
// must never be left in silence once credit was committed.
const DefaultFallbackReply = "Desculpe, estou processando muita informação. Pode repetir?"

const placeholderName = "Desconhecido"

// ConversationService orchestrates the per-customer conversation state
// machine and the AI reply pipeline.
type ConversationService struct {
	DB       *gorm.DB
	Ledger   *CreditLedger
	Prompts  *PromptAssembler
	Engine   ReplyEngine
	Delivery DeliveryChannel

	// Credit costs per action.
	AIReplyCost      int64
	OperatorSendCost int64

	// HistoryWindow bounds the context handed to the engine.
	HistoryWindow int

	// External call budgets. The webhook's own response never waits on these.
	EngineTimeout   time.Duration
	DeliveryTimeout time.Duration

	// FallbackReply substitutes the engine output on failure.
	FallbackReply string
}

// nameCaser title-cases display names captured from webhook profiles.
var nameCaser = cases.Title(language.BrazilianPortuguese)

// NewConversationService constructs a router with the default costs, window,
// and timeouts.
func NewConversationService(db *gorm.DB, ledger *CreditLedger, prompts *PromptAssembler, engine ReplyEngine, delivery DeliveryChannel) *ConversationService {
	return &ConversationService{
		DB:               db,
		Ledger:           ledger,
		Prompts:          prompts,
		Engine:           engine,
		Delivery:         delivery,
		AIReplyCost:      1,
		OperatorSendCost: 1,
		HistoryWindow:    30,
		EngineTimeout:    30 * time.Second,
		DeliveryTimeout:  15 * time.Second,
		FallbackReply:    DefaultFallbackReply,
	}
}

// HandleInbound runs the full webhook pipeline for one inbound message.
//
// The returned error is for operations visibility only: the caller always
// acknowledges the transport with a neutral empty payload, success or not.
// A nil error covers the silent outcomes too — empty body, human-handled
// mode, and refused credit are all normal, reply-less completions.
func (s *ConversationService) HandleInbound(ctx context.Context, from, body, messageSID, profileName string) error {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "HandleInbound",
		trace.WithAttributes(attribute.String("message.sid", messageSID)),
	)
	defer span.End()

	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	customer, err := repo.FindOrCreateCustomer(ctx, s.DB, from)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("customer.id", customer.ID))

	s.maybeAdoptProfileName(ctx, customer, profileName)

	// The log captures every inbound message no matter what happens next.
	inbound, err := repo.AppendInboundMessage(ctx, s.DB, customer.ID, body, messageSID)
	if err != nil {
		if repo.IsDuplicateKey(err) {
			return ErrDuplicateMessage
		}
		return err
	}
	if err := repo.TouchCustomer(ctx, s.DB, customer.ID); err != nil {
		log.Warn().Err(err).Str("customer_id", customer.ID).Msg("touch customer failed")
	}
	observability.InboundMessagesTotal.Inc()

	if customer.Mode == domain.ModeHuman {
		span.SetAttributes(attribute.String("outcome", "human_handled"))
		observability.RepliesTotal.WithLabelValues(observability.ReplyOutcomeSilent).Inc()
		return nil
	}

	ok, err := s.Ledger.TryConsume(ctx, s.AIReplyCost)
	if err != nil {
		return err
	}
	if !ok {
		// Expected and frequent: no credit or no configuration. The
		// customer sees silence, never an error.
		span.SetAttributes(attribute.String("outcome", "credit_refused"))
		observability.RepliesTotal.WithLabelValues(observability.ReplyOutcomeSilent).Inc()
		return nil
	}

	// Credit is spent: from here the flow commits to attempting a reply and
	// absorbs every downstream failure into the substitute text.
	reply := s.generateReply(ctx, customer.ID, inbound.ID, body)

	if _, err := repo.AppendMessage(ctx, s.DB, customer.ID, domain.RoleAssistant, reply); err != nil {
		log.Error().Err(err).Str("customer_id", customer.ID).Msg("persist assistant reply failed")
		return err
	}
	if err := repo.TouchCustomer(ctx, s.DB, customer.ID); err != nil {
		log.Warn().Err(err).Str("customer_id", customer.ID).Msg("touch customer failed")
	}

	s.dispatchAsync(ctx, customer.Phone, reply)
	span.SetAttributes(attribute.String("outcome", "replied"))
	return nil
}

// generateReply assembles prompt and history and calls the engine, degrading
// to the fallback text on any failure.
func (s *ConversationService) generateReply(ctx context.Context, customerID, inboundID, userText string) string {
	systemPrompt, err := s.Prompts.BuildSystemPrompt(ctx)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("prompt assembly failed")
		return s.fallback()
	}

	history, err := s.assembleHistory(ctx, customerID, inboundID)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("history assembly failed")
		return s.fallback()
	}

	engineCtx, cancel := context.WithTimeout(ctx, s.EngineTimeout)
	defer cancel()

	reply, err := s.Engine.Reply(engineCtx, systemPrompt, history, userText)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("reply engine failed")
		return s.fallback()
	}
	if strings.TrimSpace(reply) == "" {
		return s.fallback()
	}
	observability.RepliesTotal.WithLabelValues(observability.ReplyOutcomeGenerated).Inc()
	return reply
}

// fallback records the degraded outcome and returns the substitute text.
func (s *ConversationService) fallback() string {
	observability.RepliesTotal.WithLabelValues(observability.ReplyOutcomeFallback).Inc()
	return s.FallbackReply
}

// assembleHistory reads the bounded recent window and translates it into the
// engine's two-role vocabulary. Operator-authored messages are excluded from
// the context window, and the just-appended inbound message is dropped so it
// is not presented to the engine twice.
func (s *ConversationService) assembleHistory(ctx context.Context, customerID, excludeID string) ([]EngineMessage, error) {
	msgs, err := repo.RecentHistory(ctx, s.DB, customerID, s.HistoryWindow)
	if err != nil {
		return nil, err
	}
	out := make([]EngineMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == excludeID {
			continue
		}
		switch m.Role {
		case domain.RoleCustomer:
			out = append(out, EngineMessage{Role: EngineRoleUser, Text: m.Content})
		case domain.RoleAssistant:
			out = append(out, EngineMessage{Role: EngineRoleModel, Text: m.Content})
		default:
			// Operator turns stay out of the automated context.
		}
	}
	return out, nil
}

// dispatchAsync hands the reply to the delivery channel without awaiting it:
// the webhook acknowledges the transport independently of delivery. The
// reply is split into paragraphs, one outbound message each, matching how
// the bot writes for WhatsApp. Failures are logged, not retried.
func (s *ConversationService) dispatchAsync(ctx context.Context, to, text string) {
	// Detach from the request lifetime but keep trace context.
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, s.DeliveryTimeout)
		defer cancel()
		if err := s.deliver(ctx, to, text); err != nil {
			log.Error().Err(err).Str("to", to).Msg("reply delivery failed")
		}
	}()
}

// deliver sends one outbound message per non-empty paragraph.
func (s *ConversationService) deliver(ctx context.Context, to, text string) error {
	for _, p := range strings.Split(text, "\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if err := s.Delivery.Send(ctx, to, p); err != nil {
			observability.DeliveriesTotal.WithLabelValues(observability.DeliveryStatusFailed).Inc()
			return err
		}
		observability.DeliveriesTotal.WithLabelValues(observability.DeliveryStatusSent).Inc()
	}
	return nil
}

// OperatorSend is the human takeover path: it spends credit, delivers
// synchronously (failure is surfaced, unlike the webhook path), records the
// operator message, and forces the conversation into human-handled mode.
func (s *ConversationService) OperatorSend(ctx context.Context, customerID, text string) (*domain.Message, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "OperatorSend",
		trace.WithAttributes(attribute.String("customer.id", customerID)),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	customer, err := repo.GetCustomer(ctx, s.DB, customerID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.Ledger.TryConsume(ctx, s.OperatorSendCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredit
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.DeliveryTimeout)
	defer cancel()
	if err := s.deliver(sendCtx, customer.Phone, text); err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("operator delivery failed")
		return nil, ErrDeliveryFailed
	}

	msg, err := repo.AppendMessage(ctx, s.DB, customerID, domain.RoleOperator, text)
	if err != nil {
		return nil, err
	}
	if err := repo.TouchCustomer(ctx, s.DB, customerID); err != nil {
		log.Warn().Err(err).Str("customer_id", customerID).Msg("touch customer failed")
	}

	// Human takeover is implicit in a manual reply.
	if customer.Mode != domain.ModeHuman {
		if err := repo.UpdateCustomerMode(ctx, s.DB, customerID, domain.ModeHuman); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// SetMode is the explicit operator toggle, valid in both directions. The
// automated path never calls this.
func (s *ConversationService) SetMode(ctx context.Context, customerID, mode string) (*domain.Customer, error) {
	if mode != domain.ModeBot && mode != domain.ModeHuman {
		return nil, ErrInvalidMode
	}
	err := repo.UpdateCustomerMode(ctx, s.DB, customerID, mode)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return repo.GetCustomer(ctx, s.DB, customerID)
}

// ListConversations returns a page of customers ordered by last activity.
func (s *ConversationService) ListConversations(ctx context.Context, page, pageSize int) ([]domain.Customer, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountCustomers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Customer{}, 0, nil
	}
	items, err := repo.ListCustomersPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// ListMessages returns a page of a customer's log in append order.
func (s *ConversationService) ListMessages(ctx context.Context, customerID string, page, pageSize int) ([]domain.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	if _, err := repo.GetCustomer(ctx, s.DB, customerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, ErrCustomerNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(ctx, s.DB, customerID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, customerID, offset, pageSize)
	return items, total, err
}

// maybeAdoptProfileName fills in the display name from the webhook profile
// when the customer still carries the placeholder. Cosmetic: failures are
// logged and ignored.
func (s *ConversationService) maybeAdoptProfileName(ctx context.Context, customer *domain.Customer, profileName string) {
	profileName = strings.TrimSpace(profileName)
	if profileName == "" || customer.Name != placeholderName {
		return
	}
	name := nameCaser.String(strings.ToLower(profileName))
	if err := repo.UpdateCustomerName(ctx, s.DB, customer.ID, name); err != nil {
		log.Warn().Err(err).Str("customer_id", customer.ID).Msg("adopt profile name failed")
		return
	}
	customer.Name = name
}
