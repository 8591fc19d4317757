// Package services – PromptAssembler
//
// The prompt assembler builds the AI system instruction fresh for every
// engine call: bot identity and personality from the singleton BotConfig,
// plus the currently active product catalog. Nothing is cached on purpose —
// settings and catalog may change between any two calls.
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/repo"
)

// FallbackSystemPrompt is used when no configuration row exists yet. The
// assembler degrades to a generic instruction instead of failing: a missing
// config already blocks AI replies at the credit check, so this path only
// matters for previews.
const FallbackSystemPrompt = "Você é um assistente virtual útil."

// noProductsPlaceholder is embedded when the catalog has no active items.
const noProductsPlaceholder = "Nenhum produto específico cadastrado no momento."

// PromptAssembler builds the system prompt from current configuration and
// catalog state.
type PromptAssembler struct {
	DB *gorm.DB
}

// NewPromptAssembler constructs a PromptAssembler on the given handle.
func NewPromptAssembler(db *gorm.DB) *PromptAssembler {
	return &PromptAssembler{DB: db}
}

// BuildSystemPrompt assembles the instruction text. It is a pure function of
// the current database state; the only error case is a storage failure while
// reading the catalog.
func (p *PromptAssembler) BuildSystemPrompt(ctx context.Context) (string, error) {
	cfg, err := repo.GetBotConfig(ctx, p.DB)
	if err == gorm.ErrRecordNotFound {
		return FallbackSystemPrompt, nil
	}
	if err != nil {
		return "", err
	}

	products, err := repo.ListActiveProducts(ctx, p.DB)
	if err != nil {
		return "", err
	}

	catalog := noProductsPlaceholder
	if len(products) > 0 {
		lines := make([]string, 0, len(products))
		for _, pr := range products {
			lines = append(lines, fmt.Sprintf("- %s: %s | Preço: %s", pr.Name, pr.Description, pr.Price))
		}
		catalog = strings.Join(lines, "\n")
	}

	var b strings.Builder
	b.WriteString("### INSTRUÇÕES DO SISTEMA ###\n")
	fmt.Fprintf(&b, "Você é %s, assistente da %s.\n\n", cfg.BotName, cfg.CompanyName)
	b.WriteString(cfg.Personality)
	if rules := strings.TrimSpace(cfg.BusinessRules); rules != "" {
		b.WriteString("\n\n### REGRAS DE NEGÓCIO ###\n")
		b.WriteString(rules)
	}
	b.WriteString("\n\n--------------------\n")
	b.WriteString("### CATÁLOGO DE PRODUTOS/SERVIÇOS ATUALIZADO ###\n")
	b.WriteString("Use a lista a seguir como referência se perguntado sobre itens específicos:\n")
	b.WriteString(catalog)

	return b.String(), nil
}
