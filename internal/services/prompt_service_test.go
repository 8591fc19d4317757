package services

import (
	"context"
	"strings"
	"testing"

	"github.com/atendezap/go-whats-backend/internal/repo"
)

func TestBuildSystemPrompt_NoConfig_Fallback(t *testing.T) {
	db := newServicesDB(t)
	got, err := NewPromptAssembler(db).BuildSystemPrompt(context.Background())
	if err != nil {
		t.Fatalf("BuildSystemPrompt: %v", err)
	}
	if got != FallbackSystemPrompt {
		t.Fatalf("prompt = %q; want fallback", got)
	}
}

func TestBuildSystemPrompt_EmptyCatalog_Placeholder(t *testing.T) {
	db := newServicesDB(t)
	seedBotConfig(t, db, 0)

	got, err := NewPromptAssembler(db).BuildSystemPrompt(context.Background())
	if err != nil {
		t.Fatalf("BuildSystemPrompt: %v", err)
	}
	if !strings.Contains(got, "Você é Clara, assistente da Pousada Azul.") {
		t.Fatalf("identity line missing:\n%s", got)
	}
	if !strings.Contains(got, "Seja atenciosa e direta.") {
		t.Fatalf("personality missing:\n%s", got)
	}
	if !strings.Contains(got, "Nenhum produto específico cadastrado no momento.") {
		t.Fatalf("empty-catalog placeholder missing:\n%s", got)
	}
	if strings.Contains(got, "### REGRAS DE NEGÓCIO ###") {
		t.Fatalf("rules section present without rules:\n%s", got)
	}
}

func TestBuildSystemPrompt_RulesAndActiveCatalogOnly(t *testing.T) {
	db := newServicesDB(t)
	seedBotConfig(t, db, 0)
	ctx := context.Background()

	if _, err := repo.UpsertBotConfig(ctx, db, "Clara", "Pousada Azul", "Seja atenciosa.", "Check-in a partir das 14h."); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.CreateProduct(ctx, db, "Diária casal", "café incluso", "R$ 250,00", true); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := repo.CreateProduct(ctx, db, "Produto desativado", "", "R$ 1,00", false); err != nil {
		t.Fatalf("create product: %v", err)
	}

	got, err := NewPromptAssembler(db).BuildSystemPrompt(ctx)
	if err != nil {
		t.Fatalf("BuildSystemPrompt: %v", err)
	}
	if !strings.Contains(got, "### REGRAS DE NEGÓCIO ###") || !strings.Contains(got, "Check-in a partir das 14h.") {
		t.Fatalf("rules missing:\n%s", got)
	}
	if !strings.Contains(got, "- Diária casal: café incluso | Preço: R$ 250,00") {
		t.Fatalf("catalog line missing:\n%s", got)
	}
	if strings.Contains(got, "Produto desativado") {
		t.Fatalf("inactive product leaked into prompt:\n%s", got)
	}

	// Fresh state on every call: deactivating the product changes the output.
	products, _ := repo.ListProducts(ctx, db)
	for _, p := range products {
		if p.Active {
			if err := repo.UpdateProduct(ctx, db, p.ID, p.Name, p.Description, p.Price, false); err != nil {
				t.Fatalf("deactivate: %v", err)
			}
		}
	}
	got, err = NewPromptAssembler(db).BuildSystemPrompt(ctx)
	if err != nil {
		t.Fatalf("BuildSystemPrompt: %v", err)
	}
	if !strings.Contains(got, "Nenhum produto específico cadastrado no momento.") {
		t.Fatalf("prompt not rebuilt from current state:\n%s", got)
	}
}
