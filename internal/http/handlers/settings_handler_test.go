package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/atendezap/go-whats-backend/internal/repo"
	"github.com/atendezap/go-whats-backend/internal/services"
)

// newHandlerDB opens a migrated throwaway database for admin endpoint tests.
func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("handlers_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newAdminRouter(db *gorm.DB, sync SyncConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(db, nil, services.NewCreditLedger(db), services.NewAuthService(db, []byte("test-secret")), sync)
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	r.POST("/settings/credits", h.AddCredits)
	r.GET("/stats", h.GetStats)
	r.GET("/products", h.ListProducts)
	r.POST("/products", h.CreateProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)
	r.POST("/products/sync", h.SyncCatalog)
	r.POST("/auth/login", h.Login)
	r.POST("/operators", h.CreateOperator)
	return r
}

func TestSettings_GetBeforeCreate(t *testing.T) {
	r := newAdminRouter(newHandlerDB(t), SyncConfig{})
	w := doJSON(r, http.MethodGet, "/settings", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
}

func TestSettings_UpdateThenTopUp(t *testing.T) {
	db := newHandlerDB(t)
	r := newAdminRouter(db, SyncConfig{})

	w := doJSON(r, http.MethodPut, "/settings",
		`{"bot_name":"Clara","company_name":"Pousada Azul","personality":"atenciosa","business_rules":"check-in 14h"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d (%s)", w.Code, w.Body.String())
	}
	var got SettingsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BotName != "Clara" || got.CreditBalance != nil {
		t.Fatalf("unexpected settings: %+v", got)
	}

	w = doJSON(r, http.MethodPost, "/settings/credits", `{"amount":100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("top-up status = %d (%s)", w.Code, w.Body.String())
	}
	var top AddCreditsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &top); err != nil || top.CreditBalance != 100 {
		t.Fatalf("top-up body: %s", w.Body.String())
	}

	// Identity update keeps the balance.
	w = doJSON(r, http.MethodPut, "/settings", `{"bot_name":"Lia","company_name":"Pousada Verde"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("second update status = %d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/settings", "")
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BotName != "Lia" || got.CreditBalance == nil || *got.CreditBalance != 100 {
		t.Fatalf("unexpected settings after update: %+v", got)
	}
}

func TestAddCredits_Validation(t *testing.T) {
	r := newAdminRouter(newHandlerDB(t), SyncConfig{})

	for _, body := range []string{`{"amount":0}`, `{"amount":-5}`, `{}`} {
		w := doJSON(r, http.MethodPost, "/settings/credits", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d; want 400", body, w.Code)
		}
	}

	// Valid amount but no configuration row yet.
	w := doJSON(r, http.MethodPost, "/settings/credits", `{"amount":10}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404 before settings exist", w.Code)
	}
}

func TestStats_Endpoint(t *testing.T) {
	db := newHandlerDB(t)
	r := newAdminRouter(db, SyncConfig{})

	w := doJSON(r, http.MethodGet, "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var stats repo.DashboardStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Customers != 0 || stats.CreditBalance != nil {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
