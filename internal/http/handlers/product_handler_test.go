package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/atendezap/go-whats-backend/internal/domain"
)

func doSync(r *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/products/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func listProducts(t *testing.T, r *gin.Engine) []domain.Product {
	t.Helper()
	w := doJSON(r, http.MethodGet, "/products", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp ListProductsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return resp.Products
}

func TestProducts_CRUD(t *testing.T) {
	r := newAdminRouter(newHandlerDB(t), SyncConfig{})

	w := doJSON(r, http.MethodPost, "/products", `{"name":"Diária casal","description":"café incluso","price":"R$ 250,00"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", w.Code, w.Body.String())
	}
	var created domain.Product
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" || created.Name != "Diária casal" || !created.Active {
		t.Fatalf("unexpected product: %+v", created)
	}

	w = doJSON(r, http.MethodPut, "/products/"+created.ID, `{"name":"Diária casal","price":"R$ 280,00","active":false}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("update status = %d (%s)", w.Code, w.Body.String())
	}
	items := listProducts(t, r)
	if len(items) != 1 || items[0].Price != "R$ 280,00" || items[0].Active {
		t.Fatalf("unexpected list after update: %+v", items)
	}

	w = doJSON(r, http.MethodDelete, "/products/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if items := listProducts(t, r); len(items) != 0 {
		t.Fatalf("list after delete = %+v; want empty", items)
	}
}

func TestProducts_BadIDsAndMissing(t *testing.T) {
	r := newAdminRouter(newHandlerDB(t), SyncConfig{})

	for _, req := range []struct {
		method, path, body string
	}{
		{http.MethodPut, "/products/not-a-uuid", `{"name":"x"}`},
		{http.MethodDelete, "/products/not-a-uuid", ""},
		{http.MethodPost, "/products", `{}`},
	} {
		w := doJSON(r, req.method, req.path, req.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: status = %d; want 400", req.method, req.path, w.Code)
		}
	}

	absent := uuid.NewString()
	if w := doJSON(r, http.MethodPut, "/products/"+absent, `{"name":"x"}`); w.Code != http.StatusNotFound {
		t.Fatalf("update missing: status = %d; want 404", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/products/"+absent, ""); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: status = %d; want 404", w.Code)
	}
}

func TestSyncCatalog_Gatekeeping(t *testing.T) {
	db := newHandlerDB(t)

	// Disabled outright, and disabled when enabled without a token.
	for _, sync := range []SyncConfig{{}, {Enabled: true}} {
		w := doSync(newAdminRouter(db, sync), "whatever", `{"produtos":[]}`)
		if w.Code != http.StatusForbidden {
			t.Fatalf("sync %+v: status = %d; want 403", sync, w.Code)
		}
		if got := decodeError(t, w).Code; got != ErrCodeSyncDisabled {
			t.Fatalf("error code = %q; want %q", got, ErrCodeSyncDisabled)
		}
	}

	r := newAdminRouter(db, SyncConfig{Enabled: true, Token: "s3cret"})
	for _, token := range []string{"", "wrong"} {
		if w := doSync(r, token, `{"produtos":[]}`); w.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status = %d; want 401", token, w.Code)
		}
	}
	if w := doSync(r, "s3cret", `{"items":[]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing produtos: status = %d; want 400", w.Code)
	}
}

func TestSyncCatalog_ReplacesCatalog(t *testing.T) {
	db := newHandlerDB(t)
	r := newAdminRouter(db, SyncConfig{Enabled: true, Token: "s3cret"})

	w := doJSON(r, http.MethodPost, "/products", `{"name":"Item antigo"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", w.Code)
	}

	w = doSync(r, "s3cret", `{"produtos":[
		{"nome":"Diária casal","descricao":"café incluso","preco":"R$ 250,00"},
		{"nome":"Diária solteiro","preco":"R$ 180,00"}
	]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d (%s)", w.Code, w.Body.String())
	}
	var resp SyncCatalogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Imported != 2 {
		t.Fatalf("sync body: %s", w.Body.String())
	}

	items := listProducts(t, r)
	if len(items) != 2 {
		t.Fatalf("catalog size = %d; want 2", len(items))
	}
	for _, p := range items {
		if p.Name == "Item antigo" {
			t.Fatalf("old catalog item survived the sync: %+v", items)
		}
	}
}
