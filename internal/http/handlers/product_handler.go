// Product catalog handlers.
//
// This file exposes the admin endpoints for the catalog that feeds the
// assembled system prompt:
//   - GET    /products        (list, soft-deleted rows excluded)
//   - POST   /products        (create)
//   - PUT    /products/{id}   (update)
//   - DELETE /products/{id}   (soft delete)
//   - POST   /products/sync   (replace the whole catalog from an external feed)
//
// The sync endpoint sits outside the JWT surface: an external system calls it
// with a shared X-Admin-Token header, and it is disabled entirely unless
// explicitly enabled in configuration.
package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/atendezap/go-whats-backend/internal/domain"
	"github.com/atendezap/go-whats-backend/internal/http/middleware"
	"github.com/atendezap/go-whats-backend/internal/repo"
)

// ProductRequest is the JSON payload for creating or updating a product.
type ProductRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"max=50"`
	Active      *bool  `json:"active"`
}

// ListProductsResponse wraps the catalog listing.
type ListProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// SyncCatalogRequest carries the external catalog feed. Item field names
// follow the upstream feed contract (nome, descricao, preco).
type SyncCatalogRequest struct {
	Products []repo.ProductInput `json:"produtos" binding:"required"`
}

// SyncCatalogResponse reports how many items the replaced catalog holds.
type SyncCatalogResponse struct {
	Imported int `json:"imported"`
}

func (r ProductRequest) active() bool {
	if r.Active == nil {
		return true
	}
	return *r.Active
}

// ListProducts returns every non-deleted product, active or not.
func (h *Handlers) ListProducts(c *gin.Context) {
	items, err := repo.ListProducts(c.Request.Context(), h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListProductsResponse{Products: items})
}

// CreateProduct adds a catalog item.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	p, err := repo.CreateProduct(c.Request.Context(), h.db, req.Name, req.Description, req.Price, req.active())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, p)
}

// UpdateProduct replaces the mutable fields of a catalog item.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product id must be a UUID")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	err := repo.UpdateProduct(c.Request.Context(), h.db, id, req.Name, req.Description, req.Price, req.active())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	noContent(c)
}

// DeleteProduct soft-deletes a catalog item; it immediately stops
// contributing to the assembled prompt.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product id must be a UUID")
		return
	}

	if err := repo.DeleteProduct(c.Request.Context(), h.db, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// SyncCatalog atomically replaces the entire catalog from an external feed.
// Authentication is a constant-time comparison of the X-Admin-Token header
// against the configured shared secret.
func (h *Handlers) SyncCatalog(c *gin.Context) {
	if !h.sync.Enabled || h.sync.Token == "" {
		fail(c, http.StatusForbidden, ErrCodeSyncDisabled, "external catalog sync is disabled")
		return
	}

	token := c.GetHeader("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.sync.Token)) != 1 {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid admin token")
		return
	}

	var req SyncCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "produtos array required")
		return
	}

	n, err := repo.ReplaceCatalog(c.Request.Context(), h.db, req.Products)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	middleware.LoggerFrom(c).Info().Int("imported", n).Msg("catalog replaced from external feed")
	ok(c, http.StatusOK, SyncCatalogResponse{Imported: n})
}
