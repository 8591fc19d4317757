// Operator authentication handlers.
//
//   - POST /auth/login   (exchange credentials for a bearer token)
//   - POST /operators    (admin-only account provisioning)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atendezap/go-whats-backend/internal/domain"
	"github.com/atendezap/go-whats-backend/internal/services"
)

// LoginRequest is the JSON payload for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=80"`
	Password string `json:"password" binding:"required,min=1"`
}

// LoginResponse carries the signed bearer token and the operator identity.
type LoginResponse struct {
	Token    string           `json:"token"`
	Operator *domain.Operator `json:"operator"`
}

// CreateOperatorRequest is the JSON payload for provisioning a console
// account. Role defaults to "agent" when omitted.
type CreateOperatorRequest struct {
	Username string `json:"username" binding:"required,min=1,max=80"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// Login verifies credentials and returns a signed token. Wrong username and
// wrong password are deliberately indistinguishable in the response.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	token, op, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch err {
		case services.ErrInvalidCredentials:
			fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid username or password")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, LoginResponse{Token: token, Operator: op})
}

// CreateOperator provisions a new console account. Reachable only behind the
// admin role check.
func (h *Handlers) CreateOperator(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password (min 8 chars) required")
		return
	}

	op, err := h.authSvc.CreateOperator(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		switch err {
		case services.ErrInvalidRole:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, `role must be "admin" or "agent"`)
		case services.ErrUsernameTaken:
			fail(c, http.StatusConflict, ErrCodeConflict, "username already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, op)
}
