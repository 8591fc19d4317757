// Package services – AuthService
//
// Operator authentication for the admin console: bcrypt credential
// verification and JWT issuance carrying the operator's role. Password hash
// generation happens only at account creation; the stored hash is otherwise
// opaque to the rest of the system.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/domain"
	"github.com/atendezap/go-whats-backend/internal/repo"
)

// AuthService verifies operator credentials and issues signed tokens.
type AuthService struct {
	DB        *gorm.DB
	JWTSecret []byte
	TokenTTL  time.Duration
}

// NewAuthService constructs an AuthService with a default token lifetime.
func NewAuthService(db *gorm.DB, secret []byte) *AuthService {
	return &AuthService{DB: db, JWTSecret: secret, TokenTTL: 12 * time.Hour}
}

// Claims is the JWT payload for operator sessions.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies the credentials and returns a signed token plus the
// operator record. Unknown usernames and wrong passwords are both reported
// as ErrInvalidCredentials.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	op, err := repo.GetOperatorByUsername(ctx, a.DB, username)
	if err == gorm.ErrRecordNotFound {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := Claims{
		Username: op.Username,
		Role:     op.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.JWTSecret)
	if err != nil {
		return "", nil, err
	}
	return token, op, nil
}

// ParseToken validates a token string and returns its claims.
func (a *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// CreateOperator hashes the password and inserts the account. Role defaults
// to agent when empty.
func (a *AuthService) CreateOperator(ctx context.Context, username, password, role string) (*domain.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if role == "" {
		role = domain.OperatorRoleAgent
	}
	if role != domain.OperatorRoleAdmin && role != domain.OperatorRoleAgent {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	op, err := repo.CreateOperator(ctx, a.DB, username, string(hash), role)
	if err != nil {
		if repo.IsDuplicateKey(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return op, nil
}
