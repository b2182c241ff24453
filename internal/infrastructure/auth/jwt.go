// Package auth verifies the tokens issued by the auth service: HS256
// access tokens on every request and RS256 approval tokens for actions
// that need a second sign-off.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType represents the type of JWT token
type TokenType string

const TokenTypeAccess TokenType = "access"

// UserTypeAnonymous marks storefront tokens bound to a company and branch
// instead of a user
const UserTypeAnonymous = "anonymous_user"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrInvalidAnonymous = errors.New("invalid anonymous token")
)

// Claims represents the access token claims
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType `json:"token_type"`
	UserID      int64     `json:"user_id,omitempty"`
	CompanyID   *int64    `json:"company_id,omitempty"`
	BranchID    *int64    `json:"branch_id,omitempty"`
	UserType    string    `json:"user_type,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
}

// IsAnonymous reports whether the token belongs to an anonymous storefront user
func (c *Claims) IsAnonymous() bool {
	return c.UserType == UserTypeAnonymous
}

// HasPermission checks if the claims contain a specific permission
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// JWTService validates access tokens. It also signs them, which the auth
// service normally does; the service uses it for tests and tooling.
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: 15 * time.Minute,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	UserID      int64
	CompanyID   *int64
	BranchID    *int64
	UserType    string
	Permissions []string
}

// GenerateAccessToken signs an access token for input
func (s *JWTService) GenerateAccessToken(input GenerateTokenInput) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TokenType:   TokenTypeAccess,
		UserID:      input.UserID,
		CompanyID:   input.CompanyID,
		BranchID:    input.BranchID,
		UserType:    input.UserType,
		Permissions: input.Permissions,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateAccessToken validates an access token and returns its claims.
// Anonymous tokens must name a company and a branch; user tokens a user.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != "" && claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}

	if claims.IsAnonymous() {
		if claims.CompanyID == nil || claims.BranchID == nil {
			return nil, ErrInvalidAnonymous
		}
		return claims, nil
	}
	if claims.UserID == 0 {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
