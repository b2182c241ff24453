package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/taxsvc/internal/infrastructure/auth"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey    = "jwt_claims"
	JWTUserIDKey    = "jwt_user_id"
	JWTCompanyIDKey = "jwt_company_id"
	JWTBranchIDKey  = "jwt_branch_id"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// Authentication errors raised before a token reaches validation
var (
	ErrMissingToken        = errors.New("missing bearer token")
	ErrAnonymousNotAllowed = errors.New("anonymous token not allowed")
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// AllowAnonymous accepts anonymous storefront tokens
	AllowAnonymous bool
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
		},
		SkipPathPrefixes: []string{
			"/swagger",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// AnonymousJWTAuthMiddleware accepts user tokens and anonymous storefront
// tokens alike
func AnonymousJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	cfg := DefaultJWTConfig(jwtService)
	cfg.AllowAnonymous = true
	return JWTAuthMiddlewareWithConfig(cfg)
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, ErrMissingToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, ErrMissingToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			handleAuthError(c, cfg, ErrMissingToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}
		if claims.IsAnonymous() && !cfg.AllowAnonymous {
			handleAuthError(c, cfg, ErrAnonymousNotAllowed, "Anonymous token on a staff route")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTCompanyIDKey, claims.CompanyID)
		c.Set(JWTBranchIDKey, claims.BranchID)

		ctx := c.Request.Context()
		if claims.UserID != 0 {
			ctx = logger.WithUserID(ctx, claims.UserID)
		}
		if claims.CompanyID != nil {
			ctx = logger.WithCompanyID(ctx, *claims.CompanyID)
		}
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.Int64("user_id", claims.UserID),
				zap.String("user_type", claims.UserType),
			)
		}

		c.Next()
	}
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code := dto.ErrCodeUnauthorized
	msg := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		msg = "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingUserID),
		errors.Is(err, auth.ErrInvalidAnonymous):
		code = dto.ErrCodeTokenInvalid
		msg = "Invalid token"
	case errors.Is(err, ErrAnonymousNotAllowed):
		msg = "Authentication credentials were not provided"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewDetailErrorResponse(code, msg))
}

// GetJWTClaims returns the claims stored by the JWT middleware, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user id, 0 for anonymous callers
func GetJWTUserID(c *gin.Context) int64 {
	if v, ok := c.Get(JWTUserIDKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// GetJWTCompanyID returns the company of the caller's token
func GetJWTCompanyID(c *gin.Context) *int64 {
	if v, ok := c.Get(JWTCompanyIDKey); ok {
		if id, ok := v.(*int64); ok {
			return id
		}
	}
	return nil
}

// GetJWTBranchID returns the branch of the caller's token
func GetJWTBranchID(c *gin.Context) *int64 {
	if v, ok := c.Get(JWTBranchIDKey); ok {
		if id, ok := v.(*int64); ok {
			return id
		}
	}
	return nil
}
