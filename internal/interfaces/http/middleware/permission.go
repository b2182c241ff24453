package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/erp/taxsvc/internal/domain/access"
	"github.com/erp/taxsvc/internal/infrastructure/auth"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Permission context keys and headers
const (
	ApprovalHeader      = "X-Approval-Token"
	ApprovalClaimsKey   = "approval_claims"
	PermissionOptionKey = "permission_option"
)

// PermissionProvider returns the permission tree of the caller. A failed
// lookup yields an empty tree.
type PermissionProvider interface {
	FetchPermissions(ctx context.Context, authorization string) []*access.Node
}

// ApprovalVerifier validates approval tokens for the required codenames
type ApprovalVerifier interface {
	Verify(token string, required ...string) (*auth.ApprovalClaims, error)
}

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Provider  PermissionProvider
	Approvals ApprovalVerifier
	Logger    *zap.Logger
	// OnDenied is called when permission is denied (optional)
	OnDenied func(c *gin.Context, codename string, status int, message string)
}

// RequirePermissionWithConfig checks codename against the caller's
// permission tree. Nodes marked approval_required also need a valid
// approval token granting the codename.
func RequirePermissionWithConfig(codename string, cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tree []*access.Node
		if cfg.Provider != nil {
			tree = cfg.Provider.FetchPermissions(c.Request.Context(), c.GetHeader(AuthHeaderKey))
		}

		opt, err := access.Evaluate(tree, codename)
		if err != nil {
			handlePermissionDenied(c, cfg, codename, http.StatusForbidden, dto.ErrCodeForbidden, err.Error())
			return
		}

		if opt == access.ApprovalRequired {
			claims, status, code, message := checkApproval(c, cfg.Approvals, codename)
			if claims == nil {
				handlePermissionDenied(c, cfg, codename, status, code, message)
				return
			}
			c.Set(ApprovalClaimsKey, claims)
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Permission check passed",
				zap.String("codename", codename),
				zap.String("option", string(opt)),
			)
		}

		c.Set(PermissionOptionKey, opt)
		c.Next()
	}
}

func checkApproval(c *gin.Context, verifier ApprovalVerifier, codename string) (*auth.ApprovalClaims, int, string, string) {
	token := c.GetHeader(ApprovalHeader)
	if token == "" {
		return nil, http.StatusUnauthorized, dto.ErrCodeApprovalRequired, "Approval token required."
	}
	if verifier == nil {
		return nil, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token."
	}

	claims, err := verifier.Verify(token, codename)
	if err == nil {
		return claims, 0, "", ""
	}

	var missing *auth.MissingPermissionsError
	switch {
	case errors.Is(err, auth.ErrApprovalExpired):
		return nil, http.StatusUnauthorized, dto.ErrCodeTokenExpired, "Token expired."
	case errors.As(err, &missing):
		return nil, http.StatusForbidden, dto.ErrCodeForbidden, missing.Error()
	default:
		return nil, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token."
	}
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, codename string, status int, code, message string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, codename, status, message)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("codename", codename),
			zap.Int("status", status),
			zap.String("reason", message),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(status, dto.NewDetailErrorResponse(code, message))
}

// GetApprovalClaims returns the approval token claims of the request, or nil
func GetApprovalClaims(c *gin.Context) *auth.ApprovalClaims {
	if v, ok := c.Get(ApprovalClaimsKey); ok {
		if claims, ok := v.(*auth.ApprovalClaims); ok {
			return claims
		}
	}
	return nil
}
