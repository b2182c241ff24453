package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Approval token errors
var (
	ErrApprovalKeyMissing = errors.New("approval public key is not configured")
	ErrApprovalExpired    = errors.New("approval token expired")
	ErrApprovalInvalid    = errors.New("invalid approval token")
)

// MissingPermissionsError reports an approval token lacking codenames
type MissingPermissionsError struct {
	Missing []string
}

func (e *MissingPermissionsError) Error() string {
	return "Missing permissions: " + strings.Join(e.Missing, ", ")
}

// ApprovalClaims are the claims of an RS256 approval token
type ApprovalClaims struct {
	jwt.RegisteredClaims
	UserID      int64    `json:"user_id,omitempty"`
	Permissions []string `json:"permissions"`
}

// ApprovalVerifier checks approval tokens against the auth service key
type ApprovalVerifier struct {
	key *rsa.PublicKey
}

// ParseVerifyKey turns escaped "\n" sequences of an env supplied PEM into
// real newlines
func ParseVerifyKey(pem string) string {
	return strings.ReplaceAll(pem, `\n`, "\n")
}

// NewApprovalVerifier parses the PEM encoded RSA public key. An empty key
// yields a verifier that rejects every token.
func NewApprovalVerifier(publicKeyPEM string) (*ApprovalVerifier, error) {
	if strings.TrimSpace(publicKeyPEM) == "" {
		return &ApprovalVerifier{}, nil
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(ParseVerifyKey(publicKeyPEM)))
	if err != nil {
		return nil, fmt.Errorf("parse approval public key: %w", err)
	}
	return &ApprovalVerifier{key: key}, nil
}

// Verify validates token and checks it grants every codename in required
func (v *ApprovalVerifier) Verify(token string, required ...string) (*ApprovalClaims, error) {
	if v.key == nil {
		return nil, ErrApprovalKeyMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &ApprovalClaims{}, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrApprovalExpired
		}
		return nil, ErrApprovalInvalid
	}

	claims, ok := parsed.Claims.(*ApprovalClaims)
	if !ok || !parsed.Valid {
		return nil, ErrApprovalInvalid
	}

	var missing []string
	for _, codename := range required {
		if !slices.Contains(claims.Permissions, codename) {
			missing = append(missing, codename)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingPermissionsError{Missing: missing}
	}
	return claims, nil
}
