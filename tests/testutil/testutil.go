// Package testutil holds fixtures shared by the HTTP level tests: signed
// access tokens and a stand-in for the remote permission service.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/erp/taxsvc/internal/domain/access"
	"github.com/erp/taxsvc/internal/infrastructure/auth"
	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Identity of the staff caller the fixtures sign tokens for
const (
	TestUserID    int64 = 7
	TestCompanyID int64 = 1
	TestBranchID  int64 = 1
)

// JWTConfig is the token configuration shared by tests
var JWTConfig = config.JWTConfig{
	Secret: "integration-secret-at-least-32-characters",
	Issuer: "taxsvc-test",
}

// NewJWTService returns a service verifying tokens signed by the fixtures
func NewJWTService() *auth.JWTService {
	return auth.NewJWTService(JWTConfig)
}

func int64Ptr(v int64) *int64 {
	return &v
}

// StaffToken returns a bearer header for the test staff user
func StaffToken(t *testing.T) string {
	t.Helper()
	token, err := NewJWTService().GenerateAccessToken(auth.GenerateTokenInput{
		UserID:    TestUserID,
		CompanyID: int64Ptr(TestCompanyID),
		BranchID:  int64Ptr(TestBranchID),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

// AnonymousToken returns a bearer header for an e-menu guest of the test branch
func AnonymousToken(t *testing.T) string {
	t.Helper()
	token, err := NewJWTService().GenerateAccessToken(auth.GenerateTokenInput{
		CompanyID: int64Ptr(TestCompanyID),
		BranchID:  int64Ptr(TestBranchID),
		UserType:  auth.UserTypeAnonymous,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

// PermissionServer serves a configurable permission tree the way the auth
// service does and counts the lookups it answered
type PermissionServer struct {
	*httptest.Server

	mu    sync.Mutex
	tree  []*access.Node
	calls atomic.Int64
}

// NewPermissionServer starts a server answering with a tree granting
// codenames. It is closed when the test ends.
func NewPermissionServer(t *testing.T, codenames ...string) *PermissionServer {
	t.Helper()
	ps := &PermissionServer{}
	ps.Grant(codenames...)
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.calls.Add(1)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ps.mu.Lock()
		tree := ps.tree
		ps.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": tree})
	}))
	t.Cleanup(ps.Close)
	return ps
}

// Grant replaces the tree with one allowing codenames
func (ps *PermissionServer) Grant(codenames ...string) {
	children := make([]*access.Node, 0, len(codenames))
	for _, c := range codenames {
		children = append(children, &access.Node{Codename: c, Type: access.Allowed})
	}
	ps.SetTree([]*access.Node{{Name: "Tax", Codename: "tax_menu", Children: children}})
}

// SetTree replaces the served tree
func (ps *PermissionServer) SetTree(tree []*access.Node) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.tree = tree
}

// Calls returns how many lookups the server answered
func (ps *PermissionServer) Calls() int64 {
	return ps.calls.Load()
}

// AuthServiceConfig points a permission client at the server
func (ps *PermissionServer) AuthServiceConfig() config.AuthServiceConfig {
	return config.AuthServiceConfig{
		BaseURL:        ps.URL,
		PermissionPath: "/permissions/tree",
		CacheEnabled:   true,
	}
}
