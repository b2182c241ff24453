package authsvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/taxsvc/internal/domain/access"
	"github.com/erp/taxsvc/internal/infrastructure/cache"
	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const permissionTree = `[
  {"id": 1, "name": "Tax", "codename": "tax", "type": "module", "children": [
    {"id": 2, "name": "View tax", "codename": "view_tax", "type": "allowed", "children": []}
  ]}
]`

func newPermissionServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/api/v1/user/permissions", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("paging"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func permissionConfig(baseURL string, cacheEnabled bool) config.AuthServiceConfig {
	return config.AuthServiceConfig{
		BaseURL:        baseURL,
		PermissionPath: "/api/v1/user/permissions?paging=false",
		CacheEnabled:   cacheEnabled,
		CacheTTL:       time.Minute,
		Timeout:        time.Second,
	}
}

func TestPermissionClient_FetchPermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes tree and caches it", func(t *testing.T) {
		var hits int32
		srv := newPermissionServer(t, http.StatusOK, permissionTree, &hits)
		store := cache.NewInMemoryStore()
		defer store.Close()

		client := NewPermissionClient(permissionConfig(srv.URL, true), store)

		tree := client.FetchPermissions(ctx, "Bearer abc")
		require.Len(t, tree, 1)
		require.Len(t, tree[0].Children, 1)
		opt, err := access.Evaluate(tree, "view_tax")
		require.NoError(t, err)
		assert.Equal(t, access.Allowed, opt)

		tree = client.FetchPermissions(ctx, "Bearer abc")
		require.Len(t, tree, 1)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

		_, hit, err := store.Get(ctx, CacheKey("Bearer abc"))
		require.NoError(t, err)
		assert.True(t, hit)
	})

	t.Run("skips cache when disabled", func(t *testing.T) {
		var hits int32
		srv := newPermissionServer(t, http.StatusOK, permissionTree, &hits)
		store := cache.NewInMemoryStore()
		defer store.Close()

		client := NewPermissionClient(permissionConfig(srv.URL, false), store)
		client.FetchPermissions(ctx, "Bearer abc")
		client.FetchPermissions(ctx, "Bearer abc")

		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
		assert.Equal(t, 0, store.Size())
	})

	t.Run("accepts wrapped results", func(t *testing.T) {
		var hits int32
		srv := newPermissionServer(t, http.StatusOK, `{"data": `+permissionTree+`}`, &hits)
		client := NewPermissionClient(permissionConfig(srv.URL, false), nil)

		tree := client.FetchPermissions(ctx, "Bearer abc")
		require.Len(t, tree, 1)
		assert.Equal(t, "tax", tree[0].Codename)
	})

	t.Run("returns empty tree on error status and does not cache", func(t *testing.T) {
		var hits int32
		srv := newPermissionServer(t, http.StatusUnauthorized, `{"detail":"nope"}`, &hits)
		store := cache.NewInMemoryStore()
		defer store.Close()

		client := NewPermissionClient(permissionConfig(srv.URL, true), store)
		tree := client.FetchPermissions(ctx, "Bearer abc")

		assert.Empty(t, tree)
		assert.Equal(t, 0, store.Size())
		_, err := access.Evaluate(tree, "view_tax")
		assert.Error(t, err)
	})

	t.Run("returns empty tree when service unreachable", func(t *testing.T) {
		client := NewPermissionClient(permissionConfig("http://127.0.0.1:1", false), nil)
		assert.Empty(t, client.FetchPermissions(ctx, "Bearer abc"))
	})
}

func TestDecodeTree(t *testing.T) {
	tree, err := decodeTree([]byte(`{"results": [{"codename": "x", "type": "allowed"}]}`))
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "x", tree[0].Codename)

	tree, err = decodeTree([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, tree)

	_, err = decodeTree([]byte(`not json`))
	assert.Error(t, err)
}

func TestCompanyClient(t *testing.T) {
	ctx := context.Background()

	newServer := func(t *testing.T, hits *int32) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(hits, 1)
			switch r.URL.Path {
			case "/company/7":
				_, _ = w.Write([]byte(`{"id": 7, "name": "Acme"}`))
			case "/company-branch/3":
				_, _ = w.Write([]byte(`{"id": 3, "name": "Main"}`))
			case "/company-branch/3/info":
				_, _ = w.Write([]byte(`{"id": 3, "vat_number": "KH-1"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("fetches each endpoint and caches", func(t *testing.T) {
		var hits int32
		srv := newServer(t, &hits)
		store := cache.NewInMemoryStore()
		defer store.Close()

		client := NewCompanyClient(config.CompanyServiceConfig{BaseURL: srv.URL + "/", Timeout: time.Second}, store)

		company, err := client.Company(ctx, "Bearer abc", 7)
		require.NoError(t, err)
		assert.Equal(t, "Acme", company["name"])

		branch, err := client.Branch(ctx, "Bearer abc", 3)
		require.NoError(t, err)
		assert.Equal(t, "Main", branch["name"])

		info, err := client.BranchInfo(ctx, "Bearer abc", 3)
		require.NoError(t, err)
		assert.Equal(t, "KH-1", info["vat_number"])

		_, err = client.Company(ctx, "Bearer abc", 7)
		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("missing authorization yields empty object", func(t *testing.T) {
		var hits int32
		srv := newServer(t, &hits)
		client := NewCompanyClient(config.CompanyServiceConfig{BaseURL: srv.URL}, nil)

		obj, err := client.Company(ctx, "", 7)
		require.NoError(t, err)
		assert.Empty(t, obj)
		assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	})

	t.Run("non success status yields empty object", func(t *testing.T) {
		var hits int32
		srv := newServer(t, &hits)
		client := NewCompanyClient(config.CompanyServiceConfig{BaseURL: srv.URL}, nil)

		obj, err := client.Company(ctx, "Bearer abc", 99)
		require.NoError(t, err)
		assert.Empty(t, obj)
	})

	t.Run("network failure is an error", func(t *testing.T) {
		client := NewCompanyClient(config.CompanyServiceConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)

		_, err := client.Company(ctx, "Bearer abc", 7)
		assert.Error(t, err)
	})
}
