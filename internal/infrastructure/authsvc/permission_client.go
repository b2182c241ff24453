package authsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/erp/taxsvc/internal/domain/access"
	"github.com/erp/taxsvc/internal/infrastructure/cache"
	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// PermissionClient fetches the caller's permission tree
type PermissionClient struct {
	httpClient   *http.Client
	url          string
	store        cache.Store
	cacheEnabled bool
	ttl          time.Duration
}

// NewPermissionClient creates a client for cfg. store may be nil.
func NewPermissionClient(cfg config.AuthServiceConfig, store cache.Store) *PermissionClient {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PermissionClient{
		httpClient:   NewHTTPClient(cfg.Timeout),
		url:          cfg.PermissionURL(),
		store:        store,
		cacheEnabled: cfg.CacheEnabled && store != nil,
		ttl:          ttl,
	}
}

// CacheKey returns the cache key of the tree fetched with authorization
func CacheKey(authorization string) string {
	return "permissions:" + authorization
}

// FetchPermissions returns the permission tree of the token in
// authorization. A failed fetch is logged and yields an empty tree, which
// denies every codename.
func (c *PermissionClient) FetchPermissions(ctx context.Context, authorization string) []*access.Node {
	log := logger.L(ctx)
	key := CacheKey(authorization)

	if c.cacheEnabled && authorization != "" {
		var tree []*access.Node
		hit, err := cache.GetJSON(ctx, c.store, key, &tree)
		if err != nil {
			log.Warn("permission cache read failed", zap.Error(err))
		}
		if hit && len(tree) > 0 {
			return tree
		}
	}

	tree, err := c.fetch(ctx, authorization)
	if err != nil {
		log.Error("failed to fetch permissions", zap.String("url", c.url), zap.Error(err))
		return nil
	}

	if c.cacheEnabled && authorization != "" && len(tree) > 0 {
		if err := cache.SetJSON(ctx, c.store, key, tree, c.ttl); err != nil {
			log.Warn("permission cache write failed", zap.Error(err))
		}
	}
	return tree
}

func (c *PermissionClient) fetch(ctx context.Context, authorization string) ([]*access.Node, error) {
	body, err := get(ctx, c.httpClient, c.url, authorization)
	if err != nil {
		return nil, err
	}
	return decodeTree(body)
}

// decodeTree accepts a bare node list or one wrapped in data or results
func decodeTree(body []byte) ([]*access.Node, error) {
	var tree []*access.Node
	if err := json.Unmarshal(body, &tree); err == nil {
		return tree, nil
	}

	var wrapped struct {
		Data    json.RawMessage `json:"data"`
		Results []*access.Node  `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode permission tree: %w", err)
	}
	if len(wrapped.Results) > 0 {
		return wrapped.Results, nil
	}
	if len(wrapped.Data) > 0 {
		return decodeTree(wrapped.Data)
	}
	return nil, nil
}
