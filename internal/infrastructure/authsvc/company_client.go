package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/erp/taxsvc/internal/infrastructure/cache"
	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Object is a company service resource decoded as loose JSON
type Object map[string]any

// CompanyClient looks up companies and branches
type CompanyClient struct {
	httpClient *http.Client
	baseURL    string
	store      cache.Store
	ttl        time.Duration
}

// NewCompanyClient creates a client for cfg. store may be nil.
func NewCompanyClient(cfg config.CompanyServiceConfig, store cache.Store) *CompanyClient {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CompanyClient{
		httpClient: NewHTTPClient(cfg.Timeout),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		store:      store,
		ttl:        ttl,
	}
}

// Company fetches company/{id}
func (c *CompanyClient) Company(ctx context.Context, authorization string, id int64) (Object, error) {
	return c.fetch(ctx, authorization, fmt.Sprintf("company/%d", id))
}

// Branch fetches company-branch/{id}
func (c *CompanyClient) Branch(ctx context.Context, authorization string, id int64) (Object, error) {
	return c.fetch(ctx, authorization, fmt.Sprintf("company-branch/%d", id))
}

// BranchInfo fetches company-branch/{id}/info
func (c *CompanyClient) BranchInfo(ctx context.Context, authorization string, id int64) (Object, error) {
	return c.fetch(ctx, authorization, fmt.Sprintf("company-branch/%d/info", id))
}

// fetch returns an empty object when the caller sent no Authorization or
// the service answered with a non 2xx status. Network failures are errors.
func (c *CompanyClient) fetch(ctx context.Context, authorization, endpoint string) (Object, error) {
	log := logger.L(ctx)
	key := "company_selector:" + endpoint

	if c.store != nil {
		var cached Object
		hit, err := cache.GetJSON(ctx, c.store, key, &cached)
		if err != nil {
			log.Warn("company cache read failed", zap.Error(err))
		}
		if hit && len(cached) > 0 {
			return cached, nil
		}
	}

	if authorization == "" {
		log.Error("missing Authorization token in request")
		return Object{}, nil
	}

	url := c.baseURL + "/" + endpoint
	body, err := get(ctx, c.httpClient, url, authorization)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		log.Warn("company service refused lookup", zap.String("url", url), zap.Int("status", statusErr.StatusCode))
		return Object{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("company service: %w", err)
	}

	var obj Object
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}

	if c.store != nil && len(obj) > 0 {
		if err := cache.SetJSON(ctx, c.store, key, obj, c.ttl); err != nil {
			log.Warn("company cache write failed", zap.Error(err))
		}
	}
	return obj, nil
}
