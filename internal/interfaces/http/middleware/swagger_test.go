package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg config.SwaggerConfig, jwtMiddleware gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwtMiddleware), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func swaggerRequest(router *gin.Engine, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SwaggerConfig
		remoteAddr string
		want       int
	}{
		{
			name: "disabled",
			cfg:  config.SwaggerConfig{Enabled: false},
			want: http.StatusNotFound,
		},
		{
			name:       "enabled without restrictions",
			cfg:        config.SwaggerConfig{Enabled: true},
			remoteAddr: "203.0.113.9:1234",
			want:       http.StatusOK,
		},
		{
			name:       "exact ip allowed",
			cfg:        config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.1.100"}},
			remoteAddr: "192.168.1.100:1234",
			want:       http.StatusOK,
		},
		{
			name:       "cidr allowed",
			cfg:        config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}},
			remoteAddr: "10.20.30.40:1234",
			want:       http.StatusOK,
		},
		{
			name:       "ip outside list",
			cfg:        config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8", "192.168.1.100"}},
			remoteAddr: "203.0.113.9:1234",
			want:       http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := swaggerRequest(swaggerRouter(tt.cfg, nil), tt.remoteAddr, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSwaggerProtection_RequireAuth(t *testing.T) {
	svc := newTestJWTService()
	cfg := config.SwaggerConfig{Enabled: true, RequireAuth: true}
	jwtCfg := DefaultJWTConfig(svc)
	jwtCfg.SkipPathPrefixes = nil
	router := swaggerRouter(cfg, JWTAuthMiddlewareWithConfig(jwtCfg))

	rec := swaggerRequest(router, "203.0.113.9:1234", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = swaggerRequest(router, "203.0.113.9:1234", map[string]string{"Authorization": "Bearer " + userToken(t, svc)})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIsIPAllowed(t *testing.T) {
	ips, nets := parseAllowList([]string{"192.168.1.1", "10.0.0.0/8", "not-an-ip", "bad/cidr"})

	assert.Len(t, ips, 1)
	assert.Len(t, nets, 1)
	assert.True(t, isIPAllowed(net.ParseIP("192.168.1.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("10.1.2.3"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("172.16.0.1"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}
