package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/taxsvc/internal/infrastructure/auth"
	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "test-issuer"})
}

func int64Ptr(v int64) *int64 {
	return &v
}

func userToken(t *testing.T, svc *auth.JWTService) string {
	t.Helper()
	token, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:    7,
		CompanyID: int64Ptr(3),
		BranchID:  int64Ptr(4),
	})
	require.NoError(t, err)
	return token
}

func anonymousToken(t *testing.T, svc *auth.JWTService) string {
	t.Helper()
	token, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		CompanyID: int64Ptr(3),
		BranchID:  int64Ptr(4),
		UserType:  auth.UserTypeAnonymous,
	})
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return *resp.Error
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, int64(7), GetJWTUserID(c))
		assert.Equal(t, int64(3), *GetJWTCompanyID(c))
		assert.Equal(t, int64(4), *GetJWTBranchID(c))

		companyID, ok := logger.GetCompanyID(c.Request.Context())
		assert.True(t, ok)
		assert.Equal(t, int64(3), companyID)
		c.Status(http.StatusOK)
	})

	rec := serve(router, http.MethodGet, "/test", map[string]string{"Authorization": "Bearer " + userToken(t, svc)})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: 7,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "missing header", header: "", wantCode: dto.ErrCodeUnauthorized},
		{name: "wrong scheme", header: "Token abc", wantCode: dto.ErrCodeUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantCode: dto.ErrCodeUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", wantCode: dto.ErrCodeTokenInvalid},
		{name: "expired token", header: "Bearer " + expired, wantCode: dto.ErrCodeTokenExpired},
		{name: "anonymous token on staff route", header: "Bearer " + anonymousToken(t, svc), wantCode: dto.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuthMiddleware(svc))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := serve(router, http.MethodGet, "/test", headers)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			info := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Detail)
		})
	}
}

func TestAnonymousJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()

	router := gin.New()
	router.Use(AnonymousJWTAuthMiddleware(svc))
	router.GET("/menu", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		c.JSON(http.StatusOK, gin.H{"anonymous": claims.IsAnonymous()})
	})

	t.Run("accepts anonymous token", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/menu", map[string]string{"Authorization": "Bearer " + anonymousToken(t, svc)})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"anonymous":true}`, rec.Body.String())
	})

	t.Run("accepts user token", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/menu", map[string]string{"Authorization": "Bearer " + userToken(t, svc)})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"anonymous":false}`, rec.Body.String())
	})
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService()))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/swagger/*any", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/swagger/index.html", nil).Code)
}

func TestJWTAuthMiddleware_OnError(t *testing.T) {
	cfg := DefaultJWTConfig(newTestJWTService())
	var got error
	cfg.OnError = func(c *gin.Context, err error) {
		got = err
		c.AbortWithStatus(http.StatusTeapot)
	}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, ErrMissingToken)
}

func TestGetJWTHelpers_NoClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Zero(t, GetJWTUserID(c))
	assert.Nil(t, GetJWTCompanyID(c))
	assert.Nil(t, GetJWTBranchID(c))
}
