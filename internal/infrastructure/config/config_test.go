package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"ERP_APP_NAME",
	"ERP_APP_ENV",
	"ERP_APP_PORT",
	"ERP_DATABASE_HOST",
	"ERP_DATABASE_PORT",
	"ERP_DATABASE_USER",
	"ERP_DATABASE_PASSWORD",
	"ERP_DATABASE_DBNAME",
	"ERP_DATABASE_SSLMODE",
	"ERP_DATABASE_MAX_OPEN_CONNS",
	"ERP_DATABASE_MAX_IDLE_CONNS",
	"ERP_JWT_SECRET",
	"ERP_JWT_APPROVAL_PUBLIC_KEY",
	"ERP_AUTH_SERVICE_BASE_URL",
	"ERP_AUTH_SERVICE_CACHE_ENABLED",
	"ERP_AUTH_SERVICE_CACHE_TTL",
	"ERP_PAGINATION_DEFAULT_PAGE_SIZE",
	"ERP_PAGINATION_MAX_PAGE_SIZE",
	"ERP_STORAGE_ENABLED",
	"ERP_STORAGE_BUCKET",
	"ERP_SWAGGER_ENABLED",
	"ERP_SWAGGER_REQUIRE_AUTH",
	"ERP_SWAGGER_ALLOWED_IPS",
	"ERP_TELEMETRY_SAMPLING_RATIO",
}

// clearConfigEnv unsets every key for the duration of the test
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "taxsvc", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "tax", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.AuthService.CacheEnabled)
		assert.Equal(t, 30*time.Minute, cfg.AuthService.CacheTTL)
		assert.Equal(t, 5*time.Second, cfg.AuthService.Timeout)
		assert.Equal(t, 5*time.Minute, cfg.CompanyService.CacheTTL)
		assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)
		assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
		assert.False(t, cfg.Storage.Enabled)
		assert.Equal(t, "archive", cfg.Storage.ArchivePrefix)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("ERP_APP_NAME", "test-app")
		t.Setenv("ERP_DATABASE_HOST", "testdb.local")
		t.Setenv("ERP_DATABASE_PORT", "5433")
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("ERP_AUTH_SERVICE_BASE_URL", "http://auth.local")
		t.Setenv("ERP_AUTH_SERVICE_CACHE_ENABLED", "false")
		t.Setenv("ERP_AUTH_SERVICE_CACHE_TTL", "10m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.AuthService.CacheEnabled)
		assert.Equal(t, 10*time.Minute, cfg.AuthService.CacheTTL)
		assert.Equal(t, "http://auth.local/api/v1/user/permissions?paging=false", cfg.AuthService.PermissionURL())
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates page size bounds", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("ERP_PAGINATION_DEFAULT_PAGE_SIZE", "200")
		t.Setenv("ERP_PAGINATION_MAX_PAGE_SIZE", "100")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pagination.default_page_size")
	})

	t.Run("requires bucket when storage is enabled", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("ERP_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("ERP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("ERP_JWT_APPROVAL_PUBLIC_KEY", "-----BEGIN PUBLIC KEY-----\\nabc\\n-----END PUBLIC KEY-----")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")
		t.Setenv("ERP_SWAGGER_ENABLED", "false")
	}

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "requires jwt.secret",
			env:     map[string]string{"ERP_JWT_SECRET": ""},
			wantErr: "jwt.secret is required in production",
		},
		{
			name:    "requires jwt.secret at least 32 characters",
			env:     map[string]string{"ERP_JWT_SECRET": "short-secret"},
			wantErr: "jwt.secret must be at least 32 characters",
		},
		{
			name:    "requires approval public key",
			env:     map[string]string{"ERP_JWT_APPROVAL_PUBLIC_KEY": ""},
			wantErr: "jwt.approval_public_key is required",
		},
		{
			name:    "requires database.password",
			env:     map[string]string{"ERP_DATABASE_PASSWORD": ""},
			wantErr: "database.password is required in production",
		},
		{
			name:    "requires SSL enabled",
			env:     map[string]string{"ERP_DATABASE_SSLMODE": "disable"},
			wantErr: "database.sslmode cannot be 'disable' in production",
		},
		{
			name: "rejects unprotected swagger",
			env: map[string]string{
				"ERP_SWAGGER_ENABLED":      "true",
				"ERP_SWAGGER_REQUIRE_AUTH": "false",
			},
			wantErr: "swagger endpoint must be disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("passes with swagger enabled and require_auth", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ERP_SWAGGER_ENABLED", "true")
		t.Setenv("ERP_SWAGGER_REQUIRE_AUTH", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.Enabled)
		assert.True(t, cfg.Swagger.RequireAuth)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
