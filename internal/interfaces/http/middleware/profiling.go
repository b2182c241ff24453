package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/erp/taxsvc/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/api/v1/health"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// ProfilingWithConfig tags the request with Pyroscope labels: controller,
// route, method and company_id
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
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

		telemetry.WithProfilingLabels(c.Request.Context(), extractProfilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func extractProfilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	labels := map[string]string{
		telemetry.ProfilingLabelMethod:     c.Request.Method,
		telemetry.ProfilingLabelRoute:      route,
		telemetry.ProfilingLabelController: extractControllerFromRoute(route),
	}
	if companyID := GetJWTCompanyID(c); companyID != nil {
		labels[telemetry.ProfilingLabelCompanyID] = strconv.FormatInt(*companyID, 10)
	}
	return labels
}

// extractControllerFromRoute returns the first resource segment of route.
// "/api/v1/tax-category/:id" gives "tax-category".
func extractControllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
