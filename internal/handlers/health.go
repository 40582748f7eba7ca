package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"
)

const serviceName = "pricing-service"

// HealthChecker reports the health of the service's backing stores
type HealthChecker interface {
	DBHealth(ctx context.Context) error
	RedisHealth(ctx context.Context) error
	CacheStats() *cache.CacheStats
}

// EventsStatus reports whether event publishing is connected
type EventsStatus interface {
	IsConnected() bool
}

type HealthHandler struct {
	checker      HealthChecker
	events       EventsStatus
	redisEnabled bool
}

func NewHealthHandler(checker HealthChecker, events EventsStatus, redisEnabled bool) *HealthHandler {
	return &HealthHandler{checker: checker, events: events, redisEnabled: redisEnabled}
}

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Ready returns detailed health status. The database is required; Redis and NATS only degrade.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "healthy",
		"service": serviceName,
	}
	checks := gin.H{}
	status := http.StatusOK

	if err := h.checker.DBHealth(ctx); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		health["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	switch {
	case !h.redisEnabled:
		checks["redis"] = gin.H{"status": "disabled"}
	default:
		if err := h.checker.RedisHealth(ctx); err != nil {
			checks["redis"] = gin.H{"status": "unhealthy", "error": err.Error()}
			if status == http.StatusOK {
				health["status"] = "degraded"
			}
		} else {
			checks["redis"] = gin.H{"status": "healthy"}
		}
	}

	if h.events == nil {
		checks["events"] = gin.H{"status": "disabled"}
	} else if h.events.IsConnected() {
		checks["events"] = gin.H{"status": "healthy"}
	} else {
		checks["events"] = gin.H{"status": "unhealthy"}
		if status == http.StatusOK {
			health["status"] = "degraded"
		}
	}

	// Add cache stats if available
	if stats := h.checker.CacheStats(); stats != nil {
		checks["cache_stats"] = gin.H{
			"l1_hits":   stats.L1Hits,
			"l1_misses": stats.L1Misses,
			"l2_hits":   stats.L2Hits,
			"l2_misses": stats.L2Misses,
		}
	}

	health["checks"] = checks
	c.JSON(status, health)
}
