package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/services/storage"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// ToolChecker reports whether the extraction binary can be run.
type ToolChecker interface {
	Available() error
}

// GovernorStats is satisfied by *resolver.Governor.
type GovernorStats interface {
	Capacity() int
	InFlight() int
}

// CredentialStatus is satisfied by *credentials.Provider.
type CredentialStatus interface {
	Has(platform models.Platform) bool
}

type HealthHandler struct {
	tool        ToolChecker
	governor    GovernorStats
	credentials CredentialStatus
	store       storage.CookieStore
}

type HealthResponse struct {
	Status      string                   `json:"status"`
	Timestamp   string                   `json:"timestamp"`
	Version     string                   `json:"version"`
	Services    map[string]ServiceHealth `json:"services"`
	Resolutions ResolutionLoad           `json:"resolutions"`
	Credentials map[string]bool          `json:"credentials"`
}

type ServiceHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

type ResolutionLoad struct {
	InFlight int `json:"in_flight"`
	Capacity int `json:"capacity"`
}

// NewHealthHandler accepts a nil store when S3 is not configured.
func NewHealthHandler(tool ToolChecker, governor GovernorStats, credentials CredentialStatus, store storage.CookieStore) *HealthHandler {
	return &HealthHandler{
		tool:        tool,
		governor:    governor,
		credentials: credentials,
		store:       store,
	}
}

// Health godoc
// @Summary Health check endpoint
// @Description Check the extraction tool, the cookie store and the current resolution load
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   "1.0.0",
		Services:  make(map[string]ServiceHealth),
		Resolutions: ResolutionLoad{
			InFlight: h.governor.InFlight(),
			Capacity: h.governor.Capacity(),
		},
		Credentials: map[string]bool{
			string(models.PlatformInstagram): h.credentials.Has(models.PlatformInstagram),
			string(models.PlatformYouTube):   h.credentials.Has(models.PlatformYouTube),
		},
	}

	response.Services["extractor"] = h.checkTool(ctx)
	if h.store != nil {
		response.Services["s3"] = h.checkS3(ctx)
	}

	for _, service := range response.Services {
		if service.Status != "healthy" {
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// Readiness godoc
// @Summary Readiness check endpoint
// @Description Ready when the extraction tool is installed and a resolution slot is free
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ready := true
	checks := make(map[string]interface{})

	if err := h.tool.Available(); err != nil {
		ready = false
		checks["extractor"] = map[string]interface{}{
			"ready": false,
			"error": err.Error(),
		}
	} else {
		checks["extractor"] = map[string]interface{}{
			"ready": true,
		}
	}

	hasCapacity := h.governor.InFlight() < h.governor.Capacity()
	if !hasCapacity {
		ready = false
	}
	checks["capacity"] = map[string]interface{}{
		"ready":     hasCapacity,
		"in_flight": h.governor.InFlight(),
		"capacity":  h.governor.Capacity(),
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	if ready {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// Liveness godoc
// @Summary Liveness check endpoint
// @Description Check if the service is alive
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkTool(ctx context.Context) ServiceHealth {
	start := time.Now()
	err := h.tool.Available()
	responseTime := time.Since(start).String()

	if err != nil {
		utils.LogError(ctx, "Extraction tool health check failed", err)
		return ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ServiceHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func (h *HealthHandler) checkS3(ctx context.Context) ServiceHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.store.Ping(checkCtx)
	responseTime := time.Since(start).String()

	if err != nil {
		utils.LogError(ctx, "S3 health check failed", err)
		return ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ServiceHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
