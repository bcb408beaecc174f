package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/services/resolver"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// MediaResolver is satisfied by *resolver.Resolver.
type MediaResolver interface {
	Resolve(ctx context.Context, req models.MediaRequest) (*models.Resolution, error)
}

type ResolveHandler struct {
	resolver MediaResolver
}

func NewResolveHandler(r MediaResolver) *ResolveHandler {
	return &ResolveHandler{resolver: r}
}

// Resolve godoc
// @Summary Resolve a post URL to playable media URLs
// @Description Normalizes the URL, validates the platform session and asks the extraction tool for stream URLs. Returns a single combined stream when one exists, otherwise separate video and audio streams.
// @Tags resolve
// @Accept json
// @Produce json
// @Param request body models.ResolveRequest true "Post URL with optional credential and platform hint"
// @Success 200 {object} models.ResolveResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/resolve [post]
// @Security ApiKeyAuth
func (h *ResolveHandler) Resolve(c *gin.Context) {
	var req models.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}
	h.resolve(c, req)
}

// ResolveQuery godoc
// @Summary Resolve a post URL to playable media URLs
// @Description Same as the POST variant with the fields passed as query parameters.
// @Tags resolve
// @Produce json
// @Param url query string true "Post URL"
// @Param credential query string false "Session token overriding the configured one"
// @Param platform query string false "Platform hint (instagram, youtube, generic)"
// @Success 200 {object} models.ResolveResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/resolve [get]
// @Security ApiKeyAuth
func (h *ResolveHandler) ResolveQuery(c *gin.Context) {
	var req models.ResolveRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Missing or invalid query parameters", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}
	h.resolve(c, req)
}

func (h *ResolveHandler) resolve(c *gin.Context, req models.ResolveRequest) {
	mediaReq, appErr := toMediaRequest(req)
	if appErr != nil {
		h.errorResponse(c, appErr)
		return
	}

	res, err := h.resolver.Resolve(c.Request.Context(), mediaReq)
	if err != nil {
		h.resolutionError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ResolveResponse{
		Status:       "success",
		Platform:     res.Platform,
		CanonicalURL: res.CanonicalURL,
		Title:        res.Title,
		VideoURL:     res.Selection.VideoURL,
		AudioURL:     res.Selection.AudioURL,
		Combined:     res.Selection.Combined,
	})
}

func toMediaRequest(req models.ResolveRequest) (models.MediaRequest, *utils.AppError) {
	mediaReq := models.MediaRequest{
		RawURL:        req.URL,
		CredentialRef: req.Credential,
	}
	if hint := strings.ToLower(strings.TrimSpace(req.Platform)); hint != "" {
		platform, ok := models.ParsePlatform(hint)
		if !ok {
			return mediaReq, utils.NewValidationError("Unknown platform", map[string]interface{}{
				"platform": req.Platform,
				"allowed":  []models.Platform{models.PlatformInstagram, models.PlatformYouTube, models.PlatformGeneric},
			})
		}
		mediaReq.PlatformHint = platform
	}
	return mediaReq, nil
}

// LegacyReel godoc
// @Summary Resolve an Instagram reel to its video URL
// @Description Kept for clients of the first version of the service. The session_id parameter overrides the configured Instagram session.
// @Tags legacy
// @Produce json
// @Param url query string true "Instagram reel or post URL"
// @Param session_id query string false "Instagram sessionid cookie value"
// @Success 200 {object} models.LegacyReelResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /get_instagram_reel_url [get]
func (h *ResolveHandler) LegacyReel(c *gin.Context) {
	var req models.LegacyReelRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter is required"})
		return
	}

	res, err := h.resolver.Resolve(c.Request.Context(), models.MediaRequest{
		RawURL:        req.URL,
		PlatformHint:  models.PlatformInstagram,
		CredentialRef: req.SessionID,
	})
	if err == nil && res.Selection.VideoURL == "" {
		err = utils.NewResolutionError(utils.KindNoSuitableFormat, "the provided URL does not point to a video", nil)
	}
	if err != nil {
		re := resolver.Classify(err)
		if re.Kind == utils.KindOverloaded {
			c.Header("Retry-After", "1")
		}
		c.JSON(resolver.StatusCode(re.Kind), gin.H{"error": re.Detail})
		return
	}

	c.JSON(http.StatusOK, models.LegacyReelResponse{VideoURL: res.Selection.VideoURL})
}

func (h *ResolveHandler) resolutionError(c *gin.Context, err error) {
	appErr := resolver.ToAppError(err)
	if appErr.StatusCode == http.StatusTooManyRequests {
		c.Header("Retry-After", "1")
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		utils.LogError(c.Request.Context(), "Resolution failed", err)
	}
	h.errorResponse(c, appErr)
}

func (h *ResolveHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
