package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/anime-shed/anemia-screen-go/internal/config"
	apperrors "github.com/anime-shed/anemia-screen-go/internal/errors"
	"github.com/anime-shed/anemia-screen-go/internal/logger"
	"github.com/anime-shed/anemia-screen-go/internal/observer"
	"github.com/anime-shed/anemia-screen-go/internal/service"
	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// UserIDHeader carries the caller identity set by the upstream auth proxy
	UserIDHeader = "X-User-ID"

	identityKey = "identity"
	version     = "1.0.0"
)

type handler struct {
	svc     service.AnalysisService
	metrics *observer.MetricsObserver
	cfg     *config.Config
}

// NewHandler builds the HTTP API. metrics may be nil, in which case
// /api/v1/stats reports empty counters.
func NewHandler(svc service.AnalysisService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	if metrics == nil {
		metrics = observer.NewMetricsObserver()
	}
	h := &handler{svc: svc, metrics: metrics, cfg: cfg}

	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		identityExtractor(),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)

	api := r.Group("/api/v1")
	api.POST("/analyze", h.analyzeUpload)
	api.POST("/analyze/url", h.analyzeURL)
	api.POST("/analyze/batch", h.analyzeBatch)
	api.GET("/results/:id", h.getResult)
	api.GET("/users/me/results", h.listResults)
	api.GET("/users/me/summary", h.summary)
	api.GET("/stats", h.stats)

	return r
}

func (h *handler) analyzeUpload(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	logRequest(c, "Processing upload analysis request")

	params, err := analysisParams(c)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "invalid query parameters", err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", apperrors.NewValidationError("multipart field 'image' is required", err))
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}

	upload := service.Upload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	}
	resp, err := h.svc.AnalyzeUpload(ctx, identityFrom(c), upload, params)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) analyzeURL(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	logRequest(c, "Processing URL analysis request")

	params, err := analysisParams(c)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "invalid query parameters", err)
		return
	}

	var req models.URLAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	resp, err := h.svc.AnalyzeURL(ctx, identityFrom(c), req.URL, params)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"url": req.URL,
			"ip":  c.ClientIP(),
		}).Debug("URL analysis failed")
		respondError(c, apperrors.GetStatusCode(err), "analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) analyzeBatch(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	logRequest(c, "Processing batch analysis request")

	params, err := analysisParams(c)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "invalid query parameters", err)
		return
	}

	var req models.BatchAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	resp, err := h.svc.AnalyzeBatch(ctx, identityFrom(c), req.URLs, params)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "batch analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getResult(c *gin.Context) {
	resp, err := h.svc.GetResult(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) listResults(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "invalid query parameters",
				apperrors.NewValidationError("limit must be a positive integer", err))
			return
		}
		limit = n
	}

	list, err := h.svc.ListResults(c.Request.Context(), identityFrom(c), limit)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "history lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list, "count": len(list)})
}

func (h *handler) summary(c *gin.Context) {
	summary, err := h.svc.Summarize(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "summary failed", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

// analysisParams reads the heatmap, stride and mode query overrides
func analysisParams(c *gin.Context) (service.AnalysisParams, error) {
	params := service.AnalysisParams{Mode: c.Query("mode")}

	if raw := c.Query("heatmap"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return params, apperrors.NewValidationError("heatmap must be true or false", err)
		}
		params.Heatmap = &enabled
	}
	if raw := c.Query("stride"); raw != "" {
		stride, err := strconv.Atoi(raw)
		if err != nil || stride < 1 {
			return params, apperrors.NewValidationError("stride must be a positive integer", err)
		}
		params.Stride = stride
	}
	return params, nil
}

func logRequest(c *gin.Context, msg string) {
	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info(msg)
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// identityExtractor turns the auth proxy header into an explicit Identity
func identityExtractor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, service.NewIdentity(c.GetHeader(UserIDHeader)))
		c.Next()
	}
}

func identityFrom(c *gin.Context) service.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(service.Identity); ok {
			return id
		}
	}
	return service.Identity{}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		code = http.StatusRequestEntityTooLarge
	}

	// Log the error with context
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request failed")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %s", message, clientMessage(err)),
	})
}

// clientMessage hides wrapped causes of AppErrors from API clients
func clientMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
