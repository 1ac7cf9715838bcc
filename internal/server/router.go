package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/auth"
	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ownerIDContextKey        = "modulux_owner_id"
	defaultHeartbeatInterval = 25 * time.Second
)

var (
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingOwnerResolver    = errors.New("owner resolver dependency required")
	errMissingPortfolioService = errors.New("portfolio service dependency required")
)

type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
}

type OwnerResolver interface {
	ResolveOwner(ctx context.Context, claims auth.SessionClaims) (portfolios.OwnerID, error)
}

// PortfolioService is the access layer surface the handlers depend on.
type PortfolioService interface {
	Get(ctx context.Context, id string, ownerID portfolios.OwnerID) (portfolios.Portfolio, bool, error)
	Create(ctx context.Context, ownerID portfolios.OwnerID, name string) (portfolios.Portfolio, error)
	Update(ctx context.Context, id string, ownerID portfolios.OwnerID, patch portfolios.Patch) (portfolios.Portfolio, bool, error)
	Delete(ctx context.Context, id string, ownerID portfolios.OwnerID) (bool, error)
	Publish(ctx context.Context, id string, ownerID portfolios.OwnerID) (portfolios.Portfolio, bool, error)
	ListByOwner(ctx context.Context, ownerID portfolios.OwnerID) ([]portfolios.Portfolio, error)
	Duplicate(ctx context.Context, id string, ownerID portfolios.OwnerID, newName string) (portfolios.Portfolio, bool, error)
	GetPublishedBySlug(ctx context.Context, slug string) (portfolios.Portfolio, bool, error)
}

type Dependencies struct {
	SessionValidator  SessionValidator
	OwnerResolver     OwnerResolver
	Portfolios        PortfolioService
	Realtime          *RealtimeDispatcher
	Metrics           *Metrics
	AllowedOrigins    []string
	HeartbeatInterval time.Duration
	Logger            *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.SessionValidator == nil {
		return nil, errMissingSessionValidator
	}
	if deps.OwnerResolver == nil {
		return nil, errMissingOwnerResolver
	}
	if deps.Portfolios == nil {
		return nil, errMissingPortfolioService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.middleware())
	router.Use(corsMiddleware(deps.AllowedOrigins...))

	handler := &httpHandler{
		sessions:          deps.SessionValidator,
		owners:            deps.OwnerResolver,
		portfolios:        deps.Portfolios,
		realtime:          realtime,
		metrics:           metrics,
		heartbeatInterval: heartbeat,
		logger:            logger,
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/sections/catalog", handler.handleSectionCatalog)
	router.GET("/p/:slug", handler.handlePublishedPortfolio)

	protected := router.Group("/portfolios")
	protected.Use(handler.authorizeRequest)
	protected.GET("", handler.handleListPortfolios)
	protected.POST("", handler.handleCreatePortfolio)
	protected.GET("/stream", handler.handlePortfolioStream)
	protected.GET("/:id", handler.handleGetPortfolio)
	protected.PUT("/:id", handler.handleUpdatePortfolio)
	protected.DELETE("/:id", handler.handleDeletePortfolio)
	protected.POST("/:id/publish", handler.handlePublishPortfolio)
	protected.POST("/:id/duplicate", handler.handleDuplicatePortfolio)

	return router, nil
}

type httpHandler struct {
	sessions          SessionValidator
	owners            OwnerResolver
	portfolios        PortfolioService
	realtime          *RealtimeDispatcher
	metrics           *Metrics
	heartbeatInterval time.Duration
	logger            *zap.Logger
}

// corsMiddleware reflects the request origin when no origins are configured or "*" is listed.
// Credentials stay enabled so the session cookie reaches the API.
func corsMiddleware(allowedOrigins ...string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-TAuth-Tenant"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	allowAny := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAny = true
		}
	}
	if allowAny {
		config.AllowOriginFunc = func(string) bool { return true }
	} else {
		config.AllowOrigins = allowedOrigins
	}
	return cors.New(config)
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		level := zapcore.WarnLevel
		switch {
		case errors.Is(err, auth.ErrMissingSessionToken):
			level = zapcore.DebugLevel
		case errors.Is(err, auth.ErrExpiredSessionToken):
			level = zapcore.InfoLevel
		}
		h.logger.Log(level, "token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": codeUnauthorized})
		return
	}

	ownerID, err := h.owners.ResolveOwner(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, users.ErrInvalidIdentity) {
			h.logger.Warn("session identity rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": codeUnauthorized})
			return
		}
		h.logger.Error("owner resolution failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Set(ownerIDContextKey, ownerID)
	c.Next()
}

func ownerFromContext(c *gin.Context) (portfolios.OwnerID, bool) {
	value, exists := c.Get(ownerIDContextKey)
	if !exists {
		return "", false
	}
	ownerID, ok := value.(portfolios.OwnerID)
	return ownerID, ok && ownerID != ""
}
