package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clubport/clubport/internal/errcode"
	"github.com/clubport/clubport/internal/limiter"
)

// NewRouter builds the gin engine with all portal routes.
func NewRouter(h *Handler, authCfg AuthConfig, lim *limiter.Limiter, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", h.Healthz)

	v1 := router.Group("/api/v1")
	v1.GET("/leaderboard", h.GetLeaderboard)
	v1.GET("/leaderboard/top", h.GetTopN)
	v1.GET("/leaderboard/members/:id", h.GetMemberRank)

	// Mutations sit behind token auth, a capability check and the rate
	// limiter; reads stay public.
	mutations := v1.Group("")
	mutations.Use(
		RateLimit(lim, log),
		AuthRequired(authCfg, log),
		RequireCapability("points:adjust", log),
	)
	mutations.POST("/members/:id/score", h.AdjustScore)

	return router
}

// RateLimit applies the fixed-window limiter keyed by client IP.
func RateLimit(lim *limiter.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !lim.Allow(c.Request.Context(), c.ClientIP()) {
			HandleError(c, log, errcode.ErrRateLimited)
			return
		}
		c.Next()
	}
}
