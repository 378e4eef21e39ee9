// Package api exposes the ranking core over HTTP. Routing, validation and
// auth stop here; ranking semantics live entirely in internal/ranking.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/clubport/clubport/internal/errcode"
	"github.com/clubport/clubport/internal/ranking"
)

// Handler bundles the route handlers and their dependencies.
type Handler struct {
	engine *ranking.Engine
	logger *zap.Logger
}

// NewHandler creates the handler set.
func NewHandler(engine *ranking.Engine, log *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: log,
	}
}

// GetLeaderboard GET /api/v1/leaderboard?page=&page_size=
func (h *Handler) GetLeaderboard(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 20)

	result, err := h.engine.GetPage(c.Request.Context(), page, pageSize)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	OkJSON(c, result)
}

// GetTopN GET /api/v1/leaderboard/top?n=
func (h *Handler) GetTopN(c *gin.Context) {
	n := intQuery(c, "n", 10)

	entries, err := h.engine.GetTopN(c.Request.Context(), n)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	OkJSON(c, gin.H{"entries": entries})
}

// GetMemberRank GET /api/v1/leaderboard/members/:id
func (h *Handler) GetMemberRank(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		HandleError(c, h.logger, errcode.ErrInvalidMemberID)
		return
	}

	nb, err := h.engine.GetRankAndNeighbors(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	OkJSON(c, nb)
}

// adjustScoreRequest is the body of POST /api/v1/members/:id/score.
type adjustScoreRequest struct {
	Delta int64  `json:"delta"`
	Mode  string `json:"mode"`
}

func (r adjustScoreRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mode, validation.Required,
			validation.In(string(ranking.ModeAdd), string(ranking.ModeSet), string(ranking.ModeSubtract))),
		validation.Field(&r.Delta, validation.Min(0)),
	)
}

// AdjustScore POST /api/v1/members/:id/score
func (h *Handler) AdjustScore(c *gin.Context) {
	id := c.Param("id")

	var req adjustScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleError(c, h.logger, errcode.ErrInvalidArgument.Wrap(err))
		return
	}
	if err := req.Validate(); err != nil {
		HandleError(c, h.logger, errcode.ErrInvalidArgument.WithMsgf("%v", err))
		return
	}

	member, err := h.engine.AdjustScore(c.Request.Context(), id, req.Delta, ranking.AdjustMode(req.Mode))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	OkJSON(c, member)
}

// Healthz GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1 // invalid input surfaces as a validation error downstream
	}
	return n
}
