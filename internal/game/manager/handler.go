package manager

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"AutoHoldem/internal/game/engine"
	"AutoHoldem/internal/game/table"
	"AutoHoldem/internal/handstore"
)

type Handler struct {
	mgr *GameManager
}

func NewHandler(mgr *GameManager) *Handler {
	return &Handler{mgr: mgr}
}

// ActionRequest POST /tables/:id/actions
type ActionRequest struct {
	Type      table.ActionType `json:"type" binding:"required"`
	Amount    int64            `json:"amount"`
	RequestID string           `json:"requestId"`
}

// RegisterRoutes 挂到 /tables 分组（需要 JWT，middleware 注入 address）
func (h *Handler) RegisterRoutes(g gin.IRoutes) {
	g.GET("/:id/state", h.State)
	g.GET("/:id/me", h.Me)
	g.GET("/:id/legal", h.Legal)
	g.GET("/:id/events", h.Events)
	g.POST("/:id/actions", h.Act)
	g.POST("/:id/autoplay", h.Autoplay)
	g.POST("/:id/next-hand", h.NextHand)
	g.POST("/:id/sit-out", h.SitOut)
}

// statusOf 错误类别 → HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, handstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, handstore.ErrVersionConflict),
		errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrNotActionPhase),
		errors.Is(err, ErrHandInProgress),
		errors.Is(err, ErrTableExists):
		return http.StatusConflict
	case errors.Is(err, ErrNotSeated), errors.Is(err, engine.ErrUnknownUser):
		return http.StatusForbidden
	case errors.Is(err, ErrTableClosed):
		return http.StatusGone
	case engine.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, handstore.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var v *engine.ValidationError
	if errors.As(err, &v) {
		body["code"] = v.Code
	}
	c.JSON(statusOf(err), body)
}

func (h *Handler) State(c *gin.Context) {
	view, version, err := h.mgr.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": version, "state": view})
}

func (h *Handler) Me(c *gin.Context) {
	view, version, err := h.mgr.PlayerView(c.Request.Context(), c.Param("id"), c.GetString("address"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": version, "state": view})
}

func (h *Handler) Legal(c *gin.Context) {
	legal, err := h.mgr.LegalActions(c.Request.Context(), c.Param("id"), c.GetString("address"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"legalActions": legal})
}

func (h *Handler) Events(c *gin.Context) {
	events, err := h.mgr.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) Act(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr := c.GetString("address")
	if addr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing address"})
		return
	}
	out, err := h.mgr.SubmitAction(c.Request.Context(), c.Param("id"), table.Action{
		Type:      req.Type,
		Amount:    req.Amount,
		UserID:    addr,
		RequestID: req.RequestID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Autoplay(c *gin.Context) {
	out, err := h.mgr.RunAutoplay(c.Request.Context(), c.Param("id"), c.Query("requestId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) NextHand(c *gin.Context) {
	out, err := h.mgr.NextHand(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) SitOut(c *gin.Context) {
	out, err := h.mgr.SitOut(c.Request.Context(), c.Param("id"), c.GetString("address"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
