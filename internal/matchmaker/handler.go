package matchmaker

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// caller JWT 中间件注入的地址优先，body 里的地址只在没有中间件时使用
func caller(c *gin.Context, fallback string) string {
	if addr := c.GetString("address"); addr != "" {
		return addr
	}
	return fallback
}

// POST /match/join  body: {pool, tableSize}
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Address = caller(c, req.Address)
	if req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing address"})
		return
	}
	room, queued, err := h.svc.Join(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidTableSize):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrAlreadyInRoom):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if queued {
		c.JSON(http.StatusOK, JoinResponse{
			Queued: true, Pool: req.Pool, TableSize: req.TableSize,
		})
		return
	}
	c.JSON(http.StatusOK, JoinResponse{
		Queued: false, Pool: room.Pool, TableSize: room.TableSize, RoomID: room.ID,
		Players: room.Players, Seats: room.Seats,
	})
}

// POST /match/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)
	addr := caller(c, req.Address)
	if addr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing address"})
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), addr); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RegisterRoutes 挂到 /match 分组
func (h *Handler) RegisterRoutes(g gin.IRoutes) {
	g.POST("/join", h.Join)
	g.POST("/cancel", h.Cancel)
}
