// Package todos は認証不要の簡易 ToDo リストを提供します。
package todos

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/recipe-box/internal/storage"
)

// Todo は ToDo 項目です。
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

type createRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Handler は /todo のハンドラーです。
type Handler struct {
	docs   *storage.Collection[Todo]
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler は Handler を作成します。
func NewHandler(rdb *redis.Client, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		docs:   storage.NewCollection[Todo](rdb, "todo"),
		logger: log,
		now:    time.Now,
	}
}

// Create は POST /todo のハンドラーです。
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Todo creation unsuccessful",
			"error":   "title is required",
		})
		return
	}

	todo := &Todo{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Completed:   req.Completed,
		CreatedAt:   h.now().UTC(),
	}
	if err := h.docs.Put(c.Request.Context(), todo.ID, todo); err != nil {
		h.logger.Error("todo create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Todo creation unsuccessful",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Todo is created successfully",
		"data":    todo,
	})
}

// List は GET /todo のハンドラーです。
func (h *Handler) List(c *gin.Context) {
	list, err := h.docs.List(c.Request.Context())
	if err != nil {
		h.logger.Error("todo list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Unable to retrieve Todo list data",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Todo List Retrieved Successfully",
		"data":    list,
	})
}
