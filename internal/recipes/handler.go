package recipes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/storage"
)

const keyPrefix = "recipe"

// Handler はレシピの HTTP ハンドラーです。
type Handler struct {
	docs   *storage.Collection[Recipe]
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler は Handler を作成します。
func NewHandler(rdb *redis.Client, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		docs:   storage.NewCollection[Recipe](rdb, keyPrefix),
		logger: log,
		now:    time.Now,
	}
}

// Create は POST /recipe のハンドラーです。
// createdBy が省略された場合は認証済みの呼び出し元を作成者にします。
func (h *Handler) Create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
		return
	}
	in.normalize()
	if in.CreatedBy == "" {
		if principal, ok := auth.CurrentPrincipal(c); ok {
			in.CreatedBy = principal.SubjectID
		}
	}
	if err := in.validateCreate(); err != nil || in.CreatedBy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
		return
	}

	now := h.now().UTC()
	recipe := &Recipe{
		ID:        uuid.NewString(),
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(recipe)

	if err := h.docs.Put(c.Request.Context(), recipe.ID, recipe); err != nil {
		h.serverError(c, "recipe create failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Recipe created successfully",
		"recipe":  recipe,
	})
}

// List は GET /recipe のハンドラーです。
func (h *Handler) List(c *gin.Context) {
	list, err := h.docs.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "recipe list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Recipes retrieved successfully",
		"data":    list,
	})
}

// Update は PUT /recipe/:id のハンドラーです。
func (h *Handler) Update(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	in.normalize()

	now := h.now().UTC()
	recipe, err := h.docs.Update(c.Request.Context(), c.Param("id"), func(r *Recipe) error {
		in.apply(r)
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Recipe not found"})
			return
		}
		h.serverError(c, "recipe update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Recipe updated successfully",
		"recipe":  recipe,
	})
}

// Delete は DELETE /recipe/:id のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	if err := h.docs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Recipe not found"})
			return
		}
		h.serverError(c, "recipe delete failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Recipe deleted successfully"})
}

func (h *Handler) serverError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
}
