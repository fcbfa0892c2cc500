package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/logger"
)

// Handler は /user-info 系のハンドラーをまとめます。
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, logger: log}
}

// Create は POST /user-info のハンドラーです。
func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "User creation failed",
			"error":   "name, email, password and role are required",
		})
		return
	}

	user, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "User creation failed")
		return
	}

	// 登録時に呼び出し元が admin を自己申告できる。承認フローは未実装のため記録だけ残す。
	if user.Role == auth.RoleAdmin {
		if _, ok := auth.CurrentPrincipal(c); !ok {
			h.logger.Warn("admin role self-assigned at registration",
				zap.String("user_id", user.ID),
				zap.String("email", logger.MaskEmail(user.Email)),
			)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"data":    user.View(),
	})
}

// List は GET /user-info のハンドラーです。
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Unable to retrieve users")
		return
	}
	views := make([]View, 0, len(list))
	for i := range list {
		views = append(views, list[i].View())
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Users retrieved successfully",
		"data":    views,
	})
}

// Get は GET /user-info/:id のハンドラーです。
func (h *Handler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Unable to retrieve user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User data retrieved successfully",
		"data":    user.View(),
	})
}

// Update は PUT /user-info/:id のハンドラーです。
func (h *Handler) Update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "User update failed",
			"error":   "request body must be JSON",
		})
		return
	}

	user, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err, "User update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"data":    user.View(),
	})
}

// Delete は DELETE /user-info/:id のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "User deletion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}

func (h *Handler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, auth.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid role assigned to the user.",
		})
	case errors.Is(err, ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "Email already registered",
		})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "User not found",
		})
	default:
		h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Server error",
		})
	}
}
