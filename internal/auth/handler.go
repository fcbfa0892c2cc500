// Package auth はログイン、トークンの発行と検証、ロールによる認可を提供します。
package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/recipe-box/internal/logger"
)

// LoginRecorder はログイン成功を非同期に記録します。
type LoginRecorder interface {
	RecordLogin(ctx context.Context, userID string, at time.Time) error
}

// HandlerOptions はログインハンドラーの任意設定です。
type HandlerOptions struct {
	Limiter  *Limiter
	Recorder LoginRecorder
	Logger   *zap.Logger
}

// Handler は /login を処理します。
type Handler struct {
	verifier *Verifier
	issuer   *Issuer
	limiter  *Limiter
	recorder LoginRecorder
	logger   *zap.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(verifier *Verifier, issuer *Issuer, opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		verifier: verifier,
		issuer:   issuer,
		limiter:  opts.Limiter,
		recorder: opts.Recorder,
		logger:   log,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login は POST /login のハンドラーです。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Email and password are required.",
		})
		return
	}

	ip := c.ClientIP()
	if h.limiter != nil {
		if retryAfter := h.limiter.RetryAfter(ip); retryAfter > 0 {
			// Retry-After は秒数で返す
			c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many failed attempts. Try again later.",
			})
			return
		}
	}

	identity, err := h.verifier.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondVerifyError(c, ip, req.Email, err)
		return
	}

	grant, err := h.issuer.Issue(identity)
	if err != nil {
		h.logger.Error("issue token", zap.String("user_id", identity.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": messageServerError,
		})
		return
	}

	if h.limiter != nil {
		h.limiter.Reset(ip)
	}
	h.recordLogin(c.Request.Context(), identity.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   grant.Token,
		"user":    grant.Profile,
	})
}

func (h *Handler) respondVerifyError(c *gin.Context, ip, email string, err error) {
	if IsCredentialError(err) && h.limiter != nil {
		h.limiter.RecordFailure(ip)
	}

	switch {
	case errors.Is(err, ErrIdentityNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "User not found",
		})
	case errors.Is(err, ErrInvalidCredentials):
		h.logger.Info("login rejected", zap.String("email", logger.MaskEmail(email)))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid password",
		})
	default:
		h.logger.Error("verify credentials", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": messageServerError,
		})
	}
}

// recordLogin の失敗はログインの成否に影響させません。
func (h *Handler) recordLogin(ctx context.Context, userID string) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.RecordLogin(ctx, userID, time.Now().UTC()); err != nil {
		h.logger.Warn("record login", zap.String("user_id", userID), zap.Error(err))
	}
}
