package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	messageAuthenticationFailed = "Failed to authenticate token."
	messageForbidden            = "You do not have permission to perform this action."
	messageServerError          = "Server error"
)

// DecisionObserver は判定結果を記録します（メトリクス用）。
type DecisionObserver interface {
	ObserveDecision(outcome string)
}

// Middleware は保護ルートにパイプラインを適用します。
type Middleware struct {
	pipeline *Pipeline
	logger   *zap.Logger
	observer DecisionObserver
}

// NewMiddleware は Middleware を作成します。observer は nil でも構いません。
func NewMiddleware(pipeline *Pipeline, logger *zap.Logger, observer DecisionObserver) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{pipeline: pipeline, logger: logger, observer: observer}
}

// Require は action を要求するルート用のミドルウェアを返します。
// 対応表に存在しない操作を指定した場合はルート登録時に panic します。
func (m *Middleware) Require(action Permission) gin.HandlerFunc {
	if !m.pipeline.Gate().Table().Declared(action) {
		panic(fmt.Sprintf("auth: permission %q is not declared in the permission table", action))
	}

	return func(c *gin.Context) {
		decision := m.pipeline.Evaluate(c.GetHeader("Authorization"), action)
		m.observe(decision.Err)

		if !decision.Allowed() {
			m.logger.Debug("request rejected",
				zap.String("path", c.FullPath()),
				zap.String("action", string(action)),
				zap.String("reason", reason(decision.Err)),
			)
			abortWithDecision(c, decision)
			return
		}

		principal := *decision.Principal
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), &principal))
		c.Set(ContextPrincipalKey, principal)

		c.Next()

		m.logger.Debug("request dispatched",
			zap.String("path", c.FullPath()),
			zap.String("subject", principal.SubjectID),
			zap.String("state", StateDispatched.String()),
		)
	}
}

func (m *Middleware) observe(err error) {
	if m.observer != nil {
		m.observer.ObserveDecision(reason(err))
	}
}

// abortWithDecision はどの検証で失敗したかを呼び出し元に漏らさないよう、
// 認証エラーは一律のメッセージで返します。
func abortWithDecision(c *gin.Context, decision Decision) {
	switch {
	case IsAuthenticationError(decision.Err):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": messageAuthenticationFailed,
		})
	case errors.Is(decision.Err, ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": messageForbidden,
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": messageServerError,
		})
	}
}
