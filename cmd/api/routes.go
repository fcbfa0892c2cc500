package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/config"
	"github.com/yourusername/recipe-box/internal/logger"
	"github.com/yourusername/recipe-box/internal/metrics"
	"github.com/yourusername/recipe-box/internal/recipes"
	"github.com/yourusername/recipe-box/internal/todos"
	"github.com/yourusername/recipe-box/internal/users"
)

type routerDeps struct {
	cfg       *config.Config
	logger    *zap.Logger
	rdb       *redis.Client
	userStore *users.Store
	metrics   *metrics.Metrics
	// recorder は nil の場合ログイン記録を行いません。
	recorder auth.LoginRecorder
}

// newRouter はミドルウェアとルーティングを組み立てます。
func newRouter(deps routerDeps) (*gin.Engine, error) {
	cfg := deps.cfg

	tokenCfg := auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.TokenIssuer,
		TTL:    cfg.TokenTTL,
	}
	issuer, err := auth.NewIssuer(tokenCfg)
	if err != nil {
		return nil, err
	}
	validator, err := auth.NewValidator(tokenCfg)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	pipeline := auth.NewPipeline(validator, auth.NewGate(auth.DefaultPermissionTable()))

	var observer auth.DecisionObserver
	if deps.metrics != nil {
		observer = deps.metrics
	}
	authMiddleware := auth.NewMiddleware(pipeline, deps.logger.Named("auth"), observer)
	loginHandler := auth.NewHandler(auth.NewVerifier(deps.userStore, hasher), issuer, auth.HandlerOptions{
		Limiter:  auth.NewLimiter(cfg.LoginMaxAttempts, cfg.LoginLockPeriod),
		Recorder: deps.recorder,
		Logger:   deps.logger.Named("login"),
	})

	userHandler := users.NewHandler(users.NewService(deps.userStore, hasher), deps.logger.Named("users"))
	recipeHandler := recipes.NewHandler(deps.rdb, deps.logger.Named("recipes"))
	todoHandler := todos.NewHandler(deps.rdb, deps.logger.Named("todos"))

	router := gin.New()
	// 未設定なら X-Forwarded-For を無視し、ClientIP は接続元アドレスになる
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	router.Use(gin.Recovery(), logger.Middleware(deps.logger))
	if deps.metrics != nil {
		router.Use(deps.metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.metrics.Handler()))
	}
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		api.POST("/login", loginHandler.Login)

		// 登録は認証なしで受け付ける
		api.POST("/user-info", userHandler.Create)
		api.GET("/user-info", authMiddleware.Require(auth.PermViewUsers), userHandler.List)
		api.GET("/user-info/:id", authMiddleware.Require(auth.PermViewUsers), userHandler.Get)
		api.PUT("/user-info/:id", authMiddleware.Require(auth.PermEditUsers), userHandler.Update)
		api.DELETE("/user-info/:id", authMiddleware.Require(auth.PermDeleteUsers), userHandler.Delete)

		api.POST("/recipe", authMiddleware.Require(auth.PermCreateRecipes), recipeHandler.Create)
		api.GET("/recipe", recipeHandler.List)
		api.PUT("/recipe/:id", authMiddleware.Require(auth.PermEditRecipes), recipeHandler.Update)
		api.DELETE("/recipe/:id", authMiddleware.Require(auth.PermDeleteRecipes), recipeHandler.Delete)

		api.POST("/todo", todoHandler.Create)
		api.GET("/todo", todoHandler.List)
	}

	return router, nil
}

func corsConfig(allowed string) cors.Config {
	c := cors.DefaultConfig()
	origins := make([]string, 0)
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", logger.RequestIDHeader}
	c.ExposeHeaders = []string{logger.RequestIDHeader, "Retry-After"}
	return c
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "recipe-box-api",
	})
}
