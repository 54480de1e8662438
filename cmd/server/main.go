package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/clipwatch/clipwatch/internal/database"
	"github.com/clipwatch/clipwatch/internal/errors"
	"github.com/clipwatch/clipwatch/internal/leaderboard"
	"github.com/clipwatch/clipwatch/internal/middleware"
	"github.com/clipwatch/clipwatch/internal/monitoring"
	"github.com/clipwatch/clipwatch/internal/ratelimit"
	"github.com/clipwatch/clipwatch/internal/security"
	"github.com/clipwatch/clipwatch/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

// application bundles the services the handlers depend on
type application struct {
	db          *database.DB
	users       *database.UserService
	board       *leaderboard.Service
	limiter     *ratelimit.RateLimiter
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	compression *middleware.CompressionMiddleware
}

func newApplication(dataDir, jwtSecret, redisAddr, redisPassword string, redisDB int) (*application, error) {
	db, err := database.NewDB(dataDir)
	if err != nil {
		return nil, err
	}

	repo := database.NewRepository(db)
	metrics := monitoring.NewMetrics()

	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		// Degraded, not fatal: the limiter falls back to in-memory buckets.
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}

	return &application{
		db:          db,
		users:       database.NewUserService(repo, jwtSecret),
		board:       leaderboard.NewService(repo),
		limiter:     ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), metrics),
		metrics:     metrics,
		logger:      monitoring.NewLogger(),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
	}, nil
}

func (app *application) close() {
	app.limiter.Close()
	if err := app.db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

func (app *application) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.Middleware(app.metrics, app.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(security.HeadersMiddleware())

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.Use(app.limiter.IPRateLimitMiddleware())
	r.Use(app.compression.Handler())

	api := r.Group("/api")
	{
		api.POST("/submit", app.handleSubmit)
		api.GET("/health", app.handleHealth)
		api.GET("/leaderboard", app.handleLeaderboard)
		api.GET("/user/:userId", app.handleGetUser)
		api.POST("/user/:userId/username", app.handleSetUsername)
		api.GET("/stats", app.handleGlobalStats)
	}

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, app.metrics.GetStats())
	})

	r.GET("/leaderboard/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, app.board.GetCacheStats())
	})

	r.GET("/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, app.limiter.GetStats())
	})

	r.GET("/pools/compression", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "compression",
			"stats": app.compression.GetStats(),
		})
	})

	r.GET("/pools/database", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": app.db.GetPoolStats(),
		})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// handleSubmit records a user's daily paste counters.
// The first submission for a user needs no token and returns a device
// token; every later write to that user must carry it.
func (app *application) handleSubmit(c *gin.Context) {
	var req types.SubmitRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid submission payload")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		appErr := errors.NewValidationError("date must be formatted YYYY-MM-DD")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if req.TotalPastes < 0 || req.TotalLinesPasted < 0 {
		appErr := errors.NewValidationError("counters must not be negative")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	result, err := app.limiter.AllowUser(c.Request.Context(), req.UserID)
	if err == nil {
		ratelimit.SetHeaders(c, result)
		if !result.Allowed {
			app.metrics.IncrementRateLimitBlock()
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			appErr := errors.NewRateLimitError(result.RetryAfter.String())
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
	}

	isNew, err := app.authorizeSubmit(c, req.UserID)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if isNew < 0 {
		appErr := errors.NewAuthError("device token required for this user")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	rank, err := app.board.Submit(req.UserID, req.Date, req.OS, req.EditorVersion, req.TotalPastes, req.TotalLinesPasted)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	app.metrics.IncrementSubmit()
	app.logger.SubmitLogger(req.UserID, req.TotalPastes, req.TotalLinesPasted, req.Date)

	response := types.SubmitResponse{UserID: req.UserID, Rank: rank}

	if isNew > 0 {
		token, err := app.users.IssueDeviceToken(req.UserID)
		if err != nil {
			slog.Error("Failed to issue device token", "user_id", req.UserID, "error", err)
		} else {
			response.DeviceToken = token
		}
	}

	c.JSON(http.StatusOK, response)
}

// authorizeSubmit returns 1 for a first-time user, 0 for an authorized
// existing user, and -1 when the token is missing or wrong.
func (app *application) authorizeSubmit(c *gin.Context, userID string) (int, error) {
	token := bearerToken(c)

	exists, err := app.users.Exists(userID)
	if err != nil {
		return -1, err
	}

	ok, err := app.users.Authorize(userID, token)
	if err != nil {
		return -1, err
	}
	if !ok {
		return -1, nil
	}

	if exists {
		return 0, nil
	}
	return 1, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	return ""
}

func (app *application) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}

func (app *application) handleLeaderboard(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	response, err := app.board.GetLeaderboard(limit)
	if err != nil {
		app.logger.APIErrorLogger(err, "GET", "/api/leaderboard", c.ClientIP(), http.StatusInternalServerError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve leaderboard"})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (app *application) handleGetUser(c *gin.Context) {
	userID := c.Param("userId")

	exists, err := app.users.Exists(userID)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if !exists {
		appErr := errors.NewNotFoundError("user not found")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	view, err := app.board.GetUser(userID)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (app *application) handleSetUsername(c *gin.Context) {
	userID := c.Param("userId")

	var req types.UsernameRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("username is required")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > 32 {
		appErr := errors.NewValidationError("username must be 1 to 32 characters")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	ok, err := app.users.Authorize(userID, bearerToken(c))
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if !ok {
		appErr := errors.NewAuthError("device token required to change username")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if err := app.board.SetUsername(userID, req.Username); err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "username": req.Username})
}

func (app *application) handleGlobalStats(c *gin.Context) {
	stats, err := app.board.GetGlobalStats()
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	jwtSecret := getEnvOrDefault("JWT_SECRET", "change-me-in-production")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			redisDB = n
		}
	}

	app, err := newApplication(dataDir, jwtSecret, redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer app.close()

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go func() {
		app.board.WarmCache()
		app.board.StartAutoRefresh(refreshCtx, 10*time.Minute)
	}()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: app.setupRouter(),
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
