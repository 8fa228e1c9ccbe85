package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citysnap-be/config"
	"citysnap-be/controllers"
	"citysnap-be/logger"
	"citysnap-be/middlewares"
	"citysnap-be/models"
	"citysnap-be/routes"
	"citysnap-be/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	logData, err := logger.New().FromPath(cfg.LogFile).Level(cfg.LogLevel).Make()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to open log file")
	}
	defer logData.Close()
	log := logData.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := config.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	var issueLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RedisAddress != "" {
		rdb, err := config.ConnectRedis(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		issueLimit = middlewares.IssueRateLimiter(rdb, cfg.IssueLimitQueue, cfg.IssueDailyLimit, log)
	} else {
		log.Warn().Msg("REDIS_ADDRESS not set, issue creation is not throttled")
	}

	categories := services.NewCategoryService(st, log)
	issues := services.NewIssueService(st, log)
	comments := services.NewCommentService(st, log)
	geo := services.NewGeoQuery(st, log)
	users := services.NewUserService(st, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(log), middlewares.CORS(cfg.CORSOrigins))

	routes.Setup(r, routes.Controllers{
		Issues:     controllers.NewIssueController(issues, geo, log),
		Comments:   controllers.NewCommentController(comments, log),
		Categories: controllers.NewCategoryController(categories, log),
		Users:      controllers.NewUserController(users, log),
	}, routes.Guards{
		Auth:         middlewares.AuthMiddleware(cfg.JWTSecret, log),
		OptionalAuth: middlewares.OptionalAuth(cfg.JWTSecret, log),
		AdminOnly:    middlewares.RequireRole(models.Admin),
		IssueLimit:   issueLimit,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}
