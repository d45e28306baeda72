package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"game_theory_arena/internal/config"
	"game_theory_arena/internal/db"
	"game_theory_arena/internal/game"
	arenahttp "game_theory_arena/internal/http"
	"game_theory_arena/internal/http/handlers"
	"game_theory_arena/internal/http/middleware"
	"game_theory_arena/internal/jobs"
	"game_theory_arena/internal/logger"
	"game_theory_arena/internal/metrics"
	"game_theory_arena/internal/repository"
	"game_theory_arena/internal/service"
	"game_theory_arena/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		return err
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		// redis is optional; an unreachable one only degrades rate limiting and publishing
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
	}

	users := repository.NewUserRepository(pool)
	matches := repository.NewMatchRepository(pool)
	friendRepo := repository.NewFriendRepository(pool)

	auth := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL)
	friends := service.NewFriendService(friendRepo, users)
	leaderboard := service.NewLeaderboardService(matches, friends, users)

	sink := service.MultiSink{service.NewStoreSink(matches)}
	if rdb != nil {
		sink = append(sink, service.NewRedisPublisher(rdb))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	hub := ws.NewHub(game.NewFactory(cfg.PDRounds), sink, m, log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	scheduler := jobs.NewScheduler(hub, cfg.StatsInterval, log)
	if err := scheduler.Start(); err != nil {
		return err
	}

	router := arenahttp.NewRouter(arenahttp.Deps{
		Handler: &handlers.Handler{
			Auth:        auth,
			Users:       users,
			Stats:       matches,
			Friends:     friends,
			Leaderboard: leaderboard,
		},
		Auth:    auth,
		WS:      ws.NewWSHandler(hub, auth, cfg.AllowedOrigin).HandleWS(),
		Metrics: m.Handler(),
		Health: func(ctx context.Context) error {
			return db.Health(ctx, pool, 2*time.Second)
		},
		RateLimiter:   middleware.NewRateLimiter(rdb, cfg.RateLimitPerMinute, log),
		Log:           log,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("port", cfg.AppPort), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
	stopHub()

	log.Info("server exited")
	return nil
}
