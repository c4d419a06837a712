package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/varlink/internal/config"
	"github.com/MrSnakeDoc/varlink/internal/feed"
	"github.com/MrSnakeDoc/varlink/internal/httpserver"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/redis"
	"github.com/MrSnakeDoc/varlink/internal/sources/seed"
	"github.com/MrSnakeDoc/varlink/internal/store"
	"github.com/MrSnakeDoc/varlink/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/varlink/internal/store/redis"
	"github.com/MrSnakeDoc/varlink/internal/utils"
	"github.com/MrSnakeDoc/varlink/internal/vault"
	"github.com/MrSnakeDoc/varlink/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       store.Store
	repo        *vault.Repository
	session     *vault.Session
	hub         *feed.Hub
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	a := &App{cfg: cfg, logger: loggerClient}

	// The vault is useless without its store - fail fast if unavailable
	s, err := a.openStore(context.Background())
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.Store, err)
		os.Exit(1)
	}
	a.store = s

	a.repo = vault.NewRepository(s, loggerClient, time.Now)
	a.session = vault.NewSession(a.repo, vault.NewReorderer(s, loggerClient), loggerClient)
	a.hub = feed.NewHub(a.session, loggerClient, feed.Options{
		WriteWait:      cfg.FeedWriteWait,
		PongWait:       cfg.FeedPongWait,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Build:              version.Current(),
		TimeNow:            time.Now,
		Session:            a.session,
		Feed:               a.hub,
		Store:              s,
		StoreKind:          cfg.Store,
		RequestTimeout:     cfg.RequestTimeout,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitBurst:     cfg.RateLimitBurst,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	a.server = httpserver.New(cfg.ListenPort, d)
	return a
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	if a.cfg.Store == config.StoreMemory {
		a.logger.Warn("using in-memory store, links are lost on restart")
		return memory.New(), nil
	}

	client, err := redis.Connect(ctx, redis.ConnectOptions{
		Addr:           a.cfg.RedisAddr,
		User:           a.cfg.RedisUser,
		Password:       a.cfg.RedisPassword,
		DB:             a.cfg.RedisDB,
		DialTimeout:    a.cfg.RedisDT,
		ReadTimeout:    a.cfg.RedisRT,
		WriteTimeout:   a.cfg.RedisWT,
		PoolSize:       a.cfg.RedisPoolSize,
		ConnectTimeout: a.cfg.RedisConnectTimeout,
		RetryInterval:  a.cfg.RedisRetryInterval,
		MaxWait:        a.cfg.RedisMaxWait,
		PingTimeout:    a.cfg.RedisPingTimeout,
		WarnThreshold:  a.cfg.RedisWarnThreshold,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.redisClient = client
	return redisstore.NewStore(client, a.logger), nil
}

// seed imports the configured seed file into an empty vault.
func (a *App) seed(ctx context.Context) error {
	if a.cfg.SeedFile == "" {
		return nil
	}
	_, err := seed.Import(ctx, a.cfg.SeedFile, a.repo, a.logger)
	return err
}

func (a *App) Run() error {
	build := version.Current()
	a.logger.Infof("🚀 Starting Varlink v%s on %s", build.Version, a.cfg.ListenPort)
	a.logger.Infof("Varlink %s", build)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the live feed before anything reads the session
	if err := a.session.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if err := a.seed(ctx); err != nil {
		a.logger.Warn("seed import failed", logger.String("file", a.cfg.SeedFile), logger.Error(err))
	}

	a.hub.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.hub.Close()
	utils.MustClose("session", a.session, a.logger)
	if a.redisClient != nil {
		utils.MustClose("redis", a.redisClient, a.logger)
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Varlink stopped cleanly")
	return nil
}
