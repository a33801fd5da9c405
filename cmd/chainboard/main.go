package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/chainboard/chainboard/internal/api"
	"github.com/chainboard/chainboard/internal/assessment"
	"github.com/chainboard/chainboard/internal/config"
	"github.com/chainboard/chainboard/internal/exchanges"
	"github.com/chainboard/chainboard/internal/jobs"
	"github.com/chainboard/chainboard/internal/llm"
	"github.com/chainboard/chainboard/internal/marketdata"
	"github.com/chainboard/chainboard/internal/publisher"
	"github.com/chainboard/chainboard/internal/rate"
	"github.com/chainboard/chainboard/internal/repohost"
	internalsecrets "github.com/chainboard/chainboard/internal/secrets"
	"github.com/chainboard/chainboard/internal/store"
	"github.com/chainboard/chainboard/internal/tokens"
	"github.com/chainboard/chainboard/pkg/logger"
	"github.com/chainboard/chainboard/pkg/secrets"
	"github.com/chainboard/chainboard/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [chainboard]...")
	if cfg.DatabaseURL != "" {
		logg.Info("connection to DSN: ", utils.MaskDSN(cfg.DatabaseURL))
	}

	// --- Upstream credentials: env first, AWS Secrets Manager when enabled ---
	if cfg.UseAWSSecrets {
		awsProvider, err := secrets.NewAWSProvider(cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
		credCache := secrets.NewCache[internalsecrets.Credentials](cfg.SecretCacheTTL)
		resolver := internalsecrets.NewResolver(logg.Desugar(), cfg.Env, awsProvider, credCache)

		creds, err := resolver.Resolve(ctx)
		if err != nil {
			logg.Warnw("failed to resolve upstream credentials", "error", err)
		} else {
			if cfg.MarketDataAPIKey == "" {
				cfg.MarketDataAPIKey = creds.MarketDataAPIKey
			}
			if cfg.RepoHostToken == "" {
				cfg.RepoHostToken = creds.RepoHostToken
			}
			if cfg.LLMAPIKey == "" {
				cfg.LLMAPIKey = creds.LLMAPIKey
			}
		}
	}

	// --- Connect to NATS (optional) ---
	var nc *nats.Conn
	var pub *publisher.Publisher
	if cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err = publisher.New(logg.Desugar(), nc, cfg.ServiceName)
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
	} else {
		logg.Warn("NATS_URL not configured; event publishing disabled")
	}

	// --- Rate limiters, per upstream ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: 2,
		Burst:             4,
		Cooldown:          1 * time.Second,
	})
	rateMgr.Set("coingecko", rate.Config{RequestsPerSecond: cfg.MarketDataRPS, Burst: cfg.MarketDataRPS * 2, Cooldown: time.Second})
	rateMgr.Set("github", rate.Config{RequestsPerSecond: cfg.RepoHostRPS, Burst: cfg.RepoHostRPS * 2, Cooldown: time.Second})
	rateMgr.Set("llm", rate.Config{RequestsPerSecond: cfg.LLMRPS, Burst: cfg.LLMRPS, Cooldown: time.Second})

	// --- Store (Redis + optional Postgres) ---
	st, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, cfg.DatabaseURL, store.PGPoolConfig{
		MaxConns:          int32(cfg.PGMaxConns),
		MinConns:          int32(cfg.PGMinConns),
		MaxConnLifetime:   cfg.PGMaxConnLifetime,
		MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
		HealthCheckPeriod: cfg.PGHealthCheckPeriod,
	}, logg.Desugar())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}
	defer st.Close()

	// --- Upstream clients ---
	mdClient := marketdata.NewClient(logg.Desugar(), rateMgr, cfg.MarketDataBaseURL, cfg.MarketDataAPIKey)
	ghClient := repohost.NewClient(logg.Desugar(), rateMgr, cfg.RepoHostBaseURL, cfg.RepoHostToken)
	llmClient := llm.NewClient(logg.Desugar(), rateMgr, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	// --- Domain services ---
	exchangeSvc := exchanges.NewService(logg.Desugar(), mdClient, st, cfg.PageDelay, cfg.CatalogTTL, cfg.IDMapTTL)
	tokenSvc := tokens.NewService(logg.Desugar(), mdClient, exchangeSvc, st, cfg.OverviewTTL, cfg.ChartTTL)
	activitySvc := repohost.NewService(logg.Desugar(), ghClient, st, cfg.ActivityTTL)

	var events assessment.EventSink
	if pub != nil {
		events = pub
	}
	assessSvc := assessment.NewService(logg.Desugar(), tokenSvc, activitySvc, llmClient, st, events, cfg.LLMModel, cfg.AssessmentTTL)

	// --- Background catalog refresh ---
	var refreshEvents jobs.EventSink
	if pub != nil {
		refreshEvents = pub
	}
	refresher := jobs.NewCatalogRefresher(logg.Desugar(), exchangeSvc, refreshEvents, cfg.RefreshInterval)
	go refresher.Start(ctx)

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	handler := &api.Handler{
		Logger:      logg.Desugar(),
		Exchanges:   exchangeSvc,
		Tokens:      tokenSvc,
		Activity:    activitySvc,
		Assessments: assessSvc,
		Chains:      mdClient,
		Cache:       st,
		ChainsTTL:   cfg.CatalogTTL,
	}
	api.RegisterRoutes(app, nc, st, handler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[chainboard] running",
		"env", cfg.Env,
		"redis", cfg.RedisAddr,
		"nats", cfg.NATSURL,
		"catalog_refresh_interval", cfg.RefreshInterval)

	<-ctx.Done()
	logg.Info("shutting down [chainboard]...")

	refresher.Stop()
	if pub != nil {
		pub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}

	logg.Info("[chainboard] stopped")
}
