package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/glagena/gladownloader/internal/bot"
	"github.com/glagena/gladownloader/internal/config"
	"github.com/glagena/gladownloader/internal/httpadmin"
	"github.com/glagena/gladownloader/internal/resolver"
	"github.com/glagena/gladownloader/pkg/admission"
	admzerolog "github.com/glagena/gladownloader/pkg/admission/logger/zerolog"
	prommetrics "github.com/glagena/gladownloader/pkg/admission/metrics/prometheus"
	filestore "github.com/glagena/gladownloader/storage/file"
	memstore "github.com/glagena/gladownloader/storage/memory"
	pgstore "github.com/glagena/gladownloader/storage/postgres"
	redisstore "github.com/glagena/gladownloader/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("configuration error")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	defer storage.Close()

	res, err := resolver.New(resolver.Config{
		OutputDir:   cfg.DownloadDir,
		CookiesFile: cfg.CookiesFile,
		Logger:      admzerolog.NewLogger(log.With().Str("component", "resolver").Logger()),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("resolver init failed")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram authorization failed")
	}
	log.Info().Str("username", api.Self.UserName).Msg("authorized")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	orch, err := admission.NewOrchestrator(
		storage,
		bot.NewOracle(api),
		admission.NewMemoryTickets(),
		res,
		bot.NewDeliverer(api),
		admission.Config{
			BaseVideoLimit:  cfg.FreeVideoLimit,
			BaseAudioLimit:  cfg.FreeAudioLimit,
			BonusPerChannel: cfg.BonusLimit,
			Channels:        cfg.Channels,
			MaxConcurrent:   cfg.MaxConcurrent,
			Logger:          admzerolog.NewLogger(log.With().Str("component", "admission").Logger()),
			Metrics:         prommetrics.NewMetrics(reg, "gladownloader"),
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	if cfg.HTTPAddr != "" {
		admin := httpadmin.New(cfg.HTTPAddr, storage, reg, log.With().Str("component", "admin").Logger())
		go func() {
			if err := admin.Start(ctx); err != nil {
				log.Error().Err(err).Msg("admin server failed")
			}
		}()
	}

	b := bot.New(api, cfg, orch, storage, log.With().Str("component", "bot").Logger())
	if err := b.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("shutdown complete")
}

func newStorage(ctx context.Context, cfg config.Config, log zerolog.Logger) (admission.Storage, error) {
	switch cfg.StatsBackend {
	case "memory":
		return memstore.New(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return redisstore.New(client, redisstore.DefaultConfig())
	case "postgres":
		pgCfg := pgstore.DefaultConfig()
		pgCfg.ConnectionString = cfg.PostgresDSN
		return pgstore.New(ctx, pgCfg)
	default:
		return filestore.New(cfg.StatsFile, admzerolog.NewLogger(log.With().Str("component", "storage").Logger()))
	}
}
