package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Skotchmaster/video_catalog/internal/config"
	"github.com/Skotchmaster/video_catalog/internal/db"
	"github.com/Skotchmaster/video_catalog/internal/events"
	"github.com/Skotchmaster/video_catalog/internal/gemini"
	"github.com/Skotchmaster/video_catalog/internal/httpserver"
	"github.com/Skotchmaster/video_catalog/internal/keypool"
	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/metadata"
	"github.com/Skotchmaster/video_catalog/internal/middleware/auth"
	"github.com/Skotchmaster/video_catalog/internal/middleware/ratelimit"
	"github.com/Skotchmaster/video_catalog/internal/notify"
	"github.com/Skotchmaster/video_catalog/internal/repo"
	"github.com/Skotchmaster/video_catalog/internal/search"
	"github.com/Skotchmaster/video_catalog/internal/service"
	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

func main() {
	cfg := config.MustLoad()

	log := logging.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("db_init_failed", "error", err)
	}

	var publisher events.Publisher
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalw("kafka_init_failed", "error", err)
		}
		publisher = producer
	} else {
		log.Infow("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	alerter := buildAlerter(log, cfg, publisher)

	var index search.Index
	if cfg.ESURL != "" {
		es, err := search.NewClient(initCtx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			log.Warnw("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			index = &search.ESIndex{ES: es, Index: cfg.ESIndex}
		}
	}

	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewClient(initCtx, cfg.RedisURL)
		if err != nil {
			log.Warnw("ratelimit_disabled", "reason", "redis unreachable", "error", err)
		} else {
			defer func() { _ = rdb.Close() }()
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow)
		}
	}

	var metadataHandler *httpserver.MetadataHTTP
	pool, err := keypool.New(cfg.GeminiAPIKeys, gemini.Factory{Temperature: 0.2}, keypool.Options{
		Model:         cfg.GeminiModel,
		FallbackModel: cfg.GeminiFallbackModel,
		Timeout:       cfg.GeminiTimeout,
		Alerter:       alerter,
	})
	if err != nil {
		log.Warnw("metadata_fetch_disabled", "error", err)
	} else {
		log.Infow("keypool_ready", "keys", pool.Size(), "model", cfg.GeminiModel)
		metadataHandler = &httpserver.MetadataHTTP{
			Fetcher: &metadata.Fetcher{Titles: metadata.NewNoEmbed(), Generator: pool},
		}
	}

	r := repo.New(gdb)
	issuer := tokens.NewIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	authSvc := &service.AuthService{Repo: r, Tokens: issuer, Events: publisher, OwnerUsername: cfg.OwnerUsername}
	usersSvc := &service.UserService{Repo: r, Events: publisher, OwnerUsername: cfg.OwnerUsername}

	if cfg.CronSecret == "" {
		log.Warnw("cron_endpoints_locked", "reason", "CRON_SECRET is empty")
	}

	e := httpserver.NewEcho(log, cfg.TrustProxy)

	httpserver.Register(e, &httpserver.Deps{
		DB:         gdb,
		Auth:       auth.New(cfg.JWTAccessSecret, cfg.OwnerUsername),
		Limiter:    limiter,
		CronSecret: cfg.CronSecret,

		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc, SecureCookies: cfg.SecureCookies},
		UsersHandler:    &httpserver.UsersHTTP{Svc: usersSvc},
		MoviesHandler:   &httpserver.MoviesHTTP{Svc: &service.MovieService{Repo: r, Index: index}},
		MetadataHandler: metadataHandler,
		CronHandler:     &httpserver.CronHTTP{Auth: authSvc, Users: usersSvc, Alerter: alerter},
	})

	go func() {
		log.Infow("server_started", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("echo_start_failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Infow("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorw("echo_shutdown_failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		log.Errorw("db_close_failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorw("kafka_close_failed", "error", err)
		}
	}

	log.Infow("shutdown_complete")
}

func buildAlerter(log *zap.SugaredLogger, cfg config.Config, publisher events.Publisher) notify.Alerter {
	var out notify.Multi
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warnw("telegram_alerts_disabled", "error", err)
		} else {
			out = append(out, tg)
		}
	}
	if publisher != nil {
		out = append(out, &notify.Kafka{Publisher: publisher, Source: "video_catalog"})
	}
	if len(out) == 0 {
		return notify.Nop{}
	}
	return out
}
