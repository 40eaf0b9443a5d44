package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"worker-recording/conference"
	"worker-recording/config"
	"worker-recording/constant"
	eventHandler "worker-recording/handler"
	"worker-recording/pkg/rabbitmq"
	"worker-recording/repository"
	"worker-recording/service"
	"worker-recording/storage"
	"worker-recording/transcribe"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)

	tracker := conference.NewTracker(cfg.Session.TTL, cfg.Session.SweepInterval)
	defer tracker.Close()

	// Channel closes with the connection on shutdown.
	publisher, err := rabbitmq.NewEnrichmentPublisher(conn, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewEnrichmentPublisher")
	}

	mediaStore := storage.NewMinioStore(cfg.Storage, cfg.MinIOBucket)
	fetcher := service.NewHTTPMediaFetcher(cfg.Media.FetchTimeout, cfg.Media.MaxRedirects, cfg.Media.AccountSid, cfg.Media.AuthToken)
	transcriber := transcribe.NewClient(cfg.Transcriber.URL, cfg.Transcriber.APIKey, cfg.Transcriber.Timeout)

	ingestService := service.NewIngestService(repo, tracker, fetcher, mediaStore, publisher, nil)
	enrichmentService := service.NewEnrichmentService(repo, mediaStore, transcriber)

	serviceDeps := eventHandler.ServiceDependencies{
		Tracker:           tracker,
		IngestService:     ingestService,
		EnrichmentService: enrichmentService,
	}

	// Conference lifecycle and recording completion events can also arrive
	// through the broker instead of direct webhooks; both feed the same core.
	conferenceConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.ConferenceEventsSpec, cfg.Server.Workers, eventHandler.ConferenceEventHandler)
	go func() {
		err := conferenceConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Conference events consumer error")
		}
	}()

	recordingConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.RecordingReadySpec, cfg.Server.Workers, eventHandler.RecordingReadyHandler)
	go func() {
		err := recordingConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Recording ready consumer error")
		}
	}()

	enrichmentConsumer := rabbitmq.NewEnrichmentConsumer(conn, cfg.Queue, cfg.Server.Workers, eventHandler.EnrichmentHandler)
	go func() {
		err := enrichmentConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Enrichment consumer error")
		}
	}()

	r := gin.Default()
	addHealth(r)
	addWebhooks(ctx, r, serviceDeps)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
