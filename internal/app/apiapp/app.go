package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/config"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/infra/httpclient"
	s3infra "github.com/Asibe-Cheta/soundbridge-sub008/internal/infra/s3"
	pgrepo "github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	redrepo "github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/redis"
	authsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/auth"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/classifier"
	mediasvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/media"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/moderation"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/notifications"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/pipeline"
	reviewsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/review"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/spam"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/transcription"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	pipeline   *pipeline.Runner
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)

	trackRepo := pgrepo.NewTrackRepo(pool)
	queueRepo := pgrepo.NewReviewQueueRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	appealRepo := pgrepo.NewAppealRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, profileRepo, cfg.Auth.RefreshTTL)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}
	audioStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	if s3Client != nil {
		if err := audioStorage.EnsureBucket(ctx); err != nil {
			log.Warn("ensure s3 bucket failed, continuing in degraded mode", zap.Error(err))
		}
	}
	audioResolver := mediasvc.NewResolver(audioStorage, 0)

	transcriber := transcription.NewService(transcription.Config{
		WhisperBinary:     cfg.Transcription.WhisperBinary,
		FFmpegBinary:      cfg.Transcription.FFmpegBinary,
		Model:             cfg.Moderation.WhisperModel,
		SampleOnly:        cfg.Moderation.SampleOnly,
		MaxSampleDuration: cfg.Moderation.MaxSampleDuration,
	}, log)

	harmClassifier := classifier.NewClient(classifier.Config{
		APIKey:  cfg.Classifier.APIKey,
		BaseURL: cfg.Classifier.BaseURL,
		Timeout: cfg.Classifier.Timeout,
	}, log, httpclient.New(cfg.Classifier.Timeout))

	engine := moderation.NewEngine(harmClassifier, spam.NewDetector(), moderation.Strictness(cfg.Moderation.Strictness))

	dispatcher := notifications.NewDispatcher(notifications.Dependencies{
		Profiles: profileRepo,
		InApp:    notificationRepo,
		Email:    notifications.NewEmailSender(cfg.Notifications.EmailEndpoint, cfg.Notifications.EmailAPIKey, httpclient.New(10*time.Second)),
		Push:     notifications.NewPushSender(cfg.Notifications.PushEndpoint, httpclient.New(10*time.Second)),
	}, log)

	runner := pipeline.NewRunner(pipeline.Dependencies{
		Tracks:      trackRepo,
		ReviewQueue: queueRepo,
		Transcriber: transcriber,
		Resolver:    audioResolver,
		Moderator:   engine,
		Notifier:    dispatcher,
	}, pipeline.Config{
		BatchSize:            cfg.Moderation.BatchSize,
		ItemDelay:            cfg.Moderation.ItemDelay,
		TranscriptionEnabled: cfg.Moderation.TranscriptionEnabled,
	}, log)

	reviewService := reviewsvc.NewService(reviewsvc.Dependencies{
		Tracks:   trackRepo,
		Queue:    queueRepo,
		Appeals:  appealRepo,
		Notifier: dispatcher,
	}, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:   authService,
		ReviewService: reviewService,
		Pipeline:      runner,
		TrackRepo:     trackRepo,
		QueueRepo:     queueRepo,
		AppealRepo:    appealRepo,
		Notifications: notificationRepo,
		Logger:        log,
		Config:        cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		pipeline:   runner,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// Pipeline exposes the batch runner so the worker binary can share the
// exact wiring the HTTP cron endpoint uses.
func (a *App) Pipeline() *pipeline.Runner {
	return a.pipeline
}
