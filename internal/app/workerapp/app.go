package workerapp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/config"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/infra/httpclient"
	s3infra "github.com/Asibe-Cheta/soundbridge-sub008/internal/infra/s3"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/jobs/moderationjob"
	pgrepo "github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/classifier"
	mediasvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/media"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/moderation"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/notifications"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/pipeline"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/spam"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/transcription"
)

// App is the scheduled moderation worker. Unlike the API server it
// refuses to start without its dependencies: a worker that cannot
// reach postgres has nothing to do.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	cron     *cron.Cron
	job      *moderationjob.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for worker app: %w", err)
	}

	s3Client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init s3 for worker app: %w", err)
	}

	trackRepo := pgrepo.NewTrackRepo(pool)
	queueRepo := pgrepo.NewReviewQueueRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)

	audioStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	if err := audioStorage.EnsureBucket(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("prepare audio bucket: %w", err)
	}
	audioResolver := mediasvc.NewResolver(audioStorage, 0)

	transcriber := transcription.NewService(transcription.Config{
		WhisperBinary:     cfg.Transcription.WhisperBinary,
		FFmpegBinary:      cfg.Transcription.FFmpegBinary,
		Model:             cfg.Moderation.WhisperModel,
		SampleOnly:        cfg.Moderation.SampleOnly,
		MaxSampleDuration: cfg.Moderation.MaxSampleDuration,
	}, logger)

	harmClassifier := classifier.NewClient(classifier.Config{
		APIKey:  cfg.Classifier.APIKey,
		BaseURL: cfg.Classifier.BaseURL,
		Timeout: cfg.Classifier.Timeout,
	}, logger, httpclient.New(cfg.Classifier.Timeout))

	engine := moderation.NewEngine(harmClassifier, spam.NewDetector(), moderation.Strictness(cfg.Moderation.Strictness))

	dispatcher := notifications.NewDispatcher(notifications.Dependencies{
		Profiles: profileRepo,
		InApp:    notificationRepo,
		Email:    notifications.NewEmailSender(cfg.Notifications.EmailEndpoint, cfg.Notifications.EmailAPIKey, httpclient.New(10*time.Second)),
		Push:     notifications.NewPushSender(cfg.Notifications.PushEndpoint, httpclient.New(10*time.Second)),
	}, logger)

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
	}, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		cron:     cron.New(),
		job:      moderationjob.New(runner, cfg.Cron.RunTimeout, logger),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	schedule := a.cfg.Cron.Schedule
	if schedule == "" {
		schedule = "@every 10m"
	}

	_, err := a.cron.AddFunc(schedule, func() {
		if err := a.job.Run(ctx); err != nil {
			a.logger.Error("scheduled moderation run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("register moderation schedule %q: %w", schedule, err)
	}

	a.logger.Info("moderation worker started",
		zap.String("schedule", schedule),
		zap.Duration("run_timeout", a.cfg.Cron.RunTimeout),
	)
	a.cron.Start()

	<-ctx.Done()

	stopCtx := a.cron.Stop()
	<-stopCtx.Done()
	return nil
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
