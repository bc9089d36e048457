package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/config"
	pgrepo "github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	authsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/auth"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/pipeline"
	reviewsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/review"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService   *authsvc.Service
	ReviewService *reviewsvc.Service
	Pipeline      *pipeline.Runner
	TrackRepo     *pgrepo.TrackRepo
	QueueRepo     *pgrepo.ReviewQueueRepo
	AppealRepo    *pgrepo.AppealRepo
	Notifications *pgrepo.NotificationRepo
	Logger        *zap.Logger
	Config        config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	cronHandler := handlers.NewCronHandler(deps.Pipeline, deps.Config.Cron.Secret, deps.Logger)
	reviewHandler := handlers.NewAdminReviewHandler(deps.ReviewService)
	appealHandler := handlers.NewAppealHandler(deps.ReviewService)
	moderationHandler := handlers.NewModerationHandler(deps.TrackRepo, deps.AppealRepo, deps.QueueRepo)
	notificationsHandler := handlers.NewNotificationsHandler(deps.Notifications)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	reviewerRoleMW := RequireRole("admin", "super_admin", "moderator")
	adminRoleMW := RequireRole("admin", "super_admin")

	r.Get("/healthz", healthHandler.Get)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cron/process-moderation", cronHandler.ProcessModeration)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		})

		r.With(authMW).Post("/appeals", appealHandler.Submit)
		r.With(authMW).Get("/moderation/status", moderationHandler.Status)
		r.With(authMW).Get("/notifications", notificationsHandler.List)
		r.With(authMW).Post("/notifications/read", notificationsHandler.MarkRead)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW)
			r.With(reviewerRoleMW).Post("/review", reviewHandler.Review)
			r.With(reviewerRoleMW).Get("/review-queue", reviewHandler.Queue)
			r.With(reviewerRoleMW).Get("/moderation/stats", moderationHandler.Stats)
			r.With(adminRoleMW).Get("/appeals", appealHandler.ListPending)
			r.With(adminRoleMW).Post("/appeals/decide", appealHandler.Decide)
		})
	})
}
