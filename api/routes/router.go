package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iscore-hr/helpdesk-backend/api/controllers"
	"github.com/iscore-hr/helpdesk-backend/api/middleware"
	"github.com/iscore-hr/helpdesk-backend/internal/analytics"
	"github.com/iscore-hr/helpdesk-backend/internal/authn"
	"github.com/iscore-hr/helpdesk-backend/internal/chatbot"
	"github.com/iscore-hr/helpdesk-backend/internal/mailer"
	"github.com/iscore-hr/helpdesk-backend/internal/surveys"
	"github.com/iscore-hr/helpdesk-backend/internal/users"
	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/db"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
	"github.com/iscore-hr/helpdesk-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	AuthService      authn.Service
	UsersService     users.Service
	SurveysService   surveys.Service
	SurveysRepo      surveys.Repository
	AnalyticsService analytics.Service
	MailerService    mailer.Service
	Queue            *mailer.Queue
	Chatbot          *chatbot.Client
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.Chatbot))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthProfile(deps.AuthService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/surveys", func(r chi.Router) {
			r.Get("/templates", controllers.SurveyTemplates(deps.SurveysService, logg))
			r.Get("/published", controllers.SurveyListPublished(deps.SurveysService, deps.UsersService, logg))
			r.Get("/{surveyId}", controllers.SurveyGet(deps.SurveysService, logg))
			r.Post("/{surveyId}/responses", controllers.SurveyRespond(deps.SurveysService, deps.UsersService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleHR.String(), logg))
				r.Post("/", controllers.SurveyCreate(deps.SurveysService, logg))
				r.Get("/", controllers.SurveyListAll(deps.SurveysService, logg))
				r.Put("/{surveyId}/publish", controllers.SurveyPublish(deps.SurveysService, logg))
				r.Put("/{surveyId}/unpublish", controllers.SurveyUnpublish(deps.SurveysService, logg))
				r.Put("/{surveyId}/close", controllers.SurveyClose(deps.SurveysService, logg))
				r.Delete("/{surveyId}", controllers.SurveyDelete(deps.SurveysService, logg))
				r.Get("/{surveyId}/results", controllers.SurveyResults(deps.AnalyticsService, logg))
				r.Get("/{surveyId}/responses/{responseId}", controllers.SurveyResponseDetail(deps.SurveysService, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleHR.String(), logg))
			r.Post("/", controllers.UserCreate(deps.UsersService, logg))
			r.Get("/", controllers.UserList(deps.UsersService, logg))
			r.Get("/departments", controllers.DepartmentList(deps.UsersService, logg))
			r.Get("/{userId}", controllers.UserGet(deps.UsersService, logg))
			r.Put("/{userId}", controllers.UserUpdate(deps.UsersService, logg))
			r.Delete("/{userId}", controllers.UserDeactivate(deps.UsersService, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleHR.String(), logg))
			r.Get("/dashboard", controllers.Dashboard(deps.AnalyticsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleHR.String(), logg))
			r.With(middleware.RateLimit("notifications", cfg.RateLimit, deps.Redis, logg)).
				Post("/surveys/{surveyId}/invitations", controllers.SurveyInvitations(deps.SurveysRepo, deps.MailerService, logg))
			r.Get("/email-logs", controllers.EmailLogs(deps.MailerService, logg))
			r.Get("/email-stats", controllers.EmailStats(deps.MailerService, logg))
			r.Post("/resend", controllers.EmailResend(deps.MailerService, logg))

			// A nil *mailer.Queue must not reach the handler as a non-nil
			// interface, so the guard lives here rather than in the controller.
			queueStatus := controllers.QueueStatus(nil, logg)
			if deps.Queue != nil {
				queueStatus = controllers.QueueStatus(deps.Queue, logg)
			}
			r.Get("/queue/status", queueStatus)
		})

		r.Route("/ai-chatbot", func(r chi.Router) {
			r.With(middleware.RateLimit("chatbot", cfg.RateLimit, deps.Redis, logg)).
				Post("/ask", controllers.ChatbotAsk(deps.Chatbot, logg))
			r.Get("/common-questions", controllers.ChatbotCommonQuestions(deps.Chatbot, logg))
			r.Post("/feedback", controllers.ChatbotFeedback(deps.Chatbot, logg))
			r.Get("/health", controllers.ChatbotHealth(deps.Chatbot, logg))
		})
	})

	return r
}
