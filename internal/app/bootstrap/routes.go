// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	auditlogfeature "github.com/dalemusser/studytrack/internal/app/features/auditlog"
	authapifeature "github.com/dalemusser/studytrack/internal/app/features/authapi"
	communitiesfeature "github.com/dalemusser/studytrack/internal/app/features/communities"
	healthfeature "github.com/dalemusser/studytrack/internal/app/features/health"
	postsfeature "github.com/dalemusser/studytrack/internal/app/features/posts"
	tasksfeature "github.com/dalemusser/studytrack/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/studytrack/internal/app/features/users"
	"github.com/dalemusser/studytrack/internal/app/membership"
	"github.com/dalemusser/studytrack/internal/app/store/audit"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/auditlog"
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/dalemusser/studytrack/internal/app/system/mailer"
	"github.com/dalemusser/studytrack/internal/app/system/metrics"
	"github.com/dalemusser/studytrack/internal/app/system/middleware"
	"github.com/dalemusser/studytrack/internal/app/system/ratelimit"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Middleware runs in this order: request id, panic recovery, access log,
// metrics, CORS, per-IP throttling, then bearer-token parsing. Feature
// routers decide for themselves which routes require a signed-in caller.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.StudyTrackMongoDatabase

	m := metrics.New()
	tokens := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTTTL)

	// Redis-backed revocation and login counters when available, so they
	// hold across instances; otherwise per-process.
	var (
		revoker      auth.Revoker = auth.NopRevoker{}
		ipCounter    ratelimit.Counter
		emailCounter ratelimit.Counter
	)
	if deps.Redis != nil {
		revoker = auth.NewRedisRevoker(deps.Redis)
		ipCounter = ratelimit.NewRedisCounter(deps.Redis, "login", appCfg.LoginMaxAttempts, appCfg.LoginWindow)
		emailCounter = ipCounter
	} else {
		ipCounter = ratelimit.New(appCfg.LoginMaxAttempts, appCfg.LoginWindow)
		emailCounter = ratelimit.New(appCfg.LoginMaxAttempts, appCfg.LoginWindow)
	}
	loginLimiter := ratelimit.NewLoginLimiter(ipCounter, emailCounter, logger)

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Uniform(appCfg.AuditLog))
	mail := mailer.New(mailer.Config{
		Host: appCfg.MailSMTPHost,
		Port: appCfg.MailSMTPPort,
		User: appCfg.MailSMTPUser,
		Pass: appCfg.MailSMTPPass,
		From: appCfg.MailFrom,
	}, logger)

	svc := membership.New(db, logger, membership.WithMetrics(m))
	perIP := ratelimit.NewPerIP(backgroundContext(), float64(appCfg.RateLimitRPS), appCfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Logger(logger))
	r.Use(m.Middleware)
	r.Use(middleware.CORS(appCfg.CORSAllowedOrigins))
	r.Use(perIP.Middleware)
	r.Use(auth.NewMiddleware(tokens, revoker, logger).Authenticate)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond.Error(w, req, logger, apperr.NotFound("route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.Envelope{
			Success:   false,
			Message:   "method not allowed",
			Error:     "METHOD_NOT_ALLOWED",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Operational endpoints
	healthHandler := healthfeature.NewHandler(deps.StudyTrackMongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	// Authentication
	authHandler := authapifeature.NewHandler(db, tokens, revoker, loginLimiter, mail, auditLogger,
		appCfg.BaseURL, appCfg.ResetTokenTTL, logger)
	r.Mount("/api/auth", authapifeature.Routes(authHandler))

	// Profiles
	usersHandler := usersfeature.NewHandler(db, svc, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	// Communities and their posts
	communitiesHandler := communitiesfeature.NewHandler(svc, auditLogger, logger)
	r.Mount("/api/communities", communitiesfeature.Routes(communitiesHandler))

	postsHandler := postsfeature.NewHandler(svc, logger)
	r.Mount("/api/posts", postsfeature.Routes(postsHandler))

	// Audit trail, read-only
	auditHandler := auditlogfeature.NewHandler(db, svc, logger)
	r.Mount("/api/audit", auditlogfeature.Routes(auditHandler))

	// Personal tasks
	tasksHandler := tasksfeature.NewHandler(db, logger)
	r.Mount("/api/tasks", tasksfeature.Routes(tasksHandler))

	return r, nil
}
