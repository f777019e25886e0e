// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/swarmhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/swarmhub/internal/app/features/health"
	inquiriesfeature "github.com/dalemusser/swarmhub/internal/app/features/inquiries"
	loginfeature "github.com/dalemusser/swarmhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/swarmhub/internal/app/features/logout"
	profilefeature "github.com/dalemusser/swarmhub/internal/app/features/profile"
	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. SwarmHub applies session middleware and
// mounts the inquiry, account and operational routes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Loads SessionUser into context if logged in; available via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", deps.Metrics.Handler())

	// Inquiries. Anonymous intake is throttled per client IP.
	var intakeLimit func(http.Handler) http.Handler
	if deps.IntakeLimiter != nil {
		intakeLimit = deps.IntakeLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
			errorsfeature.Write(w, http.StatusTooManyRequests, "rate_limited", "too many inquiries from this address; try again later")
		})
	}
	// A nil *audit.Store must not reach either interface.
	var (
		history  inquiriesfeature.History
		activity profilefeature.Activity
	)
	if deps.AuditStore != nil {
		history = deps.AuditStore
		activity = deps.AuditStore
	}
	inquiriesHandler := inquiriesfeature.NewHandler(deps.Lifecycle, deps.Intake, deps.Names, history, logger)
	r.Mount("/inquiries", inquiriesfeature.Routes(inquiriesHandler, intakeLimit))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.Users, sessionMgr, deps.LoginLimiter, deps.AuditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.AuditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	profileHandler := profilefeature.NewHandler(deps.Users, deps.Names, activity, sessionMgr, deps.AuditLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	return r, nil
}
