// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/system/auditlog"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for SwarmHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SWARMHUB_MONGO_URI, SWARMHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "record_store", Default: RecordStoreMongo, Desc: "Record store backend: 'mongo' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "swarm_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "", Desc: "Session signing key (required in prod; a random key is generated otherwise)"},
	{Name: "session_name", Default: "swarmhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Geocoding
	{Name: "geocode_google_key", Default: "", Desc: "Google Geocoding API key (blank disables the primary provider)"},
	{Name: "geocode_google_url", Default: "", Desc: "Override for the Google Geocoding endpoint"},
	{Name: "geocode_fallback_url", Default: "", Desc: "Nominatim-compatible fallback endpoint ('off' disables it)"},
	{Name: "geocode_user_agent", Default: "swarmhub-geocoder", Desc: "User agent sent to geocoding providers"},
	{Name: "geocode_timeout", Default: "5s", Desc: "Per-request geocoding timeout"},
	{Name: "geocode_retries", Default: 2, Desc: "Retries per geocoding provider"},
	{Name: "geocode_backoff", Default: "200ms", Desc: "Initial geocoding retry backoff"},

	{Name: "geocode_repair_enabled", Default: true, Desc: "Run the background geocode repair worker"},
	{Name: "geocode_repair_interval", Default: "5m", Desc: "Interval between geocode repair passes"},
	{Name: "geocode_repair_batch", Default: 50, Desc: "Inquiries examined per geocode repair pass"},

	// Display-name cache
	{Name: "name_cache", Default: NameCacheMemory, Desc: "Name cache backend: 'memory' or 'redis'"},
	{Name: "name_cache_size", Default: 10000, Desc: "In-memory name cache capacity"},
	{Name: "name_cache_ttl", Default: "10m", Desc: "Name cache entry lifetime"},
	{Name: "redis_url", Default: "redis://localhost:6379/0", Desc: "Redis URL for the shared name cache"},

	// Audit logging settings
	{Name: "audit_log_inquiry", Default: auditlog.All, Desc: "Inquiry event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_auth", Default: auditlog.All, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Anonymous intake throttling
	{Name: "intake_rate_limit", Default: 10, Desc: "Anonymous inquiries accepted per client IP per window (0 disables)"},
	{Name: "intake_rate_window", Default: "1h", Desc: "Window for intake_rate_limit"},

	// Coordinator bootstrap
	{Name: "seed_coordinator_login", Default: "", Desc: "Login id of a coordinator created on startup when missing"},
	{Name: "seed_coordinator_password", Default: "", Desc: "Password for the seeded coordinator"},
	{Name: "seed_coordinator_name", Default: "Coordinator", Desc: "Display name for the seeded coordinator"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, SWARMHUB_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SWARMHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		RecordStore:      appValues.String("record_store"),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		GeocodeGoogleKey:   appValues.String("geocode_google_key"),
		GeocodeGoogleURL:   appValues.String("geocode_google_url"),
		GeocodeFallbackURL: appValues.String("geocode_fallback_url"),
		GeocodeUserAgent:   appValues.String("geocode_user_agent"),
		GeocodeTimeout:     appValues.Duration("geocode_timeout", 5*time.Second),
		GeocodeRetries:     appValues.Int("geocode_retries"),
		GeocodeBackoff:     appValues.Duration("geocode_backoff", 200*time.Millisecond),

		GeocodeRepairEnabled:  appValues.Bool("geocode_repair_enabled"),
		GeocodeRepairInterval: appValues.Duration("geocode_repair_interval", 5*time.Minute),
		GeocodeRepairBatch:    int64(appValues.Int("geocode_repair_batch")),

		NameCache:     appValues.String("name_cache"),
		NameCacheSize: appValues.Int("name_cache_size"),
		NameCacheTTL:  appValues.Duration("name_cache_ttl", 10*time.Minute),
		RedisURL:      appValues.String("redis_url"),

		AuditLogInquiry: appValues.String("audit_log_inquiry"),
		AuditLogAuth:    appValues.String("audit_log_auth"),

		IntakeRateLimit:  appValues.Int("intake_rate_limit"),
		IntakeRateWindow: appValues.Duration("intake_rate_window", time.Hour),

		SeedCoordinatorLogin:    appValues.String("seed_coordinator_login"),
		SeedCoordinatorPassword: appValues.String("seed_coordinator_password"),
		SeedCoordinatorName:     appValues.String("seed_coordinator_name"),
	}

	// Timeout tiers are read before ConnectDB needs them.
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("tiers", n))
	}

	// Outside prod a missing key gets a random one, which signs everyone
	// out on restart.
	if appCfg.SessionKey == "" && coreCfg.Env != "prod" {
		appCfg.SessionKey = string(securecookie.GenerateRandomKey(32))
		logger.Warn("session_key not set; generated an ephemeral key",
			zap.String("env", coreCfg.Env))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	switch appCfg.RecordStore {
	case RecordStoreMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
		}
		if appCfg.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo_database is required"))
		}
	case RecordStoreMemory:
		if coreCfg.Env == "prod" {
			logger.Warn("record_store=memory in prod; inquiries are lost on restart")
		}
	default:
		errs = append(errs, fmt.Errorf("record_store must be %q or %q, got %q",
			RecordStoreMongo, RecordStoreMemory, appCfg.RecordStore))
	}

	if appCfg.SessionKey == "" {
		errs = append(errs, errors.New("session_key is required in prod"))
	}

	switch appCfg.NameCache {
	case NameCacheMemory:
		if appCfg.NameCacheSize <= 0 {
			errs = append(errs, errors.New("name_cache_size must be positive"))
		}
	case NameCacheRedis:
		if appCfg.RedisURL == "" {
			errs = append(errs, errors.New("name_cache=redis requires redis_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("name_cache must be %q or %q, got %q",
			NameCacheMemory, NameCacheRedis, appCfg.NameCache))
	}

	for _, s := range []struct{ key, val string }{
		{"audit_log_inquiry", appCfg.AuditLogInquiry},
		{"audit_log_auth", appCfg.AuditLogAuth},
	} {
		if !auditlog.ValidSetting(s.val) {
			errs = append(errs, fmt.Errorf("%s must be all, db, log or off, got %q", s.key, s.val))
		}
	}

	if appCfg.GeocodeRepairEnabled && (appCfg.GeocodeRepairInterval <= 0 || appCfg.GeocodeRepairBatch <= 0) {
		errs = append(errs, errors.New("geocode repair needs a positive interval and batch"))
	}
	if appCfg.IntakeRateLimit < 0 {
		errs = append(errs, errors.New("intake_rate_limit cannot be negative"))
	}
	if appCfg.IntakeRateLimit > 0 && appCfg.IntakeRateWindow <= 0 {
		errs = append(errs, errors.New("intake_rate_window must be positive"))
	}
	if (appCfg.SeedCoordinatorLogin == "") != (appCfg.SeedCoordinatorPassword == "") {
		errs = append(errs, errors.New("seed_coordinator_login and seed_coordinator_password must be set together"))
	}

	return errors.Join(errs...)
}
