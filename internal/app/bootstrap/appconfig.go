// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Record store backends.
const (
	RecordStoreMongo  = "mongo"
	RecordStoreMemory = "memory"
)

// Name cache backends.
const (
	NameCacheMemory = "memory"
	NameCacheRedis  = "redis"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). Framework-level settings such
// as ports, TLS, log level and CORS live in WAFFLE's CoreConfig.
type AppConfig struct {
	// Record store
	RecordStore      string // "mongo" or "memory"
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// Geocoding
	GeocodeGoogleKey   string
	GeocodeGoogleURL   string
	GeocodeFallbackURL string // "off" disables the fallback provider
	GeocodeUserAgent   string
	GeocodeTimeout     time.Duration
	GeocodeRetries     int
	GeocodeBackoff     time.Duration

	// Geocode repair worker
	GeocodeRepairEnabled  bool
	GeocodeRepairInterval time.Duration
	GeocodeRepairBatch    int64

	// Display-name cache
	NameCache     string // "memory" or "redis"
	NameCacheSize int
	NameCacheTTL  time.Duration
	RedisURL      string

	// Audit logging destinations: all, db, log or off
	AuditLogInquiry string
	AuditLogAuth    string

	// Anonymous intake throttling, per client IP
	IntakeRateLimit  int
	IntakeRateWindow time.Duration

	// Optional coordinator account created on startup when missing.
	SeedCoordinatorLogin    string
	SeedCoordinatorPassword string
	SeedCoordinatorName     string
}
