// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"math"

	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	inquirystore "github.com/dalemusser/swarmhub/internal/app/store/inquiries"
	linkstore "github.com/dalemusser/swarmhub/internal/app/store/links"
	metricsstore "github.com/dalemusser/swarmhub/internal/app/store/metrics"
	userstore "github.com/dalemusser/swarmhub/internal/app/store/users"
	"github.com/dalemusser/swarmhub/internal/app/system/auditlog"
	"github.com/dalemusser/swarmhub/internal/app/system/geocode"
	"github.com/dalemusser/swarmhub/internal/app/system/indexes"
	"github.com/dalemusser/swarmhub/internal/app/system/intake"
	"github.com/dalemusser/swarmhub/internal/app/system/metrics"
	"github.com/dalemusser/swarmhub/internal/app/system/namecache"
	"github.com/dalemusser/swarmhub/internal/app/system/ratelimit"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"github.com/dalemusser/swarmhub/internal/app/system/validators"
	"github.com/dalemusser/swarmhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the record store selected by record_store and builds the
// services that sit on top of it.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	switch appCfg.RecordStore {
	case RecordStoreMemory:
		logger.Warn("using in-memory record store; data does not survive a restart")
		deps.Users = userstore.NewMemStore()
		deps.Inquiries = inquirystore.NewMemStore()
		deps.Links = linkstore.NewMemStore()
	default:
		client, err := connectMongo(ctx, appCfg, logger)
		if err != nil {
			return DBDeps{}, err
		}
		db := client.Database(appCfg.MongoDatabase)
		deps.MongoClient = client
		deps.MongoDatabase = db
		deps.Users = userstore.New(db)
		deps.Inquiries = inquirystore.New(db)
		deps.Links = linkstore.New(db, logger)
		deps.AuditStore = audit.New(db)
	}

	if err := wireServices(ctx, appCfg, &deps, logger); err != nil {
		if deps.MongoClient != nil {
			_ = deps.MongoClient.Disconnect(context.Background())
		}
		return DBDeps{}, err
	}
	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	cctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pctx, pcancel := context.WithTimeout(ctx, timeouts.Ping())
	defer pcancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))
	return client, nil
}

// wireServices builds everything that depends only on the stores.
func wireServices(ctx context.Context, appCfg AppConfig, deps *DBDeps, logger *zap.Logger) error {
	iv, err := intake.New()
	if err != nil {
		return fmt.Errorf("intake schema: %w", err)
	}
	deps.Intake = iv

	// A nil *audit.Store must not reach the interface.
	var events auditlog.EventStore
	if deps.AuditStore != nil {
		events = deps.AuditStore
	}
	deps.AuditLog = auditlog.New(events, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Inquiry: appCfg.AuditLogInquiry,
	})

	deps.Metrics = metrics.New(inquiryCounts(*deps), timeouts.Short())

	deps.Names = namecache.New(nameBackend(ctx, appCfg, deps, logger), deps.Users, logger)

	deps.Lifecycle = lifecycle.New(deps.Inquiries, deps.Users, lifecycle.Options{
		Links:    deps.Links,
		Geocoder: geocoderChain(appCfg, logger),
		Sink:     lifecycle.MultiSink{deps.Metrics, deps.AuditLog},
		Logger:   logger,
	})

	if appCfg.IntakeRateLimit > 0 {
		deps.IntakeLimiter = ratelimit.New(appCfg.IntakeRateLimit, appCfg.IntakeRateWindow)
	}
	deps.LoginLimiter = ratelimit.NewLoginLimiter()

	if appCfg.GeocodeRepairEnabled {
		deps.GeocodeRepair = workers.NewGeocodeRepair(deps.Lifecycle, logger,
			appCfg.GeocodeRepairInterval, appCfg.GeocodeRepairBatch)
	}
	return nil
}

// inquiryCounts feeds the inquiry gauges from whichever store is active.
func inquiryCounts(deps DBDeps) metrics.CountsFunc {
	if deps.MongoDatabase != nil {
		db := deps.MongoDatabase
		return func(ctx context.Context) metricsstore.Counts {
			return metricsstore.FetchInquiryCounts(ctx, db)
		}
	}
	store := deps.Inquiries
	return func(ctx context.Context) metricsstore.Counts {
		qs, _ := store.Find(ctx, inquirystore.Filter{Limit: math.MaxInt32})
		return metricsstore.CountInquiries(qs)
	}
}

// nameBackend dials Redis when configured. An unreachable Redis degrades to
// the in-process cache rather than failing startup.
func nameBackend(ctx context.Context, appCfg AppConfig, deps *DBDeps, logger *zap.Logger) namecache.Backend {
	if appCfg.NameCache == NameCacheRedis {
		rctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		defer cancel()
		client, err := namecache.DialRedis(rctx, appCfg.RedisURL)
		if err == nil {
			deps.Redis = client
			logger.Info("name cache using redis")
			return namecache.NewRedis(client, appCfg.NameCacheTTL)
		}
		logger.Warn("redis unavailable; falling back to in-memory name cache", zap.Error(err))
	}
	size := appCfg.NameCacheSize
	if size <= 0 {
		size = 10000
	}
	return namecache.NewMemory(size, appCfg.NameCacheTTL)
}

func geocoderChain(appCfg AppConfig, logger *zap.Logger) *geocode.Chain {
	cfg := geocode.ClientConfig{
		Timeout:   appCfg.GeocodeTimeout,
		Retries:   appCfg.GeocodeRetries,
		Backoff:   appCfg.GeocodeBackoff,
		UserAgent: appCfg.GeocodeUserAgent,
	}
	chain := &geocode.Chain{Log: logger}
	if appCfg.GeocodeGoogleKey != "" {
		chain.Primary = geocode.NewGoogle(appCfg.GeocodeGoogleURL, appCfg.GeocodeGoogleKey, cfg, nil)
	}
	if appCfg.GeocodeFallbackURL != "off" {
		chain.Fallback = geocode.NewNominatim(appCfg.GeocodeFallbackURL, cfg, nil)
	}
	logger.Info("geocoding configured",
		zap.Bool("primary", chain.Primary != nil),
		zap.Bool("fallback", chain.Fallback != nil))
	return chain
}

// EnsureSchema attaches collection validators and creates indexes. The
// in-memory store has no schema.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	sctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), logger, "ensure schema")
	defer cancel()

	if err := validators.EnsureAll(sctx, deps.MongoDatabase); err != nil {
		logger.Error("collection validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(sctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	logger.Info("schema ensured")
	return nil
}
