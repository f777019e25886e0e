// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	"github.com/dalemusser/swarmhub/internal/app/system/auditlog"
	"github.com/dalemusser/swarmhub/internal/app/system/intake"
	"github.com/dalemusser/swarmhub/internal/app/system/metrics"
	"github.com/dalemusser/swarmhub/internal/app/system/namecache"
	"github.com/dalemusser/swarmhub/internal/app/system/ratelimit"
	"github.com/dalemusser/swarmhub/internal/app/system/workers"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore is satisfied by both the MongoDB and the in-memory user stores.
type UserStore interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByLoginID(ctx context.Context, loginID string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	UpdateName(ctx context.Context, id, fullName string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// DBDeps holds database/back-end dependencies for the app. With
// record_store=memory the Mongo and audit fields are nil.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client

	Users      UserStore
	Inquiries  lifecycle.InquiryStore
	Links      lifecycle.LinkMirror
	AuditStore *audit.Store

	Lifecycle     *lifecycle.Service
	Names         *namecache.Resolver
	AuditLog      *auditlog.Logger
	Metrics       *metrics.Metrics
	Intake        *intake.Validator
	IntakeLimiter *ratelimit.Limiter // nil when intake_rate_limit is 0
	LoginLimiter  *ratelimit.LoginLimiter
	GeocodeRepair *workers.GeocodeRepair // nil when disabled
}
