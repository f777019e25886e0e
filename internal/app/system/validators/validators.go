// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/swarmhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections lists every collection EnsureAll creates.
var Collections = []string{"users", "inquiries", "links", "audit_events"}

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("inquiries", inquiriesSchema())
	ensure("links", linksSchema())

	// append-only; written by the audit logger
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches a string with at least one non-space character.
var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "login_id", "user_type", "status"},
			"properties": bson.M{
				"full_name":     nonBlank,
				"full_name_ci":  nonBlank,
				"login_id":      nonBlank,
				"login_id_ci":   nonBlank,
				"password_hash": bson.M{"bsonType": "string"},
				"user_type":     bson.M{"enum": bson.A{int32(models.UserTypeCoordinator), int32(models.UserTypeVolunteer)}},
				"status":        bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func inquiriesSchema() bson.M {
	statusEnum := bson.A{}
	for _, s := range models.Statuses {
		statusEnum = append(statusEnum, string(s))
	}
	reasonEnum := bson.A{""}
	for _, r := range models.ClosureReasons {
		reasonEnum = append(reasonEnum, string(r))
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"status", "address", "city"},
			"properties": bson.M{
				"status":         bson.M{"enum": statusEnum},
				"closure_reason": bson.M{"enum": reasonEnum},
				"address":        nonBlank,
				"city":           nonBlank,
				"city_ci":        bson.M{"bsonType": "string"},

				// legacy documents hold a bare id or null instead of an array
				"assigned_volunteers": bson.M{
					"bsonType": bson.A{"array", "string", "null"},
					"maxItems": 1,
					"items":    bson.M{"bsonType": "string"},
				},
				"coordinator_id": bson.M{"bsonType": bson.A{"string", "null"}},

				"coordinates": bson.M{
					"bsonType": "object",
					"required": bson.A{"lat", "lng"},
					"properties": bson.M{
						"lat": bson.M{"bsonType": "double", "minimum": -90, "maximum": 90},
						"lng": bson.M{"bsonType": "double", "minimum": -180, "maximum": 180},
					},
				},
				"needs_geocode":   bson.M{"bsonType": "bool"},
				"geocode_source":  bson.M{"bsonType": "string"},
				"appearance_date": bson.M{"bsonType": bson.A{"date", "null"}},
				"timestamp":       bson.M{"bsonType": "date"},
				"updated_at":      bson.M{"bsonType": "date"},
				"version":         bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}

func linksSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "inquiry_id"},
			"properties": bson.M{
				"user_id":    nonBlank,
				"inquiry_id": nonBlank,
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
