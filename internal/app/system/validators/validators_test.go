package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/system/validators"
	"github.com/dalemusser/swarmhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_IdempotentAndCreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range validators.Collections {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func validInquiry() bson.M {
	return bson.M{
		"_id":                 "inq-1",
		"status":              "form_filled",
		"address":             "Trubarjeva 1",
		"city":                "Ljubljana",
		"city_ci":             "ljubljana",
		"assigned_volunteers": bson.A{},
		"coordinator_id":      nil,
		"timestamp":           time.Now(),
		"version":             int64(1),
	}
}

func TestInquiriesValidator(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(bson.M)
		ok     bool
	}{
		{"valid", func(bson.M) {}, true},
		{"legacy scalar volunteer", func(d bson.M) { d["assigned_volunteers"] = "vol-1" }, true},
		{"legacy null volunteer", func(d bson.M) { d["assigned_volunteers"] = nil }, true},
		{"legacy missing version", func(d bson.M) { delete(d, "version") }, true},
		{"closed with reason", func(d bson.M) { d["status"] = "closed"; d["closure_reason"] = "swarm_collected" }, true},
		{"unknown status", func(d bson.M) { d["status"] = "sleeping" }, false},
		{"unknown closure reason", func(d bson.M) { d["closure_reason"] = "bears" }, false},
		{"two volunteers", func(d bson.M) { d["assigned_volunteers"] = bson.A{"vol-1", "vol-2"} }, false},
		{"missing city", func(d bson.M) { delete(d, "city") }, false},
		{"blank address", func(d bson.M) { d["address"] = "   " }, false},
		{"latitude out of range", func(d bson.M) { d["coordinates"] = bson.M{"lat": 123.0, "lng": 1.0} }, false},
	}
	db := setup(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			coll := db.Collection("inquiries")
			_, _ = coll.DeleteMany(ctx, bson.M{})

			doc := validInquiry()
			tt.mutate(doc)
			_, err := coll.InsertOne(ctx, doc)
			if tt.ok && err != nil {
				t.Errorf("insert rejected: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUsersValidator(t *testing.T) {
	tests := []struct {
		name string
		doc  bson.M
		ok   bool
	}{
		{"valid", bson.M{"full_name": "Ana", "login_id": "ana", "user_type": 1, "status": "active"}, true},
		{"missing fields", bson.M{"login_id": "ana"}, false},
		{"unknown user type", bson.M{"full_name": "Ana", "login_id": "ana", "user_type": 7, "status": "active"}, false},
		{"unknown status", bson.M{"full_name": "Ana", "login_id": "ana", "user_type": 2, "status": "banned"}, false},
	}
	db := setup(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			_, err := db.Collection("users").InsertOne(ctx, tt.doc)
			if tt.ok != (err == nil) {
				t.Errorf("insert err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLinksValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := db.Collection("links").InsertOne(ctx, bson.M{"_id": "vol-1_inq-1", "user_id": "vol-1", "inquiry_id": "inq-1", "created_at": time.Now()}); err != nil {
		t.Errorf("valid link rejected: %v", err)
	}
	if _, err := db.Collection("links").InsertOne(ctx, bson.M{"_id": "x", "user_id": "vol-1"}); err == nil {
		t.Error("link without inquiry_id accepted")
	}
}
