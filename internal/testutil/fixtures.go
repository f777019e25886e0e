package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewUser builds (without storing) a user of the given type.
func NewUser(fullName, loginID string, typ models.UserType) models.User {
	now := time.Now().UTC()
	return models.User{
		ID:         uuid.NewString(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		LoginID:    loginID,
		LoginIDCI:  text.Fold(loginID),
		UserType:   typ,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewInquiry builds (without storing) an unowned inquiry in status.
func NewInquiry(status models.InquiryStatus) models.Inquiry {
	return models.Inquiry{
		ID:        uuid.NewString(),
		Status:    status,
		City:      "Ljubljana",
		CityCI:    text.Fold("Ljubljana"),
		Address:   "Trubarjeva 1",
		FullName:  "Reporter",
		Timestamp: time.Now().UTC(),
	}
}

// Fixtures inserts test documents straight into a test database.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures bound to db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user; when password is non-empty it is stored as a
// bcrypt hash.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, loginID, password string, typ models.UserType) models.User {
	f.t.Helper()
	u := NewUser(fullName, loginID, typ)
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			f.t.Fatalf("hash password: %v", err)
		}
		u.PasswordHash = string(h)
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateCoordinator inserts a coordinator.
func (f *Fixtures) CreateCoordinator(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, text.Fold(fullName)+"@test", "", models.UserTypeCoordinator)
}

// CreateVolunteer inserts a volunteer.
func (f *Fixtures) CreateVolunteer(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, text.Fold(fullName)+"@test", "", models.UserTypeVolunteer)
}

// CreateRawInquiry inserts an arbitrary document into inquiries, for
// seeding shapes older clients wrote.
func (f *Fixtures) CreateRawInquiry(ctx context.Context, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection("inquiries").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create raw inquiry: %v", err)
	}
}
