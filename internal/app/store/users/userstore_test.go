package userstore_test

import (
	"context"
	"errors"
	"testing"

	userstore "github.com/dalemusser/swarmhub/internal/app/store/users"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/dalemusser/swarmhub/internal/testutil"
)

type store interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByLoginID(ctx context.Context, loginID string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	UpdateName(ctx context.Context, id, fullName string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

func backends() map[string]func(t *testing.T) store {
	return map[string]func(t *testing.T) store{
		"memory": func(t *testing.T) store { return userstore.NewMemStore() },
		"mongo": func(t *testing.T) store {
			db := testutil.SetupTestDB(t)
			s := userstore.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()
			if err := s.EnsureIndexes(ctx); err != nil {
				t.Fatalf("EnsureIndexes: %v", err)
			}
			return s
		},
	}
}

func TestStore_CreateAndLookup(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			u, err := s.Create(ctx, models.User{FullName: "  Ana Novak ", LoginID: "Ana@Example.com", UserType: models.UserTypeVolunteer})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if u.ID == "" || u.FullName != "Ana Novak" || u.Status != "active" {
				t.Errorf("normalized user = %+v", u)
			}

			got, err := s.GetByLoginID(ctx, "ana@example.COM")
			if err != nil {
				t.Fatalf("GetByLoginID: %v", err)
			}
			if got.ID != u.ID {
				t.Errorf("GetByLoginID id = %s, want %s", got.ID, u.ID)
			}

			_, err = s.Create(ctx, models.User{FullName: "Other", LoginID: "ana@example.com", UserType: models.UserTypeCoordinator})
			if !errors.Is(err, userstore.ErrDuplicateLoginID) {
				t.Errorf("duplicate login: err = %v, want ErrDuplicateLoginID", err)
			}
			if _, err := s.GetByID(ctx, "nope"); !errors.Is(err, userstore.ErrNotFound) {
				t.Errorf("missing: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_CreateValidates(t *testing.T) {
	s := userstore.NewMemStore()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		u    models.User
	}{
		{"no name", models.User{LoginID: "x", UserType: models.UserTypeVolunteer}},
		{"no login", models.User{FullName: "X", UserType: models.UserTypeVolunteer}},
		{"bad type", models.User{FullName: "X", LoginID: "x", UserType: 7}},
		{"bad status", models.User{FullName: "X", LoginID: "x", UserType: models.UserTypeVolunteer, Status: "gone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Create(ctx, tt.u); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStore_UpdateName(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			u, err := s.Create(ctx, models.User{FullName: "Old", LoginID: "old@test", UserType: models.UserTypeCoordinator})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := s.UpdateName(ctx, u.ID, "New Name"); err != nil {
				t.Fatalf("UpdateName: %v", err)
			}
			got, _ := s.GetByID(ctx, u.ID)
			if got.FullName != "New Name" || got.FullNameCI != "new name" {
				t.Errorf("got %q / %q", got.FullName, got.FullNameCI)
			}
			if err := s.UpdateName(ctx, "missing", "X"); !errors.Is(err, userstore.ErrNotFound) {
				t.Errorf("missing: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_UpdatePasswordHash(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			u, err := s.Create(ctx, models.User{FullName: "Pat", LoginID: "pat@test", UserType: models.UserTypeVolunteer, PasswordHash: "$2a$old"})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := s.UpdatePasswordHash(ctx, u.ID, "$2a$new"); err != nil {
				t.Fatalf("UpdatePasswordHash: %v", err)
			}
			got, _ := s.GetByID(ctx, u.ID)
			if got.PasswordHash != "$2a$new" {
				t.Errorf("hash = %q", got.PasswordHash)
			}
			if err := s.UpdatePasswordHash(ctx, "missing", "$2a$x"); !errors.Is(err, userstore.ErrNotFound) {
				t.Errorf("missing: err = %v, want ErrNotFound", err)
			}
		})
	}
}
