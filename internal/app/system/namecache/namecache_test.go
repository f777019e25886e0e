package namecache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	userstore "github.com/dalemusser/swarmhub/internal/app/store/users"
	"github.com/dalemusser/swarmhub/internal/domain/models"
)

type countingUsers struct {
	*userstore.MemStore
	calls int
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	c.calls++
	return c.MemStore.GetByID(ctx, id)
}

func newUsers(t *testing.T) *countingUsers {
	t.Helper()
	mem := userstore.NewMemStore()
	if _, err := mem.Create(context.Background(), models.User{
		ID: "A", FullName: "Ana Novak", LoginID: "ana", UserType: models.UserTypeCoordinator,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &countingUsers{MemStore: mem}
}

func TestResolver_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)
	r := New(NewMemory(16, time.Minute), users, nil)

	if got := r.Name(ctx, "A"); got != "Ana Novak" {
		t.Fatalf("Name = %q", got)
	}
	r.Name(ctx, "A")
	if users.calls != 1 {
		t.Errorf("directory calls = %d, want 1", users.calls)
	}

	if err := users.UpdateName(ctx, "A", "Ana Kranjc"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if got := r.Name(ctx, "A"); got != "Ana Novak" {
		t.Errorf("before invalidation got %q, want stale name", got)
	}
	if err := r.Invalidate(ctx, "A"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got := r.Name(ctx, "A"); got != "Ana Kranjc" {
		t.Errorf("after invalidation got %q", got)
	}
}

func TestResolver_Names(t *testing.T) {
	r := New(NewMemory(16, time.Minute), newUsers(t), nil)

	got := r.Names(context.Background(), "A", "", "missing", "A")

	if len(got) != 2 || got["A"] != "Ana Novak" || got["missing"] != "" {
		t.Errorf("Names = %v", got)
	}
}

func TestMemory_Expires(t *testing.T) {
	m := NewMemory(4, 20*time.Millisecond)
	ctx := context.Background()
	_ = m.Set(ctx, "A", "Ana")

	if _, ok, _ := m.Get(ctx, "A"); !ok {
		t.Fatal("expected hit")
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "A"); ok {
		t.Error("expected entry to expire")
	}
}

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("down")
}
func (brokenBackend) Set(context.Context, string, string) error { return errors.New("down") }
func (brokenBackend) Delete(context.Context, string) error      { return errors.New("down") }

func TestResolver_BackendFailureFallsThrough(t *testing.T) {
	r := New(brokenBackend{}, newUsers(t), nil)
	if got := r.Name(context.Background(), "A"); got != "Ana Novak" {
		t.Errorf("Name = %q", got)
	}
}

func TestRedis(t *testing.T) {
	url := os.Getenv("SWARMHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SWARMHUB_TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := DialRedis(ctx, url)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer client.Close()

	b := NewRedis(client, time.Minute)
	id := "test-" + time.Now().Format("150405.000000000")
	defer b.Delete(ctx, id)

	if _, ok, err := b.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get before Set = ok %v err %v", ok, err)
	}
	if err := b.Set(ctx, id, "Ana"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if name, ok, err := b.Get(ctx, id); err != nil || !ok || name != "Ana" {
		t.Fatalf("Get = %q %v %v", name, ok, err)
	}
	if err := b.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := b.Get(ctx, id); ok {
		t.Error("expected miss after Delete")
	}
}
