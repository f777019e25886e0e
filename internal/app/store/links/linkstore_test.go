package linkstore_test

import (
	"context"
	"testing"

	linkstore "github.com/dalemusser/swarmhub/internal/app/store/links"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/dalemusser/swarmhub/internal/testutil"
	"go.uber.org/zap"
)

type store interface {
	Sync(ctx context.Context, inquiryID, volunteerID string) error
	ListByUser(ctx context.Context, userID string) ([]models.Link, error)
	ListByInquiry(ctx context.Context, inquiryID string) ([]models.Link, error)
}

func TestSync(t *testing.T) {
	backends := map[string]func(t *testing.T) store{
		"memory": func(t *testing.T) store { return linkstore.NewMemStore() },
		"mongo":  func(t *testing.T) store { return linkstore.New(testutil.SetupTestDB(t), zap.NewNop()) },
	}

	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			if err := s.Sync(ctx, "q1", "vol-1"); err != nil {
				t.Fatalf("Sync: %v", err)
			}
			// Idempotent.
			if err := s.Sync(ctx, "q1", "vol-1"); err != nil {
				t.Fatalf("Sync again: %v", err)
			}
			links, _ := s.ListByInquiry(ctx, "q1")
			if len(links) != 1 || links[0].ID != "vol-1_q1" {
				t.Fatalf("links = %+v, want [vol-1_q1]", links)
			}

			// Reassignment moves the link.
			if err := s.Sync(ctx, "q1", "vol-2"); err != nil {
				t.Fatalf("Sync reassign: %v", err)
			}
			if old, _ := s.ListByUser(ctx, "vol-1"); len(old) != 0 {
				t.Errorf("vol-1 still linked: %+v", old)
			}
			if cur, _ := s.ListByUser(ctx, "vol-2"); len(cur) != 1 {
				t.Errorf("vol-2 links = %+v, want one", cur)
			}

			// Unassignment removes everything for the inquiry.
			if err := s.Sync(ctx, "q1", ""); err != nil {
				t.Fatalf("Sync clear: %v", err)
			}
			if rest, _ := s.ListByInquiry(ctx, "q1"); len(rest) != 0 {
				t.Errorf("links after clear = %+v", rest)
			}
		})
	}
}
