package metricsstore_test

import (
	"testing"

	metricsstore "github.com/dalemusser/swarmhub/internal/app/store/metrics"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/dalemusser/swarmhub/internal/testutil"
)

func TestFetchInquiryCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchInquiryCounts(ctx, db)

	for _, s := range models.Statuses {
		if n, ok := counts.ByStatus[s]; !ok || n != 0 {
			t.Errorf("%s: got %d (present %v), want 0", s, n, ok)
		}
	}
	if counts.Unowned != 0 || counts.NeedsGeocode != 0 {
		t.Errorf("got %+v", counts)
	}
}

func TestFetchInquiryCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := "coord-1"
	fixtures.CreateRawInquiry(ctx, map[string]any{"_id": "a", "status": "link_sent", "needs_geocode": true})
	fixtures.CreateRawInquiry(ctx, map[string]any{"_id": "b", "status": "link_sent", "coordinator_id": ""})
	fixtures.CreateRawInquiry(ctx, map[string]any{"_id": "c", "status": "closed", "coordinator_id": owner})

	counts := metricsstore.FetchInquiryCounts(ctx, db)

	if got := counts.ByStatus[models.StatusLinkSent]; got != 2 {
		t.Errorf("link_sent: got %d, want 2", got)
	}
	if got := counts.ByStatus[models.StatusClosed]; got != 1 {
		t.Errorf("closed: got %d, want 1", got)
	}
	if counts.Unowned != 2 {
		t.Errorf("Unowned: got %d, want 2", counts.Unowned)
	}
	if counts.NeedsGeocode != 1 {
		t.Errorf("NeedsGeocode: got %d, want 1", counts.NeedsGeocode)
	}
}

func TestCountInquiries(t *testing.T) {
	owner := "coord-1"
	qs := []models.Inquiry{
		{ID: "a", Status: models.StatusFormFilled, NeedsGeocode: true},
		{ID: "b", Status: models.StatusFormFilled, CoordinatorID: &owner},
		{ID: "c", Status: models.StatusVolunteerEnRoute, CoordinatorID: &owner},
	}

	counts := metricsstore.CountInquiries(qs)

	if counts.ByStatus[models.StatusFormFilled] != 2 || counts.ByStatus[models.StatusVolunteerEnRoute] != 1 {
		t.Errorf("ByStatus = %v", counts.ByStatus)
	}
	if counts.ByStatus[models.StatusClosed] != 0 {
		t.Errorf("closed should be present and zero")
	}
	if counts.Unowned != 1 || counts.NeedsGeocode != 1 {
		t.Errorf("got %+v", counts)
	}
}
