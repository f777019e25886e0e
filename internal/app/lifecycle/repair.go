// internal/app/lifecycle/repair.go
package lifecycle

import (
	"context"
	"errors"

	inquirystore "github.com/dalemusser/swarmhub/internal/app/store/inquiries"
	"github.com/dalemusser/swarmhub/internal/app/system/geocode"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.uber.org/zap"
)

// RepairStats summarises one repair pass.
type RepairStats struct {
	Scanned  int
	Repaired int
	Failed   int
}

// RepairCoordinates geocodes up to limit inquiries tagged needs_geocode.
// Inquiries the providers cannot place stay tagged for the next pass.
func (s *Service) RepairCoordinates(ctx context.Context, limit int64) (RepairStats, error) {
	var stats RepairStats
	if s.geocoder == nil {
		return stats, nil
	}

	pending, err := s.inquiries.Find(ctx, inquirystore.Filter{NeedsGeocode: true, Limit: limit})
	if err != nil {
		return stats, storeErr(OpGeocodeRepair, err)
	}

	for _, q := range pending {
		if ctx.Err() != nil {
			return stats, storeErr(OpGeocodeRepair, ctx.Err())
		}
		stats.Scanned++
		if err := s.repairOne(ctx, q); err != nil {
			stats.Failed++
			s.log.Info("geocode repair skipped",
				zap.String("inquiry_id", q.ID),
				zap.Error(err))
			continue
		}
		stats.Repaired++
	}
	return stats, nil
}

func (s *Service) repairOne(ctx context.Context, q models.Inquiry) (err error) {
	defer func() { s.record(ctx, OpGeocodeRepair, q.ID, Actor{}, &err, nil) }()

	res, gerr := s.geocoder.Geocode(ctx, q.Address, q.City)
	if gerr != nil {
		kind := KindUpstreamUnavailable
		if errors.Is(gerr, geocode.ErrNotFound) {
			kind = KindNotFound
		}
		return newErr(kind, OpGeocodeRepair, "address could not be geocoded", gerr)
	}

	_, err = s.mutate(ctx, OpGeocodeRepair, q.ID, func(cur *models.Inquiry) (bool, error) {
		if !cur.NeedsGeocode {
			return false, nil
		}
		pt := res.Coordinates
		cur.Coordinates = &pt
		cur.GeocodeSource = models.GeocodeRepair
		cur.NeedsGeocode = false
		return true, nil
	})
	return err
}
