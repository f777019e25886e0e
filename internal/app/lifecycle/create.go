// internal/app/lifecycle/create.go
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/system/geocode"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newInquiryID() string { return uuid.NewString() }

// NewInquiry is the intake payload of a swarm report.
type NewInquiry struct {
	Address             string
	City                string
	LocationDescription string
	FullName            string
	PhoneNumber         string
	AppearanceDate      *time.Time

	// Coordinates supplied by the reporter's device. Used only when
	// server-side geocoding fails.
	Coordinates *models.Coordinates

	// Status may be link_sent (default) or form_filled.
	Status models.InquiryStatus

	// OnBehalf is set by a coordinator entering a report for a caller. The
	// coordinator then owns the new inquiry.
	OnBehalf bool
}

// CreateInquiry validates and stores a new inquiry. Geocoding failures do not
// fail creation: the inquiry is tagged needs_geocode instead.
func (s *Service) CreateInquiry(ctx context.Context, actor Actor, in NewInquiry) (out models.Inquiry, err error) {
	// Set once the id is minted so a failed insert is still attributed.
	var id string
	defer func() { s.record(ctx, OpCreate, id, actor, &err, nil) }()

	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	switch {
	case in.Address == "":
		return models.Inquiry{}, newErr(KindValidation, OpCreate, "address is required", nil)
	case in.City == "":
		return models.Inquiry{}, newErr(KindValidation, OpCreate, "city is required", nil)
	}

	status := in.Status
	if status == "" {
		status = models.InitialStatus
	}
	if !status.BeforeAssignment() {
		return models.Inquiry{}, newErr(KindValidation, OpCreate, "new inquiries start as link_sent or form_filled", nil)
	}

	now := s.now().UTC()
	q := models.Inquiry{
		ID:                  s.newID(),
		Status:              status,
		City:                in.City,
		Address:             in.Address,
		LocationDescription: strings.TrimSpace(in.LocationDescription),
		FullName:            strings.TrimSpace(in.FullName),
		PhoneNumber:         strings.TrimSpace(in.PhoneNumber),
		AppearanceDate:      in.AppearanceDate,
		Timestamp:           now,
	}
	id = q.ID
	if actor.ID != "" {
		by := actor.ID
		q.CreatedByID = &by
	}
	if in.OnBehalf && actor.IsCoordinator() {
		owner := actor.ID
		q.CoordinatorID = &owner
	}

	s.locate(ctx, &q, in.Coordinates)

	out, err = s.inquiries.Insert(ctx, q)
	if err != nil {
		return models.Inquiry{}, storeErr(OpCreate, err)
	}
	s.log.Info("inquiry created",
		zap.String("inquiry_id", out.ID),
		zap.String("city", out.City),
		zap.Bool("needs_geocode", out.NeedsGeocode),
		zap.String("actor_id", actor.ID))
	return out, nil
}

// locate fills in coordinates from the geocoder chain, falling back to the
// client's point, and tags the inquiry when neither is usable.
func (s *Service) locate(ctx context.Context, q *models.Inquiry, hint *models.Coordinates) {
	var gerr error = geocode.ErrNoProvider
	if s.geocoder != nil {
		res, err := s.geocoder.Geocode(ctx, q.Address, q.City)
		if err == nil {
			pt := res.Coordinates
			q.Coordinates = &pt
			q.GeocodeSource = res.Source
			return
		}
		gerr = err
	}

	if hint != nil && geocode.ValidPoint(*hint) {
		pt := *hint
		q.Coordinates = &pt
		q.GeocodeSource = models.GeocodeClient
		return
	}

	q.NeedsGeocode = true
	if !errors.Is(gerr, geocode.ErrNoProvider) {
		s.log.Warn("geocoding failed, inquiry tagged for repair",
			zap.String("inquiry_id", q.ID),
			zap.String("city", q.City),
			zap.Error(gerr))
	}
}
