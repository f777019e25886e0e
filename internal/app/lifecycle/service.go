// Package lifecycle is the single entry point for changing inquiries.
//
// Every mutation follows the same shape: read the inquiry, let
// inquirypolicy decide, write back conditionally on the version that was
// read. When another writer got there first the decision is made again
// against the fresh document.
package lifecycle

import (
	"context"
	"errors"
	"time"

	inquirystore "github.com/dalemusser/swarmhub/internal/app/store/inquiries"
	"github.com/dalemusser/swarmhub/internal/app/system/geocode"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the read-decide-write loop of one operation.
const DefaultMaxAttempts = 8

// InquiryStore is the record store the service mutates.
type InquiryStore interface {
	Insert(ctx context.Context, q models.Inquiry) (models.Inquiry, error)
	Get(ctx context.Context, id string) (models.Inquiry, error)
	Replace(ctx context.Context, q models.Inquiry) (models.Inquiry, error)
	Find(ctx context.Context, f inquirystore.Filter) ([]models.Inquiry, error)
}

// UserDirectory resolves users referenced by operations.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// LinkMirror keeps derived join records in step with the assigned volunteer.
type LinkMirror interface {
	Sync(ctx context.Context, inquiryID, volunteerID string) error
}

// Geocoder resolves intake addresses.
type Geocoder interface {
	Geocode(ctx context.Context, address, city string) (geocode.Result, error)
}

// Actor identifies the caller of an operation. The zero Actor is an
// anonymous member of the public.
type Actor struct {
	ID   string
	Type models.UserType
}

// IsCoordinator reports whether a signed-in coordinator is acting.
func (a Actor) IsCoordinator() bool { return a.ID != "" && a.Type == models.UserTypeCoordinator }

// IsVolunteer reports whether a signed-in volunteer is acting.
func (a Actor) IsVolunteer() bool { return a.ID != "" && a.Type == models.UserTypeVolunteer }

// Options carries the optional collaborators of a Service.
type Options struct {
	Links       LinkMirror
	Geocoder    Geocoder
	Sink        EventSink
	Logger      *zap.Logger
	MaxAttempts int
	// Now is used for timestamps. Defaults to time.Now.
	Now func() time.Time
	// NewID generates inquiry ids. Defaults to uuid.NewString.
	NewID func() string
}

// Service applies lifecycle operations to inquiries. Every mutation is a
// versioned compare-and-swap against the store, retried on conflict, and
// every attempt is reported to the event sink. Safe for concurrent use.
type Service struct {
	inquiries InquiryStore
	users     UserDirectory
	links     LinkMirror
	geocoder  Geocoder
	sink      EventSink
	log       *zap.Logger

	maxAttempts int
	now         func() time.Time
	newID       func() string
}

// New builds a Service over the given stores.
func New(inquiries InquiryStore, users UserDirectory, opts Options) *Service {
	s := &Service{
		inquiries:   inquiries,
		users:       users,
		links:       opts.Links,
		geocoder:    opts.Geocoder,
		sink:        opts.Sink,
		log:         opts.Logger,
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newInquiryID
	}
	return s
}

// mutate runs fn against the current document and writes the result back
// conditionally. fn returns write=false when the operation is a no-op.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(q *models.Inquiry) (write bool, err error)) (models.Inquiry, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		cur, err := s.inquiries.Get(ctx, id)
		if err != nil {
			return models.Inquiry{}, storeErr(op, err)
		}

		next := cur.Clone()
		write, err := fn(&next)
		if err != nil {
			return models.Inquiry{}, err
		}
		if !write {
			return cur, nil
		}

		saved, err := s.inquiries.Replace(ctx, next)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, inquirystore.ErrVersionConflict) {
			return models.Inquiry{}, storeErr(op, err)
		}
		s.log.Debug("inquiry changed underneath, retrying",
			zap.String("op", op),
			zap.String("inquiry_id", id),
			zap.Int("attempt", attempt))
	}
	return models.Inquiry{}, newErr(KindConflict, op, "inquiry is being changed concurrently, try again", nil)
}

// storeErr maps record store failures onto lifecycle kinds.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, inquirystore.ErrNotFound):
		return newErr(KindNotFound, op, "inquiry not found", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newErr(KindUpstreamUnavailable, op, "request timed out", err)
	default:
		return newErr(KindUpstreamUnavailable, op, "record store unavailable", err)
	}
}

// record emits one event for an operation. errp points at the operation's
// named error result so it can be deferred.
func (s *Service) record(ctx context.Context, op, inquiryID string, actor Actor, errp *error, details map[string]string) {
	if s.sink == nil {
		return
	}
	ev := Event{
		Op:        op,
		InquiryID: inquiryID,
		ActorID:   actor.ID,
		Outcome:   OutcomeSuccess,
		Details:   details,
		At:        s.now().UTC(),
	}
	if errp != nil && *errp != nil {
		ev.Outcome = string(KindOf(*errp))
		if ev.Outcome == "" {
			ev.Outcome = string(KindUpstreamUnavailable)
		}
		ev.Message = (*errp).Error()
	}
	s.sink.Record(ctx, ev)
}

// syncLinks mirrors the assigned volunteer into the links collection.
// Links are derived data, so a failure is logged and not returned.
func (s *Service) syncLinks(ctx context.Context, q models.Inquiry) {
	if s.links == nil {
		return
	}
	vol, _ := q.AssignedVolunteers.VolunteerID()
	if err := s.links.Sync(ctx, q.ID, vol); err != nil {
		s.log.Warn("link mirror sync failed",
			zap.String("inquiry_id", q.ID),
			zap.String("volunteer_id", vol),
			zap.Error(err))
	}
}
