// internal/domain/models/inquiry.go
package models

import "time"

// InquiryStatus is the lifecycle state of an inquiry.
type InquiryStatus string

const (
	StatusLinkSent          InquiryStatus = "link_sent"
	StatusFormFilled        InquiryStatus = "form_filled"
	StatusVolunteerAssigned InquiryStatus = "volunteer_assigned"
	StatusVolunteerEnRoute  InquiryStatus = "volunteer_en_route"
	StatusTreatmentDone     InquiryStatus = "treatment_done"
	StatusClosed            InquiryStatus = "closed"
)

// InitialStatus is the status every new inquiry starts in.
const InitialStatus = StatusLinkSent

// Statuses lists every status in happy-path order.
var Statuses = []InquiryStatus{
	StatusLinkSent,
	StatusFormFilled,
	StatusVolunteerAssigned,
	StatusVolunteerEnRoute,
	StatusTreatmentDone,
	StatusClosed,
}

// Valid reports whether s is one of the known statuses.
func (s InquiryStatus) Valid() bool {
	switch s {
	case StatusLinkSent, StatusFormFilled, StatusVolunteerAssigned,
		StatusVolunteerEnRoute, StatusTreatmentDone, StatusClosed:
		return true
	}
	return false
}

// RequiresVolunteer reports whether an inquiry may only be in s while a
// volunteer is attached.
func (s InquiryStatus) RequiresVolunteer() bool {
	switch s {
	case StatusVolunteerAssigned, StatusVolunteerEnRoute, StatusTreatmentDone:
		return true
	}
	return false
}

// BeforeAssignment reports whether s sits before the assignment point of the
// lifecycle. Moving into such a status detaches the volunteer.
func (s InquiryStatus) BeforeAssignment() bool {
	return s == StatusLinkSent || s == StatusFormFilled
}

// ClosureReason explains why an inquiry was closed.
type ClosureReason string

const (
	ClosureNone                ClosureReason = ""
	ClosureSwarmCollected      ClosureReason = "swarm_collected"
	ClosureSwarmDeparted       ClosureReason = "swarm_departed"
	ClosureNotHoneybees        ClosureReason = "not_honeybees"
	ClosureInaccessible        ClosureReason = "inaccessible"
	ClosureDuplicate           ClosureReason = "duplicate"
	ClosureReporterUnreachable ClosureReason = "reporter_unreachable"
	ClosureOther               ClosureReason = "other"
)

// ClosureReasons lists every non-empty closure reason.
var ClosureReasons = []ClosureReason{
	ClosureSwarmCollected,
	ClosureSwarmDeparted,
	ClosureNotHoneybees,
	ClosureInaccessible,
	ClosureDuplicate,
	ClosureReporterUnreachable,
	ClosureOther,
}

// Valid reports whether r is a known, non-empty closure reason.
func (r ClosureReason) Valid() bool {
	switch r {
	case ClosureSwarmCollected, ClosureSwarmDeparted, ClosureNotHoneybees,
		ClosureInaccessible, ClosureDuplicate, ClosureReporterUnreachable, ClosureOther:
		return true
	}
	return false
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Geocode sources recorded on an inquiry.
const (
	GeocodePrimary  = "primary"
	GeocodeFallback = "fallback"
	GeocodeRepair   = "repair"
	GeocodeClient   = "client"
)

// Inquiry is one bee-swarm rescue report.
//
// Version is an optimistic-concurrency token. Every write bumps it and every
// conditional write is keyed on the value that was read. Documents written
// before the field existed decode as version 0.
type Inquiry struct {
	ID     string        `bson:"_id" json:"id"`
	Status InquiryStatus `bson:"status" json:"status"`

	// ClosureReason is only meaningful while Status == StatusClosed.
	ClosureReason ClosureReason `bson:"closure_reason,omitempty" json:"closure_reason,omitempty"`

	AssignedVolunteers Assignment `bson:"assigned_volunteers" json:"assigned_volunteers"`
	CoordinatorID      *string    `bson:"coordinator_id" json:"coordinator_id"`

	City                string     `bson:"city" json:"city"`
	CityCI              string     `bson:"city_ci" json:"-"` // folded for case/diacritic-insensitive filters
	Address             string     `bson:"address" json:"address"`
	LocationDescription string     `bson:"location_description,omitempty" json:"location_description,omitempty"`
	FullName            string     `bson:"full_name,omitempty" json:"full_name,omitempty"`
	PhoneNumber         string     `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	AppearanceDate      *time.Time `bson:"appearance_date,omitempty" json:"appearance_date,omitempty"`
	Timestamp           time.Time  `bson:"timestamp" json:"timestamp"`

	Coordinates   *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	NeedsGeocode  bool         `bson:"needs_geocode" json:"needs_geocode"`
	GeocodeSource string       `bson:"geocode_source,omitempty" json:"geocode_source,omitempty"`

	CreatedByID *string   `bson:"created_by_id,omitempty" json:"created_by_id,omitempty"`
	Version     int64     `bson:"version" json:"version"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Owner returns the owning coordinator id, if any.
func (q Inquiry) Owner() (string, bool) {
	if q.CoordinatorID == nil || *q.CoordinatorID == "" {
		return "", false
	}
	return *q.CoordinatorID, true
}

// OwnedBy reports whether coordinatorID currently owns q.
func (q Inquiry) OwnedBy(coordinatorID string) bool {
	owner, ok := q.Owner()
	return ok && owner == coordinatorID
}

// Clone returns a deep copy so stores can hand out values without sharing
// pointers with their internal state.
func (q Inquiry) Clone() Inquiry {
	out := q
	if q.CoordinatorID != nil {
		id := *q.CoordinatorID
		out.CoordinatorID = &id
	}
	if q.CreatedByID != nil {
		id := *q.CreatedByID
		out.CreatedByID = &id
	}
	if q.AppearanceDate != nil {
		t := *q.AppearanceDate
		out.AppearanceDate = &t
	}
	if q.Coordinates != nil {
		c := *q.Coordinates
		out.Coordinates = &c
	}
	return out
}
