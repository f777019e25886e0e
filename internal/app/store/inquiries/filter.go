// internal/app/store/inquiries/filter.go
package inquirystore

import (
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
)

// Filter narrows an inquiry listing. Zero fields do not constrain. Setting
// both CoordinatorID and UnownedOnly matches nothing.
type Filter struct {
	CoordinatorID string
	Status        models.InquiryStatus
	UnownedOnly   bool
	City          string

	// VolunteerID limits results to inquiries with this volunteer attached.
	VolunteerID string
	// OwnedOrUnownedBy limits results to inquiries owned by this coordinator
	// plus every unowned inquiry.
	OwnedOrUnownedBy string

	NeedsGeocode bool
	Limit        int64
}

// unownedValues are the stored shapes that mean "no owner".
var unownedValues = bson.A{nil, ""}

func (f Filter) query() bson.M {
	q := bson.M{}
	var and []bson.M

	if f.CoordinatorID != "" {
		and = append(and, bson.M{"coordinator_id": f.CoordinatorID})
	}
	if f.UnownedOnly {
		and = append(and, bson.M{"coordinator_id": bson.M{"$in": unownedValues}})
	}
	if f.OwnedOrUnownedBy != "" {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"coordinator_id": f.OwnedOrUnownedBy},
			bson.M{"coordinator_id": bson.M{"$in": unownedValues}},
		}})
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.City != "" {
		q["city_ci"] = text.Fold(f.City)
	}
	// Matches both the list form and a legacy scalar.
	if f.VolunteerID != "" {
		q["assigned_volunteers"] = f.VolunteerID
	}
	if f.NeedsGeocode {
		q["needs_geocode"] = true
	}
	if len(and) > 0 {
		q["$and"] = and
	}
	return q
}

// Matches applies the same rules as the Mongo query to an in-memory value.
func (f Filter) Matches(q models.Inquiry) bool {
	owner, owned := q.Owner()
	if f.CoordinatorID != "" && owner != f.CoordinatorID {
		return false
	}
	if f.UnownedOnly && owned {
		return false
	}
	if f.OwnedOrUnownedBy != "" && owned && owner != f.OwnedOrUnownedBy {
		return false
	}
	if f.Status != "" && q.Status != f.Status {
		return false
	}
	if f.City != "" && q.CityCI != text.Fold(f.City) {
		return false
	}
	if f.VolunteerID != "" && !q.AssignedVolunteers.Is(f.VolunteerID) {
		return false
	}
	if f.NeedsGeocode && !q.NeedsGeocode {
		return false
	}
	return true
}
