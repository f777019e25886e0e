// internal/domain/models/assignment.go
package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Assignment is the zero-or-one volunteer attached to an inquiry.
//
// It is stored as a 0/1-element array under assigned_volunteers. Older
// documents hold a bare string, null, or nothing at all; all of those decode
// into the same value so callers never see the storage shape.
type Assignment struct {
	volunteerID string
}

// AssignVolunteer returns an assignment holding id. An empty id yields the
// empty assignment.
func AssignVolunteer(id string) Assignment {
	return Assignment{volunteerID: id}
}

// NoVolunteer is the empty assignment.
func NoVolunteer() Assignment { return Assignment{} }

// VolunteerID returns the attached volunteer, if any.
func (a Assignment) VolunteerID() (string, bool) {
	return a.volunteerID, a.volunteerID != ""
}

// Has reports whether a volunteer is attached.
func (a Assignment) Has() bool { return a.volunteerID != "" }

// Is reports whether id is the attached volunteer.
func (a Assignment) Is(id string) bool { return id != "" && a.volunteerID == id }

// Slice returns the assignment in its persisted list form.
func (a Assignment) Slice() []string {
	if a.volunteerID == "" {
		return []string{}
	}
	return []string{a.volunteerID}
}

// MarshalBSONValue always writes the list form.
func (a Assignment) MarshalBSONValue() (bsontype.Type, []byte, error) {
	arr := bson.A{}
	if a.volunteerID != "" {
		arr = append(arr, a.volunteerID)
	}
	return bson.MarshalValue(arr)
}

// UnmarshalBSONValue accepts the list form, a legacy scalar string, or null.
func (a *Assignment) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*a = Assignment{}
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		return nil
	case bsontype.String:
		a.volunteerID = rv.StringValue()
		return nil
	case bsontype.Array:
		vals, err := rv.Array().Values()
		if err != nil {
			return fmt.Errorf("assigned_volunteers: %w", err)
		}
		for _, v := range vals {
			if s, ok := v.StringValueOK(); ok && s != "" {
				a.volunteerID = s
				return nil
			}
		}
		return nil
	default:
		return fmt.Errorf("assigned_volunteers: unsupported bson type %s", t)
	}
}

// MarshalJSON writes the list form.
func (a Assignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Slice())
}

// UnmarshalJSON accepts a list, a string, or null.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	*a = Assignment{}
	if string(data) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		a.volunteerID = one
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("assigned_volunteers: %w", err)
	}
	for _, s := range many {
		if s != "" {
			a.volunteerID = s
			break
		}
	}
	return nil
}
