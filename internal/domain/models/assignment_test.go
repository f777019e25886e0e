package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestAssignment_DecodesLegacyShapes(t *testing.T) {
	tests := []struct {
		name   string
		doc    bson.M
		wantID string
	}{
		{"array with one", bson.M{"_id": "q1", "assigned_volunteers": bson.A{"vol-1"}}, "vol-1"},
		{"empty array", bson.M{"_id": "q1", "assigned_volunteers": bson.A{}}, ""},
		{"legacy scalar", bson.M{"_id": "q1", "assigned_volunteers": "vol-2"}, "vol-2"},
		{"null", bson.M{"_id": "q1", "assigned_volunteers": nil}, ""},
		{"missing", bson.M{"_id": "q1"}, ""},
		{"array with blank first", bson.M{"_id": "q1", "assigned_volunteers": bson.A{"", "vol-3"}}, "vol-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.doc)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var q Inquiry
			if err := bson.Unmarshal(raw, &q); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, _ := q.AssignedVolunteers.VolunteerID()
			if got != tt.wantID {
				t.Errorf("volunteer = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestAssignment_EncodesAsList(t *testing.T) {
	raw, err := bson.Marshal(Inquiry{ID: "q1", AssignedVolunteers: AssignVolunteer("vol-1")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v := bson.Raw(raw).Lookup("assigned_volunteers")
	arr, ok := v.ArrayOK()
	if !ok {
		t.Fatalf("assigned_volunteers stored as %s, want array", v.Type)
	}
	vals, _ := arr.Values()
	if len(vals) != 1 || vals[0].StringValue() != "vol-1" {
		t.Errorf("stored %v, want [vol-1]", vals)
	}

	out, err := json.Marshal(Inquiry{ID: "q1"})
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(out, &m)
	list, ok := m["assigned_volunteers"].([]any)
	if !ok || len(list) != 0 {
		t.Errorf("json assigned_volunteers = %v, want []", m["assigned_volunteers"])
	}
}

func TestAssignment_JSONAcceptsScalar(t *testing.T) {
	var a Assignment
	if err := json.Unmarshal([]byte(`"vol-9"`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.Is("vol-9") {
		t.Errorf("got %v, want vol-9", a.Slice())
	}
	if err := json.Unmarshal([]byte(`null`), &a); err != nil || a.Has() {
		t.Errorf("null should clear, got %v err=%v", a.Slice(), err)
	}
}

func TestStatusHelpers(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if InquiryStatus("bogus").Valid() {
		t.Error("bogus status should be invalid")
	}
	if !StatusTreatmentDone.RequiresVolunteer() || StatusClosed.RequiresVolunteer() {
		t.Error("RequiresVolunteer mismatch")
	}
	for _, r := range ClosureReasons {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if ClosureNone.Valid() {
		t.Error("empty closure reason is not a valid value")
	}
}
