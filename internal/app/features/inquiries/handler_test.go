package inquiries_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/features/inquiries"
	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	inquirystore "github.com/dalemusser/swarmhub/internal/app/store/inquiries"
	linkstore "github.com/dalemusser/swarmhub/internal/app/store/links"
	userstore "github.com/dalemusser/swarmhub/internal/app/store/users"
	"github.com/dalemusser/swarmhub/internal/app/system/intake"
	"github.com/dalemusser/swarmhub/internal/app/system/namecache"
	"github.com/dalemusser/swarmhub/internal/app/system/ratelimit"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/dalemusser/swarmhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	ana  = testutil.TestUser{ID: "A", Name: "Ana", LoginID: "ana", UserType: models.UserTypeCoordinator}
	bor  = testutil.TestUser{ID: "B", Name: "Bor", LoginID: "bor", UserType: models.UserTypeCoordinator}
	vida = testutil.TestUser{ID: "vol-1", Name: "Vida", LoginID: "vida", UserType: models.UserTypeVolunteer}
	vid  = testutil.TestUser{ID: "vol-2", Name: "Vid", LoginID: "vid", UserType: models.UserTypeVolunteer}
)

type fakeHistory struct {
	events []audit.Event
	err    error
}

func (f *fakeHistory) GetByInquiry(_ context.Context, id string, limit int64) ([]audit.Event, error) {
	if int64(len(f.events)) > limit {
		return f.events[:limit], f.err
	}
	return f.events, f.err
}

func (f *fakeHistory) CountByInquiry(_ context.Context, id string) (int64, error) {
	return int64(len(f.events)), f.err
}

type env struct {
	t       *testing.T
	router  chi.Router
	handler *inquiries.Handler
	inq     *inquirystore.MemStore
}

func newEnv(t *testing.T, limit func(http.Handler) http.Handler) *env {
	t.Helper()
	inq := inquirystore.NewMemStore()
	users := userstore.NewMemStore()
	for _, u := range []testutil.TestUser{ana, bor, vida, vid} {
		if _, err := users.Create(context.Background(), models.User{
			ID: u.ID, FullName: u.Name, LoginID: u.LoginID, UserType: u.UserType,
		}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	svc := lifecycle.New(inq, users, lifecycle.Options{Links: linkstore.NewMemStore()})
	iv, err := intake.New()
	if err != nil {
		t.Fatalf("intake.New: %v", err)
	}
	names := namecache.New(namecache.NewMemory(64, time.Minute), users, zap.NewNop())
	h := inquiries.NewHandler(svc, iv, names, nil, zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/inquiries", inquiries.Routes(h, limit))
	return &env{t: t, router: r, handler: h, inq: inq}
}

func (e *env) do(req *http.Request, user *testutil.TestUser) *testutil.ResponseRecorder {
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) seed(status models.InquiryStatus, owner, volunteer string) string {
	e.t.Helper()
	q := models.Inquiry{ID: "inq-" + string(status) + owner + volunteer, Status: status, City: "Maribor", Address: "Glavni trg 1"}
	if owner != "" {
		q.CoordinatorID = &owner
	}
	if volunteer != "" {
		q.AssignedVolunteers = models.AssignVolunteer(volunteer)
	}
	saved, err := e.inq.Insert(context.Background(), q)
	if err != nil {
		e.t.Fatalf("seed inquiry: %v", err)
	}
	return saved.ID
}

type inquiryBody struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	Address            string   `json:"address"`
	CoordinatorID      *string  `json:"coordinator_id"`
	AssignedVolunteers []string `json:"assigned_volunteers"`
	NeedsGeocode       bool     `json:"needs_geocode"`
	CoordinatorName    string   `json:"coordinator_name"`
	VolunteerName      string   `json:"volunteer_name"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Fields  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

func TestCreate_Anonymous(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(testutil.NewJSONRequest("POST", "/inquiries", map[string]any{
		"address":   "<b>Tržaška 5</b>",
		"city":      "Ljubljana",
		"full_name": "Mojca",
	}), nil)
	rec.AssertStatus(t, http.StatusCreated)

	var got inquiryBody
	rec.DecodeJSON(t, &got)
	if got.ID == "" || got.Status != "link_sent" {
		t.Errorf("got %+v", got)
	}
	if got.Address != "Tržaška 5" {
		t.Errorf("address = %q, want markup stripped", got.Address)
	}
	if got.CoordinatorID != nil {
		t.Error("anonymous intake must be unowned")
	}
	if !got.NeedsGeocode {
		t.Error("with no geocoder configured the inquiry needs a geocode")
	}
	if len(got.AssignedVolunteers) != 0 {
		t.Errorf("assigned_volunteers = %v", got.AssignedVolunteers)
	}
}

func TestCreate_OnBehalf(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(testutil.NewJSONRequest("POST", "/inquiries", map[string]any{
		"address": "Tržaška 5", "city": "Ljubljana", "on_behalf": true,
	}), &ana)
	rec.AssertStatus(t, http.StatusCreated)

	var got inquiryBody
	rec.DecodeJSON(t, &got)
	if got.CoordinatorID == nil || *got.CoordinatorID != "A" || got.CoordinatorName != "Ana" {
		t.Errorf("got %+v", got)
	}
}

func TestCreate_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing city", map[string]any{"address": "Tržaška 5"}, "city"},
		{"blank after sanitize", map[string]any{"address": "<i></i>", "city": "Ljubljana"}, "address"},
		{"bad status", map[string]any{"address": "a", "city": "b", "status": "closed"}, "status"},
		{"bad phone", map[string]any{"address": "a", "city": "b", "phone_number": "call me"}, "phone_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)
			rec := e.do(testutil.NewJSONRequest("POST", "/inquiries", tt.body), nil)
			rec.AssertStatus(t, http.StatusBadRequest)
			var got errorBody
			rec.DecodeJSON(t, &got)
			found := false
			for _, f := range got.Fields {
				// required-property errors name the field in the message
				if strings.Contains(f.Field+" "+f.Message, tt.field) {
					found = true
				}
			}
			if got.Error != "validation" || !found {
				t.Errorf("got %+v, want a %s field error", got, tt.field)
			}
		})
	}
}

func TestCreate_RateLimited(t *testing.T) {
	lim := ratelimit.New(1, time.Minute)
	t.Cleanup(lim.Stop)
	e := newEnv(t, lim.Middleware(nil))

	body := map[string]any{"address": "a", "city": "b"}
	e.do(testutil.NewJSONRequest("POST", "/inquiries", body), nil).AssertStatus(t, http.StatusCreated)
	rec := e.do(testutil.NewJSONRequest("POST", "/inquiries", body), nil)
	rec.AssertStatus(t, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestRouteGuards(t *testing.T) {
	e := newEnv(t, nil)
	id := e.seed(models.StatusFormFilled, "", "")

	tests := []struct {
		name   string
		method string
		path   string
		user   *testutil.TestUser
		want   int
	}{
		{"list anonymous", "GET", "/inquiries", nil, http.StatusUnauthorized},
		{"claim anonymous", "POST", "/inquiries/" + id + "/claim", nil, http.StatusUnauthorized},
		{"claim volunteer", "POST", "/inquiries/" + id + "/claim", &vida, http.StatusForbidden},
		{"history volunteer", "GET", "/inquiries/" + id + "/history", &vida, http.StatusForbidden},
		{"status anonymous", "POST", "/inquiries/" + id + "/status", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.do(testutil.NewJSONRequest(tt.method, tt.path, nil), tt.user).AssertStatus(t, tt.want)
		})
	}
}

func TestClaimRelease(t *testing.T) {
	e := newEnv(t, nil)
	id := e.seed(models.StatusFormFilled, "", "")

	rec := e.do(testutil.NewJSONRequest("POST", "/inquiries/"+id+"/claim", nil), &ana)
	rec.AssertStatus(t, http.StatusOK)
	var got inquiryBody
	rec.DecodeJSON(t, &got)
	if got.CoordinatorName != "Ana" {
		t.Errorf("coordinator_name = %q", got.CoordinatorName)
	}

	rec = e.do(testutil.NewJSONRequest("POST", "/inquiries/"+id+"/claim", nil), &bor)
	rec.AssertStatus(t, http.StatusConflict)
	var eb errorBody
	rec.DecodeJSON(t, &eb)
	if eb.Error != "conflict" {
		t.Errorf("error = %q", eb.Error)
	}

	e.do(testutil.NewJSONRequest("POST", "/inquiries/"+id+"/release", nil), &bor).AssertStatus(t, http.StatusForbidden)
	e.do(testutil.NewJSONRequest("POST", "/inquiries/"+id+"/release", nil), &ana).AssertStatus(t, http.StatusOK)
	e.do(testutil.NewJSONRequest("POST", "/inquiries/"+id+"/release", nil), &ana).AssertStatus(t, http.StatusUnprocessableEntity)
	e.do(testutil.NewJSONRequest("POST", "/inquiries/missing/claim", nil), &ana).AssertStatus(t, http.StatusNotFound)
}

func TestVolunteerAndStatus(t *testing.T) {
	e := newEnv(t, nil)
	id := e.seed(models.StatusFormFilled, "", "")
	base := "/inquiries/" + id

	// assigning a volunteer requires one first
	e.do(testutil.NewJSONRequest("POST", base+"/status", map[string]any{"status": "volunteer_en_route"}), &ana).
		AssertStatus(t, http.StatusPreconditionFailed)

	rec := e.do(testutil.NewJSONRequest("POST", base+"/volunteer", map[string]any{"volunteer_id": "vol-1"}), &ana)
	rec.AssertStatus(t, http.StatusOK)
	var got inquiryBody
	rec.DecodeJSON(t, &got)
	if got.Status != "volunteer_assigned" || got.VolunteerName != "Vida" || got.CoordinatorName != "Ana" {
		t.Errorf("after reassign: %+v", got)
	}

	e.do(testutil.NewJSONRequest("POST", base+"/volunteer", map[string]any{"volunteer_id": "B"}), &ana).
		AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.NewJSONRequest("POST", base+"/volunteer", map[string]any{"volunteer_id": "vol-1"}), &bor).
		AssertStatus(t, http.StatusForbidden)

	// the assigned volunteer may move the inquiry forward
	e.do(testutil.NewJSONRequest("POST", base+"/status", map[string]any{"status": "volunteer_en_route"}), &vida).
		AssertStatus(t, http.StatusOK)
	e.do(testutil.NewJSONRequest("POST", base+"/status", map[string]any{"status": "treatment_done"}), &vid).
		AssertStatus(t, http.StatusForbidden)

	e.do(testutil.NewJSONRequest("POST", base+"/status", map[string]any{"status": "form_filled"}), &ana).
		AssertStatus(t, http.StatusPreconditionFailed)
	rec = e.do(testutil.NewJSONRequest("POST", base+"/status", map[string]any{"status": "form_filled", "confirm_unassign": true}), &ana)
	rec.AssertStatus(t, http.StatusOK)
	got = inquiryBody{}
	rec.DecodeJSON(t, &got)
	if got.Status != "form_filled" || len(got.AssignedVolunteers) != 0 || got.VolunteerName != "" {
		t.Errorf("after backward move: %+v", got)
	}

	e.do(testutil.NewJSONRequest("POST", base+"/status", map[string]any{"status": "sleeping"}), &ana).
		AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.NewJSONRequest("POST", base+"/status", map[string]any{"bogus": 1}), &ana).
		AssertStatus(t, http.StatusBadRequest)
}

func TestClosureReason(t *testing.T) {
	e := newEnv(t, nil)
	open := e.seed(models.StatusTreatmentDone, "A", "vol-1")
	closed := e.seed(models.StatusClosed, "A", "vol-1")

	var resp struct {
		Applied bool        `json:"applied"`
		Inquiry inquiryBody `json:"inquiry"`
	}
	rec := e.do(testutil.NewJSONRequest("POST", "/inquiries/"+open+"/closure-reason", map[string]any{"closure_reason": "swarm_collected"}), &ana)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &resp)
	if resp.Applied {
		t.Error("reason on an open inquiry must be ignored")
	}

	rec = e.do(testutil.NewJSONRequest("POST", "/inquiries/"+closed+"/closure-reason", map[string]any{"closure_reason": "swarm_collected"}), &ana)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &resp)
	if !resp.Applied || resp.Inquiry.ID != closed {
		t.Errorf("got %+v", resp)
	}

	e.do(testutil.NewJSONRequest("POST", "/inquiries/"+closed+"/closure-reason", map[string]any{"closure_reason": "bears"}), &ana).
		AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.NewJSONRequest("POST", "/inquiries/"+closed+"/closure-reason", map[string]any{"closure_reason": "other"}), &bor).
		AssertStatus(t, http.StatusForbidden)
	e.do(testutil.NewJSONRequest("POST", "/inquiries/"+closed+"/status", map[string]any{"status": "link_sent"}), &ana).
		AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestListAndView(t *testing.T) {
	e := newEnv(t, nil)
	unowned := e.seed(models.StatusFormFilled, "", "")
	mine := e.seed(models.StatusVolunteerAssigned, "A", "vol-1")
	theirs := e.seed(models.StatusVolunteerAssigned, "B", "vol-2")

	ids := func(rec *testutil.ResponseRecorder) map[string]bool {
		var body struct {
			Inquiries []inquiryBody `json:"inquiries"`
		}
		rec.DecodeJSON(t, &body)
		out := map[string]bool{}
		for _, q := range body.Inquiries {
			out[q.ID] = true
		}
		return out
	}

	got := ids(e.do(testutil.NewJSONRequest("GET", "/inquiries", nil), &ana))
	if !got[unowned] || !got[mine] || got[theirs] {
		t.Errorf("coordinator sees %v", got)
	}
	got = ids(e.do(testutil.NewJSONRequest("GET", "/inquiries?unowned=true", nil), &ana))
	if len(got) != 1 || !got[unowned] {
		t.Errorf("unowned filter: %v", got)
	}
	got = ids(e.do(testutil.NewJSONRequest("GET", "/inquiries", nil), &vida))
	if len(got) != 1 || !got[mine] {
		t.Errorf("volunteer sees %v", got)
	}

	e.do(testutil.NewJSONRequest("GET", "/inquiries?unowned=maybe", nil), &ana).AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.NewJSONRequest("GET", "/inquiries?status=sleeping", nil), &ana).AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.NewJSONRequest("GET", "/inquiries/"+mine, nil), &vida).AssertStatus(t, http.StatusOK)
	e.do(testutil.NewJSONRequest("GET", "/inquiries/"+theirs, nil), &vida).AssertStatus(t, http.StatusForbidden)
	e.do(testutil.NewJSONRequest("GET", "/inquiries/nope", nil), &ana).AssertStatus(t, http.StatusNotFound)
}

func TestTransitionPreview(t *testing.T) {
	e := newEnv(t, nil)
	id := e.seed(models.StatusVolunteerAssigned, "A", "vol-1")

	var p lifecycle.Preview
	rec := e.do(testutil.NewJSONRequest("GET", "/inquiries/"+id+"/transition?to=link_sent", nil), &ana)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &p)
	if !p.Allowed || !p.ClearsAssignment || !p.ConfirmationRequired {
		t.Errorf("preview = %+v", p)
	}

	e.do(testutil.NewJSONRequest("GET", "/inquiries/"+id+"/transition", nil), &ana).AssertStatus(t, http.StatusBadRequest)
}

func TestHistory(t *testing.T) {
	e := newEnv(t, nil)
	id := e.seed(models.StatusFormFilled, "A", "")

	e.do(testutil.NewJSONRequest("GET", "/inquiries/"+id+"/history", nil), &ana).AssertStatus(t, http.StatusNotFound)

	e.handler.History = &fakeHistory{events: []audit.Event{
		{EventType: lifecycle.OpClaim, InquiryID: id, ActorID: "A", Success: true, Timestamp: time.Now()},
		{EventType: lifecycle.OpClaim, InquiryID: id, ActorID: "B", FailureReason: "conflict: already owned"},
	}}
	rec := e.do(testutil.NewJSONRequest("GET", "/inquiries/"+id+"/history", nil), &ana)
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Total  int64 `json:"total"`
		Events []struct {
			Op        string `json:"op"`
			ActorName string `json:"actor_name"`
			Success   bool   `json:"success"`
		} `json:"events"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 2 || body.Total != 2 || body.Events[0].ActorName != "Ana" || body.Events[1].Success {
		t.Errorf("body = %+v", body)
	}

	// A short page still reports the full total.
	rec = e.do(testutil.NewJSONRequest("GET", "/inquiries/"+id+"/history?limit=1", nil), &ana)
	rec.AssertStatus(t, http.StatusOK)
	body.Events = nil
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 1 || body.Total != 2 {
		t.Errorf("paged body = %+v", body)
	}

	e.do(testutil.NewJSONRequest("GET", "/inquiries/unknown/history", nil), &ana).AssertStatus(t, http.StatusNotFound)

	e.handler.History = &fakeHistory{err: errors.New("cursor died")}
	e.do(testutil.NewJSONRequest("GET", "/inquiries/"+id+"/history", nil), &ana).AssertStatus(t, http.StatusInternalServerError)
}
