package profile

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/apiclient"
)

type backendCall struct {
	method, path string
	body         map[string]any
}

func newAPIRepo(t *testing.T, response string) (Repository, *[]backendCall) {
	t.Helper()
	var calls []backendCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		call := backendCall{method: r.Method, path: r.URL.Path}
		if len(raw) > 0 {
			json.Unmarshal(raw, &call.body)
		}
		calls = append(calls, call)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewRepoAPI(apiclient.New(apiclient.Config{BaseURL: srv.URL}, zerolog.Nop())), &calls
}

func TestRepoAPI_GetProfile(t *testing.T) {
	repo, calls := newAPIRepo(t, `{"data":{"_id":"p1","name":"Asha","phoneNumber":"9876543210",
		"address":{"locality":"Jamohan Nagar","city":"Bhubaneswar","state":"Odisha","pincode":"751030"},
		"emergencyContacts":[{"_id":"c1","name":"Ravi","phoneNumber":"9123456789","relationship":"Sibling"}],
		"medicalHistory":{"diseases":[{"_id":"d1","name":"Asthma","status":"current"}],"allergies":[],"injuries":[{"_id":"i1","body_part":"Knee","injury_year":2019}]}}}`)

	p, err := repo.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (*calls)[0].path != "/users/patient/profile" {
		t.Errorf("unexpected path %s", (*calls)[0].path)
	}
	if p.Address.City != "Bhubaneswar" || len(p.EmergencyContacts) != 1 {
		t.Errorf("unexpected profile %+v", p)
	}
	if len(p.MedicalHistory.Injuries) != 1 || p.MedicalHistory.Injuries[0].BodyPart != "Knee" {
		t.Errorf("unexpected injuries %+v", p.MedicalHistory.Injuries)
	}
}

func TestRepoAPI_SaveHistory_ItemID(t *testing.T) {
	repo, calls := newAPIRepo(t, `{"success":true}`)
	ctx := context.Background()

	if err := repo.SaveHistory(ctx, &Disease{Name: "Asthma", Status: "current"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveHistory(ctx, &Disease{ID: "d1", Name: "Asthma", Status: "earlier"}); err != nil {
		t.Fatal(err)
	}

	create, update := (*calls)[0], (*calls)[1]
	if create.path != "/users/patient/medical-history/disease" {
		t.Errorf("unexpected path %s", create.path)
	}
	if _, ok := create.body["itemId"]; ok {
		t.Error("create must not carry itemId")
	}
	if update.body["itemId"] != "d1" {
		t.Errorf("expected itemId d1, got %v", update.body)
	}
	if _, ok := update.body["_id"]; ok {
		t.Error("_id must not be sent")
	}
}

func TestRepoAPI_ContactRoutes(t *testing.T) {
	repo, calls := newAPIRepo(t, `{"success":true}`)
	ctx := context.Background()

	repo.UpdateContact(ctx, "c1", Contact{ID: "c1", Name: "Ravi", PhoneNumber: "9123456789", Relationship: "Sibling"})
	repo.DeleteContact(ctx, "c1")
	repo.DeleteHistory(ctx, KindAllergy, "a1")
	repo.UpdatePersonal(ctx, PersonalBody{Name: "Asha"})

	want := []struct{ method, path string }{
		{http.MethodPut, "/users/patient/emergency-contacts/c1"},
		{http.MethodDelete, "/users/patient/emergency-contacts/c1"},
		{http.MethodDelete, "/users/patient/medical-history/allergy/a1"},
		{http.MethodPut, "/users/patient/update-profile/"},
	}
	for i, w := range want {
		if (*calls)[i].method != w.method || (*calls)[i].path != w.path {
			t.Errorf("call %d: got %s %s, want %s %s", i, (*calls)[i].method, (*calls)[i].path, w.method, w.path)
		}
	}
	if _, ok := (*calls)[0].body["_id"]; ok {
		t.Error("contact id belongs in the path, not the body")
	}
	coords, _ := (*calls)[3].body["coordinates"].([]any)
	if len(coords) != 2 {
		t.Errorf("expected coordinates array, got %v", (*calls)[3].body)
	}
}
