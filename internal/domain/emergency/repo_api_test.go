package emergency

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/apiclient"
	"github.com/relief/relief/pkg/geo"
)

func newAPIRepo(t *testing.T, h http.HandlerFunc) RequestRepository {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRequestRepoAPI(apiclient.New(apiclient.Config{BaseURL: srv.URL}, zerolog.Nop()))
}

func TestRepoAPI_CreateScenario(t *testing.T) {
	var (
		path string
		raw  map[string]json.RawMessage
	)
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &raw)
		w.Write([]byte(`{"statusCode":201,"message":"created","data":{"request":{"_id":"6844aea7660042c582c83f04"}},"success":true}`))
	})

	svc := NewService(repo, nil, geo.Static(pointPtr(19.7942, 76.9749)), zerolog.Nop())
	created, err := svc.Create(context.Background(), CreateInput{
		ForSelf:            true,
		PatientName:        "Test Patient",
		PatientPhoneNumber: "9876543210",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path != "/emergency/patient/create_emergency_request" {
		t.Errorf("unexpected path %s", path)
	}
	if string(raw["forSelf"]) != "true" {
		t.Errorf("expected forSelf true, got %s", raw["forSelf"])
	}
	var loc struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw["location"], &loc); err != nil {
		t.Fatalf("decode location: %v", err)
	}
	if loc.Type != "Point" || len(loc.Coordinates) != 2 || loc.Coordinates[0] != 19.7942 || loc.Coordinates[1] != 76.9749 {
		t.Errorf("expected coordinates [19.7942, 76.9749], got %s", raw["location"])
	}
	if created.ID != "6844aea7660042c582c83f04" {
		t.Errorf("expected id from data.request._id, got %q", created.ID)
	}
}

func TestRepoAPI_CreateTopLevelID(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"_id":"6844aea7660042c582c83f05"}}`))
	})
	id, err := repo.Create(context.Background(), CreateBody{})
	if err != nil || id != "6844aea7660042c582c83f05" {
		t.Errorf("Create() = %q, %v", id, err)
	}
}

const finalizedResponse = `{
  "statusCode": 200,
  "message": "Accepted hospitals fetched successfully",
  "data": {
    "request": {
      "_id": "6844aea7660042c582c83f04",
      "forSelf": true,
      "patientName": "John Doe",
      "patientPhoneNumber": "9876543210",
      "photo": "",
      "location": {"type": "Point", "coordinates": [-74.0065, 40.713]},
      "acceptedBy": [
        {"_id": "6827a04ac6651dd2f13a8276", "name": "Sunrise Medical Center", "location": {"type": "Point", "coordinates": [-74.005974, 40.712776]},
         "phoneNumbers": [{"label": "primary", "number": "+1234567890", "_id": "6827a6126b88a3110e20775a"}],
         "bedData": [{"_id": "b1", "type": "General", "count": 50, "available": 30}],
         "bloodData": {"opos": 10, "oneg": 5, "apos": 8, "aneg": 4, "bpos": 7, "bneg": 3, "abpos": 2, "abneg": 1},
         "address": {"locality": "Jamohan Nagar", "city": "Bhubaneswar", "state": "Odisha", "pincode": "751030"},
         "is_ambulance_available": false, "is_blood_available": true},
        {"_id": "6827a04ac6651dd2f13a8277", "name": "Lakeside Hospital"}
      ],
      "finalizedHospital": {"_id": "6827a04ac6651dd2f13a8276", "name": "Sunrise Medical Center", "location": {"type": "Point", "coordinates": [-74.005974, 40.712776]}},
      "status": "finalized",
      "is_ambulance_required": true,
      "createdAt": "2025-06-07T21:27:03.743Z",
      "updatedAt": "2025-06-07T21:27:58.083Z"
    }
  },
  "success": true
}`

func TestRepoAPI_GetFinalizedScenario(t *testing.T) {
	var path string
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(finalizedResponse))
	})

	req, err := repo.Get(context.Background(), "6844aea7660042c582c83f04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/emergency/patient/get_hospital_responses/6844aea7660042c582c83f04/" {
		t.Errorf("unexpected path %s", path)
	}

	detail := NewDetail(req)
	if len(detail.Hospitals) != 1 {
		t.Fatalf("expected exactly one hospital card, got %d", len(detail.Hospitals))
	}
	if detail.Hospitals[0].Hospital.Name != "Sunrise Medical Center" {
		t.Errorf("expected the finalized hospital, got %s", detail.Hospitals[0].Hospital.Name)
	}
	for _, a := range detail.Actions {
		if a == ActionFinalize {
			t.Error("finalize must not be offered once a hospital is finalized")
		}
	}
	if req.AcceptedBy[0].Address.String() != "Jamohan Nagar, Bhubaneswar, Odisha - 751030" {
		t.Errorf("unexpected address %q", req.AcceptedBy[0].Address.String())
	}
}

func TestRepoAPI_Mutations(t *testing.T) {
	type call struct {
		path, contentType string
		body              []byte
	}
	var calls []call
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.URL.Path, r.Header.Get("Content-Type"), b})
		w.Write([]byte(`{"success":true}`))
	})

	ctx := context.Background()
	if err := repo.Finalize(ctx, testRequestID, testHospitalA); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := repo.Cancel(ctx, testRequestID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if calls[0].path != "/emergency/patient/finalize_emergency_request/"+testRequestID {
		t.Errorf("unexpected finalize path %s", calls[0].path)
	}
	var finalize map[string]string
	if err := json.Unmarshal(calls[0].body, &finalize); err != nil || finalize["hospitalId"] != testHospitalA {
		t.Errorf("unexpected finalize body %s", calls[0].body)
	}
	if calls[0].contentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", calls[0].contentType)
	}
	if calls[1].path != "/emergency/patient/cancel_emergency_request/"+testRequestID {
		t.Errorf("unexpected cancel path %s", calls[1].path)
	}
	if len(calls[1].body) != 0 {
		t.Errorf("cancel must send no body, got %s", calls[1].body)
	}
}

func TestRepoAPI_ListShapes(t *testing.T) {
	for name, payload := range map[string]string{
		"bare":    `{"data":[{"_id":"a","patientName":"John","status":"pending"}]}`,
		"wrapped": `{"data":{"requests":[{"_id":"a","patientName":"John","status":"pending"}]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			var sent map[string]string
			repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&sent)
				w.Write([]byte(payload))
			})
			items, err := repo.ListByStatus(context.Background(), StatusPending)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != 1 || items[0].PatientName != "John" {
				t.Errorf("unexpected items %+v", items)
			}
			if sent["status"] != "pending" {
				t.Errorf("expected status filter in body, got %v", sent)
			}
		})
	}
}
