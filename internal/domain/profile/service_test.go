package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/validation"
)

const testContactID = "6827a6126b88a3110e20775a"

// -- Mock Repository --

type mockRepo struct {
	profile   *Profile
	personal  []PersonalBody
	contacts  []Contact
	updated   map[string]Contact
	deleted   []string
	history   []HistoryItem
	removed   []string
	gets      int
	getErr    error
	mutateErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		profile: &Profile{ID: "p1", Name: "Asha", PhoneNumber: "9876543210"},
		updated: make(map[string]Contact),
	}
}

func (m *mockRepo) Get(context.Context) (*Profile, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	cp := *m.profile
	return &cp, nil
}

func (m *mockRepo) UpdatePersonal(_ context.Context, body PersonalBody) error {
	if m.mutateErr != nil {
		return m.mutateErr
	}
	m.personal = append(m.personal, body)
	m.profile.Name = body.Name
	return nil
}

func (m *mockRepo) AddContact(_ context.Context, c Contact) error {
	if m.mutateErr != nil {
		return m.mutateErr
	}
	m.contacts = append(m.contacts, c)
	m.profile.EmergencyContacts = append(m.profile.EmergencyContacts, c)
	return nil
}

func (m *mockRepo) UpdateContact(_ context.Context, id string, c Contact) error {
	m.updated[id] = c
	return m.mutateErr
}

func (m *mockRepo) DeleteContact(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.mutateErr
}

func (m *mockRepo) SaveHistory(_ context.Context, item HistoryItem) error {
	m.history = append(m.history, item)
	return m.mutateErr
}

func (m *mockRepo) DeleteHistory(_ context.Context, kind Kind, id string) error {
	m.removed = append(m.removed, string(kind)+"/"+id)
	return m.mutateErr
}

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC) }
	return svc
}

func validPersonal() PersonalUpdate {
	return PersonalUpdate{
		Name:        "Asha Rao",
		PhoneNumber: "9876543210",
		DOB:         "1990-04-12",
		BloodGroup:  "O+",
		Address:     Address{Locality: "Jamohan Nagar", City: "Bhubaneswar", State: "Odisha", Pincode: "751030"},
	}
}

// -- Personal information --

func TestService_UpdatePersonal_DefaultsCoordinates(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	out, err := svc.UpdatePersonal(context.Background(), validPersonal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.personal[0].Coordinates != [2]float64{0, 0} {
		t.Errorf("expected [0,0] coordinates, got %v", repo.personal[0].Coordinates)
	}
	if out.Profile == nil || out.Profile.Name != "Asha Rao" {
		t.Errorf("expected re-fetched profile, got %+v", out.Profile)
	}
	if repo.gets != 1 {
		t.Errorf("expected one re-fetch, got %d", repo.gets)
	}
}

func TestService_UpdatePersonal_KeepsCoordinates(t *testing.T) {
	repo := newMockRepo()
	in := validPersonal()
	in.Coordinates = &[2]float64{20.2961, 85.8245}

	if _, err := newTestService(repo).UpdatePersonal(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.personal[0].Coordinates != [2]float64{20.2961, 85.8245} {
		t.Errorf("unexpected coordinates %v", repo.personal[0].Coordinates)
	}
}

func TestService_UpdatePersonal_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*PersonalUpdate)
		field string
	}{
		{"blood group", func(in *PersonalUpdate) { in.BloodGroup = "C+" }, "bloodGroup"},
		{"aadhar", func(in *PersonalUpdate) { in.AadharNumber = "1234" }, "aadharNumber"},
		{"phone", func(in *PersonalUpdate) { in.PhoneNumber = "12" }, "phoneNumber"},
		{"name", func(in *PersonalUpdate) { in.Name = "" }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			in := validPersonal()
			tt.edit(&in)
			_, err := newTestService(repo).UpdatePersonal(context.Background(), in)
			ve, ok := validation.As(err)
			if !ok || ve.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
			if len(repo.personal) != 0 {
				t.Error("invalid input must not reach the backend")
			}
		})
	}
}

func TestService_RefetchFailureKeepsNotice(t *testing.T) {
	repo := newMockRepo()
	repo.getErr = errors.New("backend down")

	out, err := newTestService(repo).UpdatePersonal(context.Background(), validPersonal())
	if err != nil {
		t.Fatalf("mutation succeeded, expected no error, got %v", err)
	}
	if out.Profile != nil {
		t.Error("expected no profile when the re-fetch fails")
	}
	if out.Notice.Title != "Personal Information Updated" {
		t.Errorf("unexpected notice %+v", out.Notice)
	}
}

// -- Contacts --

func TestService_Contacts(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	c := Contact{Name: "Ravi", PhoneNumber: "9123456789", Relationship: "Sibling", Email: "ravi@example.com"}

	out, err := svc.AddContact(ctx, c)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(out.Profile.EmergencyContacts) != 1 {
		t.Errorf("expected contact in re-fetched profile")
	}
	if _, err := svc.UpdateContact(ctx, testContactID, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := repo.updated[testContactID]; !ok {
		t.Error("expected update by path id")
	}
	if _, err := svc.DeleteContact(ctx, testContactID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.DeleteContact(ctx, "not-an-id"); err == nil {
		t.Error("expected invalid id to be rejected")
	}
}

func TestService_Contacts_Validation(t *testing.T) {
	tests := []struct {
		name  string
		c     Contact
		field string
	}{
		{"relationship", Contact{Name: "Ravi", PhoneNumber: "9123456789", Relationship: "Cousin"}, "relationship"},
		{"email", Contact{Name: "Ravi", PhoneNumber: "9123456789", Relationship: "Friend", Email: "nope"}, "email"},
		{"phone", Contact{Name: "Ravi", PhoneNumber: "91234", Relationship: "Friend"}, "phoneNumber"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			_, err := newTestService(repo).AddContact(context.Background(), tt.c)
			ve, ok := validation.As(err)
			if !ok || ve.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
			if len(repo.contacts) != 0 {
				t.Error("invalid contact must not reach the backend")
			}
		})
	}
}

// -- Medical history --

func TestService_SaveHistory(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	out, err := svc.SaveHistory(ctx, &Disease{Name: "Asthma", Status: "current"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Notice.Title != "Disease Added" {
		t.Errorf("unexpected notice %q", out.Notice.Title)
	}

	out, err = svc.SaveHistory(ctx, Allergy{ID: testContactID, Reason: "Peanuts"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Notice.Title != "Allergy Updated" {
		t.Errorf("unexpected notice %q", out.Notice.Title)
	}
	if len(repo.history) != 2 {
		t.Errorf("expected two saves, got %d", len(repo.history))
	}
}

func TestService_SaveHistory_Validation(t *testing.T) {
	tests := []struct {
		name  string
		item  HistoryItem
		field string
	}{
		{"disease status", &Disease{Name: "Asthma", Status: "chronic"}, "status"},
		{"allergy reason", &Allergy{}, "reason"},
		{"injury part", &Injury{InjuryYear: 2020}, "body_part"},
		{"future injury", &Injury{BodyPart: "Knee", InjuryYear: 2030}, "injury_year"},
		{"surgery before injury", &Injury{BodyPart: "Knee", InjuryYear: 2020, Surgery: true, SurgeryYear: 2019}, "surgery_year"},
		{"bad item id", &Disease{ID: "x", Name: "Asthma", Status: "current"}, "itemId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			_, err := newTestService(repo).SaveHistory(context.Background(), tt.item)
			ve, ok := validation.As(err)
			if !ok || ve.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
			if len(repo.history) != 0 {
				t.Error("invalid entry must not reach the backend")
			}
		})
	}
}

func TestService_DeleteHistory(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	out, err := svc.DeleteHistory(context.Background(), KindInjury, testContactID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Notice.Title != "Injury Deleted" || repo.removed[0] != "injury/"+testContactID {
		t.Errorf("unexpected outcome %+v / %v", out.Notice, repo.removed)
	}
	if _, err := svc.DeleteHistory(context.Background(), Kind("surgery"), testContactID); err == nil {
		t.Error("expected unknown kind to be rejected")
	}
}

func TestService_MutationFailure(t *testing.T) {
	repo := newMockRepo()
	boom := errors.New("500")
	repo.mutateErr = boom

	_, err := newTestService(repo).DeleteContact(context.Background(), testContactID)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
	if repo.gets != 0 {
		t.Error("no re-fetch expected after a failed mutation")
	}
}
