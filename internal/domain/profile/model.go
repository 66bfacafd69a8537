package profile

import (
	"fmt"

	"github.com/relief/relief/pkg/geo"
)

// Profile is the patient document returned by the backend.
type Profile struct {
	ID                string         `json:"_id,omitempty"`
	Name              string         `json:"name"`
	PhoneNumber       string         `json:"phoneNumber"`
	DOB               string         `json:"dob,omitempty"`
	Age               int            `json:"age,omitempty"`
	BloodGroup        string         `json:"bloodGroup,omitempty"`
	AadharNumber      string         `json:"aadharNumber,omitempty"`
	Address           Address        `json:"address"`
	Location          *geo.Point     `json:"location,omitempty"`
	EmergencyContacts []Contact      `json:"emergencyContacts"`
	MedicalHistory    MedicalHistory `json:"medicalHistory"`
}

type Address struct {
	Locality string `json:"locality"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// PersonalUpdate is the editable personal-information subset. Coordinates
// are [lat, lng]; nil means "not known" and is sent as [0, 0].
type PersonalUpdate struct {
	Name         string      `json:"name"`
	PhoneNumber  string      `json:"phoneNumber"`
	DOB          string      `json:"dob"`
	BloodGroup   string      `json:"bloodGroup"`
	AadharNumber string      `json:"aadharNumber"`
	Address      Address     `json:"address"`
	Coordinates  *[2]float64 `json:"coordinates,omitempty"`
}

type PersonalBody struct {
	Name         string     `json:"name"`
	PhoneNumber  string     `json:"phoneNumber"`
	DOB          string     `json:"dob"`
	BloodGroup   string     `json:"bloodGroup"`
	AadharNumber string     `json:"aadharNumber"`
	Address      Address    `json:"address"`
	Coordinates  [2]float64 `json:"coordinates"`
}

// -- Emergency contacts --

var Relationships = []string{"Father", "Mother", "Spouse", "Sibling", "Child", "Friend", "Other"}

type Contact struct {
	ID           string `json:"_id,omitempty"`
	Name         string `json:"name"`
	PhoneNumber  string `json:"phoneNumber"`
	Email        string `json:"email,omitempty"`
	Relationship string `json:"relationship"`
}

// -- Medical history --

type MedicalHistory struct {
	Diseases  []Disease `json:"diseases"`
	Allergies []Allergy `json:"allergies"`
	Injuries  []Injury  `json:"injuries"`
}

// Kind names a medical history section; it is also the backend path segment.
type Kind string

const (
	KindDisease Kind = "disease"
	KindAllergy Kind = "allergy"
	KindInjury  Kind = "injury"
)

var Kinds = []string{string(KindDisease), string(KindAllergy), string(KindInjury)}

func (k Kind) Title() string {
	switch k {
	case KindDisease:
		return "Disease"
	case KindAllergy:
		return "Allergy"
	case KindInjury:
		return "Injury"
	default:
		return string(k)
	}
}

// HistoryItem is one medical history entry. An entry with an id updates the
// existing item; one without creates a new item.
type HistoryItem interface {
	Kind() Kind
	ItemID() string
}

type Disease struct {
	ID         string `json:"_id,omitempty"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Medication string `json:"medication,omitempty"`
}

var DiseaseStatuses = []string{"current", "earlier"}

func (Disease) Kind() Kind       { return KindDisease }
func (d Disease) ItemID() string { return d.ID }

type Allergy struct {
	ID         string `json:"_id,omitempty"`
	Reason     string `json:"reason"`
	Symptoms   string `json:"symptoms,omitempty"`
	Medication string `json:"medication,omitempty"`
}

func (Allergy) Kind() Kind       { return KindAllergy }
func (a Allergy) ItemID() string { return a.ID }

type Injury struct {
	ID          string `json:"_id,omitempty"`
	BodyPart    string `json:"body_part"`
	Surgery     bool   `json:"surgery"`
	Stitches    bool   `json:"stitches"`
	Recovered   bool   `json:"recovered"`
	InjuryYear  int    `json:"injury_year,omitempty"`
	SurgeryYear int    `json:"surgery_year,omitempty"`
}

func (Injury) Kind() Kind       { return KindInjury }
func (i Injury) ItemID() string { return i.ID }

// NewHistoryItem returns an empty item of the given kind, ready for decoding.
func NewHistoryItem(kind Kind) (HistoryItem, error) {
	switch kind {
	case KindDisease:
		return &Disease{}, nil
	case KindAllergy:
		return &Allergy{}, nil
	case KindInjury:
		return &Injury{}, nil
	default:
		return nil, fmt.Errorf("unknown medical history kind %q", kind)
	}
}
