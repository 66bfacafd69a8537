package emergency

import (
	"fmt"
	"strings"
	"time"

	"github.com/relief/relief/pkg/geo"
)

// Request is the backend's snapshot of one emergency request. The client
// never edits it; every change comes from a fresh fetch.
type Request struct {
	ID                 string     `json:"_id"`
	CreatedBy          string     `json:"createdBy,omitempty"`
	ForSelf            bool       `json:"forSelf"`
	PatientName        string     `json:"patientName"`
	PatientPhoneNumber string     `json:"patientPhoneNumber"`
	Photo              string     `json:"photo,omitempty"`
	Location           *geo.Point `json:"location,omitempty"`
	AcceptedBy         []Hospital `json:"acceptedBy"`
	FinalizedHospital  *Hospital  `json:"finalizedHospital"`
	Status             Status     `json:"status"`
	AmbulanceRequired  bool       `json:"is_ambulance_required"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// HasPhoto reports whether a photo is attached.
func (r *Request) HasPhoto() bool { return r.Photo != "" }

// HasFinalizedHospital reports whether a hospital has been chosen.
func (r *Request) HasFinalizedHospital() bool {
	return r.FinalizedHospital != nil && r.FinalizedHospital.ID != ""
}

// AcceptedHospital looks up a hospital in acceptedBy by id.
func (r *Request) AcceptedHospital(id string) (*Hospital, bool) {
	for i := range r.AcceptedBy {
		if r.AcceptedBy[i].ID == id {
			return &r.AcceptedBy[i], true
		}
	}
	return nil, false
}

// Summary is one row of the request list.
type Summary struct {
	ID                 string    `json:"_id"`
	PatientName        string    `json:"patientName"`
	PatientPhoneNumber string    `json:"patientPhoneNumber,omitempty"`
	Status             Status    `json:"status"`
	ForSelf            bool      `json:"forSelf"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Hospital is a hospital snapshot embedded in a request.
type Hospital struct {
	ID                 string          `json:"_id"`
	Name               string          `json:"name"`
	LicenseNumber      string          `json:"licenseNumber,omitempty"`
	Type               string          `json:"type,omitempty"`
	Location           *geo.Point      `json:"location,omitempty"`
	AmbulanceAvailable bool            `json:"is_ambulance_available"`
	BloodAvailable     bool            `json:"is_blood_available"`
	PhoneNumbers       []PhoneNumber   `json:"phoneNumbers,omitempty"`
	BedData            []Bed           `json:"bedData,omitempty"`
	BloodData          *BloodInventory `json:"bloodData,omitempty"`
	Address            *Address        `json:"address,omitempty"`
}

// HasCoordinates reports whether the hospital can be navigated to.
func (h *Hospital) HasCoordinates() bool {
	return h.Location != nil && !h.Location.IsZero()
}

type PhoneNumber struct {
	ID     string `json:"_id,omitempty"`
	Label  string `json:"label"`
	Number string `json:"number"`
}

type Bed struct {
	ID        string `json:"_id,omitempty"`
	Type      string `json:"type"`
	Count     int    `json:"count"`
	Available int    `json:"available"`
}

// BloodInventory holds units per blood group, keyed the way the backend
// stores them.
type BloodInventory struct {
	OPos  int `json:"opos"`
	ONeg  int `json:"oneg"`
	APos  int `json:"apos"`
	ANeg  int `json:"aneg"`
	BPos  int `json:"bpos"`
	BNeg  int `json:"bneg"`
	ABPos int `json:"abpos"`
	ABNeg int `json:"abneg"`
}

// BloodUnit is one labelled row of a BloodInventory.
type BloodUnit struct {
	Group string `json:"group"`
	Units int    `json:"units"`
}

// Units lists the inventory with display labels, in a fixed order.
func (b BloodInventory) Units() []BloodUnit {
	return []BloodUnit{
		{"O+", b.OPos}, {"O-", b.ONeg},
		{"A+", b.APos}, {"A-", b.ANeg},
		{"B+", b.BPos}, {"B-", b.BNeg},
		{"AB+", b.ABPos}, {"AB-", b.ABNeg},
	}
}

type Address struct {
	Locality string `json:"locality,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Locality, a.City, a.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	s := strings.Join(parts, ", ")
	if a.Pincode != "" {
		s = fmt.Sprintf("%s - %s", s, a.Pincode)
	}
	return s
}

// CreateInput is what the caller supplies to raise a request. Location is
// optional; when nil the service asks its Locator.
type CreateInput struct {
	ForSelf            bool       `json:"forSelf"`
	PatientName        string     `json:"patientName"`
	PatientPhoneNumber string     `json:"patientPhoneNumber"`
	Location           *geo.Point `json:"location,omitempty"`
}

// CreateBody is the wire body for request creation.
type CreateBody struct {
	ForSelf            bool      `json:"forSelf"`
	PatientName        string    `json:"patientName"`
	PatientPhoneNumber string    `json:"patientPhoneNumber"`
	Location           geo.Point `json:"location"`
}
