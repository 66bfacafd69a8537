package emergency

// HospitalCard is one hospital as presented to the patient.
type HospitalCard struct {
	Hospital      Hospital    `json:"hospital"`
	Actions       []Action    `json:"actions"`
	NavigationURL string      `json:"navigationUrl,omitempty"`
	BloodUnits    []BloodUnit `json:"bloodUnits,omitempty"`
}

// Detail is a snapshot plus everything derived from it for display.
type Detail struct {
	Request   *Request       `json:"request"`
	Actions   []Action       `json:"actions"`
	Hospitals []HospitalCard `json:"hospitals"`
}

func NewDetail(r *Request) *Detail {
	d := &Detail{
		Request:   r,
		Actions:   ActionsFor(r).List(),
		Hospitals: []HospitalCard{},
	}
	for _, h := range HospitalsToDisplay(r) {
		h := h
		card := HospitalCard{
			Hospital: h,
			Actions:  HospitalActions(r, &h).List(),
		}
		if card.hasAction(ActionNavigate) {
			card.NavigationURL, _ = NavigationURL(&h)
		}
		if h.BloodData != nil {
			card.BloodUnits = h.BloodData.Units()
		}
		d.Hospitals = append(d.Hospitals, card)
	}
	return d
}

func (c HospitalCard) hasAction(a Action) bool {
	for _, x := range c.Actions {
		if x == a {
			return true
		}
	}
	return false
}
