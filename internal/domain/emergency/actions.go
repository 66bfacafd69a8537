package emergency

import (
	"fmt"
	"sort"
	"strconv"
)

// Action is a user-triggerable operation on a request.
type Action string

const (
	ActionFinalize    Action = "finalize"
	ActionCancel      Action = "cancel"
	ActionUploadPhoto Action = "upload_photo"
	ActionViewPhoto   Action = "view_photo"
	ActionNavigate    Action = "navigate"
)

// ActionSet is an unordered set of actions.
type ActionSet map[Action]struct{}

func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// List returns the actions in a stable order.
func (s ActionSet) List() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllowedActions is the request-level gate. Finalize and Navigate are
// further narrowed per hospital by HospitalActions.
func AllowedActions(status Status, hasFinalizedHospital, hasPhoto bool) ActionSet {
	set := ActionSet{}
	if status == StatusAccepted && !hasFinalizedHospital {
		set[ActionFinalize] = struct{}{}
	}
	if !status.IsTerminal() {
		set[ActionCancel] = struct{}{}
	}
	if hasPhoto {
		set[ActionViewPhoto] = struct{}{}
	} else {
		set[ActionUploadPhoto] = struct{}{}
	}
	if status == StatusAccepted || status == StatusFinalized {
		set[ActionNavigate] = struct{}{}
	}
	return set
}

// ActionsFor applies AllowedActions to a snapshot.
func ActionsFor(r *Request) ActionSet {
	return AllowedActions(r.Status, r.HasFinalizedHospital(), r.HasPhoto())
}

// HospitalActions narrows the request-level set to what applies to one
// hospital card.
func HospitalActions(r *Request, h *Hospital) ActionSet {
	all := ActionsFor(r)
	set := ActionSet{}
	if all.Has(ActionFinalize) {
		if _, ok := r.AcceptedHospital(h.ID); ok {
			set[ActionFinalize] = struct{}{}
		}
	}
	if all.Has(ActionNavigate) && h.HasCoordinates() {
		set[ActionNavigate] = struct{}{}
	}
	return set
}

// HospitalsToDisplay returns the finalized hospital alone once one is
// chosen, and the accepting hospitals otherwise.
func HospitalsToDisplay(r *Request) []Hospital {
	if r.Status == StatusFinalized && r.HasFinalizedHospital() {
		return []Hospital{*r.FinalizedHospital}
	}
	return r.AcceptedBy
}

// NavigationURL builds a driving-directions link to h. Coordinates are used
// in the order the backend stores them.
func NavigationURL(h *Hospital) (string, error) {
	if !h.HasCoordinates() {
		return "", ErrNoCoordinates
	}
	c := h.Location.Coordinates
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%s,%s&travelmode=driving",
		strconv.FormatFloat(c[0], 'f', -1, 64),
		strconv.FormatFloat(c[1], 'f', -1, 64)), nil
}
