package emergency

// Status is the request lifecycle state as reported by the backend.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusFinalized Status = "finalized"
	StatusResolved  Status = "resolved"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusPending, StatusAccepted, StatusFinalized, StatusResolved, StatusCancelled}

// transitions is the single source of truth for the lifecycle. The client
// never enforces it; the tracker only uses it to flag surprising updates.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusFinalized, StatusCancelled},
	StatusFinalized: {StatusResolved, StatusCancelled},
	StatusResolved:  nil,
	StatusCancelled: nil,
}

var statusLabels = map[Status]string{
	StatusPending:   "Pending",
	StatusAccepted:  "Accepted",
	StatusFinalized: "Finalized",
	StatusResolved:  "Resolved",
	StatusCancelled: "Cancelled",
}

// ParseStatus returns the Status named by s.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// CanTransition reports whether the table allows s -> next. Staying in the
// same status is always allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Label is the display name.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) String() string { return string(s) }

func statusNames() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}
