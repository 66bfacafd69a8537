package auth

// Requirement is the access rule attached to a route.
type Requirement int

const (
	// Public routes render for everyone.
	Public Requirement = iota
	// Protected routes need a login marker.
	Protected
	// AuthOnly routes (login, register) are for logged-out users only.
	AuthOnly
)

func (r Requirement) String() string {
	switch r {
	case Protected:
		return "protected"
	case AuthOnly:
		return "auth-only"
	default:
		return "public"
	}
}

// ParseRequirement maps a route annotation to a Requirement. Unknown values
// are treated as Public.
func ParseRequirement(s string) Requirement {
	switch s {
	case "protected":
		return Protected
	case "auth-only":
		return AuthOnly
	default:
		return Public
	}
}

// Decision is the outcome of the gate.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectAway
)

// Redirect targets.
const (
	LoginRoute = "/auth/login"
	HomeRoute  = "/"
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectAway:
		return "redirect-away"
	default:
		return "allow"
	}
}

// Target returns where the decision sends the user, or "" for Allow.
func (d Decision) Target() string {
	switch d {
	case RedirectToLogin:
		return LoginRoute
	case RedirectAway:
		return HomeRoute
	default:
		return ""
	}
}

// Decide applies the gate. It is pure; callers read the login marker once
// and pass the result in.
func Decide(req Requirement, loggedIn bool) Decision {
	switch {
	case req == Protected && !loggedIn:
		return RedirectToLogin
	case req == AuthOnly && loggedIn:
		return RedirectAway
	default:
		return Allow
	}
}
