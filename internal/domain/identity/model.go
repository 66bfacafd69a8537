package identity

import "github.com/relief/relief/internal/platform/auth"

// Role is sent with every login and registration; this client only ever
// acts as a patient.
const Role = "patient"

// DateLayout is the wire and input format of a date of birth.
const DateLayout = "2006-01-02"

type LoginInput struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type RegisterInput struct {
	Name            string `json:"name"`
	PhoneNumber     string `json:"phoneNumber"`
	DOB             string `json:"dob"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginBody struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

type RegisterBody struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	DOB         string `json:"dob"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// User is the account as the backend reports it after login or registration.
type User struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role,omitempty"`
}

func (u *User) identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Name: u.Name, PhoneNumber: u.PhoneNumber}
}
