package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the client's cached copy of the logged-in user. It is a
// display convenience, never a source of authority.
type Identity struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

type markerClaims struct {
	jwt.RegisteredClaims
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phone,omitempty"`
}

// MarkerCodec signs and verifies the login marker. The signature only stops
// the marker from being forged locally; the backend still authorizes every
// call on its own credentials.
type MarkerCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewMarkerCodec(secret string, ttl time.Duration) *MarkerCodec {
	return &MarkerCodec{key: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the marker lifetime.
func (m *MarkerCodec) TTL() time.Duration { return m.ttl }

// Encode returns a signed marker for id and its expiry.
func (m *MarkerCodec) Encode(id Identity) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := markerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name:        id.Name,
		PhoneNumber: id.PhoneNumber,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign login marker: %w", err)
	}
	return token, exp, nil
}

// Decode verifies a marker. Any failure, including expiry, is ErrNotLoggedIn.
func (m *MarkerCodec) Decode(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNotLoggedIn
	}
	claims := &markerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrNotLoggedIn
	}
	return Identity{
		UserID:      claims.Subject,
		Name:        claims.Name,
		PhoneNumber: claims.PhoneNumber,
	}, nil
}
