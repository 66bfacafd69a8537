package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/apiclient"
)

func TestRepoAPI_Login(t *testing.T) {
	var got LoginBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "tok", Path: "/"})
		w.Write([]byte(`{"statusCode":200,"data":{"user":{"_id":"u1","name":"Asha","phoneNumber":"9876543210"}},"success":true}`))
	}))
	defer srv.Close()

	repo := NewRepoAPI(apiclient.New(apiclient.Config{BaseURL: srv.URL}, zerolog.Nop()))
	bag := apiclient.NewCookieBag(nil)
	ctx := apiclient.WithCookieBag(context.Background(), bag)

	user, err := repo.Login(ctx, LoginBody{PhoneNumber: "9876543210", Password: "hunter22!", Role: Role})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Errorf("expected nested user, got %+v", user)
	}
	if got.Role != "patient" {
		t.Errorf("expected role on the wire, got %+v", got)
	}
	if len(bag.Received()) != 1 {
		t.Errorf("expected session cookie to be relayed, got %v", bag.Received())
	}
}

func TestDecodeUser(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"_id":"u2","name":"Ravi"}`, "u2"},
		{`{"user":{"_id":"u3"}}`, "u3"},
		{`{"accessToken":"x"}`, ""},
		{`"ok"`, ""},
	}
	for _, tt := range tests {
		u := decodeUser(json.RawMessage(tt.raw))
		got := ""
		if u != nil {
			got = u.ID
		}
		if got != tt.want {
			t.Errorf("decodeUser(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
