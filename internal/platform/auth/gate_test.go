package auth

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		req      Requirement
		loggedIn bool
		want     Decision
	}{
		{Public, false, Allow},
		{Public, true, Allow},
		{Protected, false, RedirectToLogin},
		{Protected, true, Allow},
		{AuthOnly, false, Allow},
		{AuthOnly, true, RedirectAway},
	}

	for _, tt := range tests {
		t.Run(tt.req.String(), func(t *testing.T) {
			if got := Decide(tt.req, tt.loggedIn); got != tt.want {
				t.Errorf("Decide(%s, %v) = %s, want %s", tt.req, tt.loggedIn, got, tt.want)
			}
		})
	}
}

func TestDecision_Target(t *testing.T) {
	if RedirectToLogin.Target() != "/auth/login" {
		t.Errorf("unexpected login target %q", RedirectToLogin.Target())
	}
	if RedirectAway.Target() != "/" {
		t.Errorf("unexpected away target %q", RedirectAway.Target())
	}
	if Allow.Target() != "" {
		t.Errorf("expected no target for Allow, got %q", Allow.Target())
	}
}

func TestParseRequirement(t *testing.T) {
	if ParseRequirement("protected") != Protected {
		t.Error("expected protected")
	}
	if ParseRequirement("auth-only") != AuthOnly {
		t.Error("expected auth-only")
	}
	if ParseRequirement("") != Public || ParseRequirement("bogus") != Public {
		t.Error("expected unknown annotations to be public")
	}
}
