package auth

import (
	"testing"

	"kelasbot/internal/transport"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"081234567890", "6281234567890"},
		{"6281234567890", "6281234567890"},
		{"+62 812-3456-7890", "6281234567890"},
		{"6281234567890@s.whatsapp.net", "6281234567890"},
		{"", ""},
		{"abc", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsBotAdmin(t *testing.T) {
	t.Parallel()
	admins := []string{"081234567890"}

	if !IsBotAdmin(admins, "6281234567890@s.whatsapp.net") {
		t.Error("normalized admin number should match the sender JID")
	}
	// Containment works both ways: a configured number longer than the
	// reported one still matches.
	if !IsBotAdmin([]string{"6281234567890"}, "081234567890") {
		t.Error("containment should be bidirectional")
	}
	if IsBotAdmin(admins, "6289999999999@s.whatsapp.net") {
		t.Error("unrelated sender should not be admin")
	}
	if IsBotAdmin(nil, "6281234567890") {
		t.Error("empty allowlist should deny everyone")
	}
	if IsBotAdmin([]string{""}, "") {
		t.Error("empty numbers on both sides must not match")
	}
}

func TestIsGroupAdmin(t *testing.T) {
	t.Parallel()
	ps := []transport.Participant{
		{ID: "a@s.whatsapp.net", Role: "admin"},
		{ID: "b@s.whatsapp.net", Role: "superadmin"},
		{ID: "c@s.whatsapp.net", Role: ""},
	}
	if !IsGroupAdmin(ps, "a@s.whatsapp.net") {
		t.Error("admin role should pass")
	}
	if !IsGroupAdmin(ps, "b@s.whatsapp.net") {
		t.Error("superadmin role should pass")
	}
	if IsGroupAdmin(ps, "c@s.whatsapp.net") {
		t.Error("plain member should fail")
	}
	if IsGroupAdmin(ps, "d@s.whatsapp.net") {
		t.Error("absent participant should fail")
	}
}

func TestAuthorizeOrdering(t *testing.T) {
	t.Parallel()

	// Group-only + admin-only over a direct chat: scope loses first,
	// regardless of admin status.
	res := Authorize(true, true, "6281234567890", false, []string{"6281234567890"}, nil)
	if res.Allowed {
		t.Fatal("direct chat must be denied for group-only command")
	}
	if res.Reason != DenyNotAGroup {
		t.Fatalf("reason = %v, want DenyNotAGroup", res.Reason)
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	ps := []transport.Participant{{ID: "ga@s.whatsapp.net", Role: "admin"}}

	cases := []struct {
		name                 string
		groupOnly, adminOnly bool
		sender               string
		isGroup              bool
		want                 Result
	}{
		{"open command", false, false, "x", false, Result{Allowed: true}},
		{"bot admin in dm", false, true, "6281234567890", false, Result{Allowed: true}},
		{"group admin in group", false, true, "ga@s.whatsapp.net", true, Result{Allowed: true}},
		{"group admin credentials in dm", false, true, "ga@s.whatsapp.net", false, Result{Reason: DenyNotAdmin}},
		{"plain member", true, true, "pm@s.whatsapp.net", true, Result{Reason: DenyNotAdmin}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got := Authorize(c.groupOnly, c.adminOnly, c.sender, c.isGroup, []string{"6281234567890"}, ps)
			if got != c.want {
				t.Errorf("Authorize = %+v, want %+v", got, c.want)
			}
		})
	}
}
