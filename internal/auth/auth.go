// Package auth resolves whether a sender may invoke a command. Everything
// here is a pure function over the inputs; no state, no I/O.
package auth

import (
	"strings"

	"kelasbot/internal/transport"
)

type DenyReason int

const (
	DenyNone DenyReason = iota
	// DenyNotAGroup: the command is group-only and the message came in
	// over a direct chat.
	DenyNotAGroup
	// DenyNotAdmin: the sender is neither a bot admin nor a group admin.
	DenyNotAdmin
)

type Result struct {
	Allowed bool
	Reason  DenyReason
}

var allow = Result{Allowed: true}

// NormalizePhone strips everything but digits and rewrites a leading 0 to
// the Indonesian country code, matching how numbers are entered locally.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.HasPrefix(out, "0") {
		out = "62" + out[1:]
	}
	return out
}

// IsBotAdmin checks the sender against the static allowlist. Containment
// is bidirectional to tolerate country-code prefix differences between the
// configured number and the JID the platform reports.
func IsBotAdmin(admins []string, sender string) bool {
	n := NormalizePhone(sender)
	if n == "" {
		return false
	}
	for _, a := range admins {
		an := NormalizePhone(a)
		if an == "" {
			continue
		}
		if strings.Contains(n, an) || strings.Contains(an, n) {
			return true
		}
	}
	return false
}

// IsGroupAdmin reports whether the sender's participant record carries an
// admin or superadmin role. An absent participant is simply not an admin.
func IsGroupAdmin(participants []transport.Participant, sender string) bool {
	for _, p := range participants {
		if p.ID != sender {
			continue
		}
		return p.Role == "admin" || p.Role == "superadmin"
	}
	return false
}

// Authorize applies the scope and admin checks in that order: a non-group
// message to a command that is both group-only and admin-only must report
// "not a group", never "not admin". Tests pin this ordering.
func Authorize(groupOnly, adminOnly bool, sender string, isGroup bool, admins []string, participants []transport.Participant) Result {
	if groupOnly && !isGroup {
		return Result{Reason: DenyNotAGroup}
	}
	if adminOnly {
		if IsBotAdmin(admins, sender) {
			return allow
		}
		if isGroup && IsGroupAdmin(participants, sender) {
			return allow
		}
		return Result{Reason: DenyNotAdmin}
	}
	return allow
}
