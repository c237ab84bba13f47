// Package handlers contains every user-facing command. Registration is
// explicit: main wires the dependencies once and Register lists the full
// command set in one place.
package handlers

import (
	"time"

	"kelasbot/internal/cooldown"
	"kelasbot/internal/reminder"
	"kelasbot/internal/router"
)

// Command categories as shown by the menu.
const (
	catTugas = "Tugas"
	catInfo  = "Info"
	catUtil  = "Utilitas"
	catAdmin = "Admin"
)

// Deps carries the handler dependencies that don't travel on the Request.
type Deps struct {
	Reminder  *reminder.Service
	Limiter   *cooldown.Limiter
	StartedAt time.Time
	// Driver is the storage backend actually in use after fallback
	// resolution, shown by the status command.
	Driver string
}

// ExemptCommands lists the commands that skip the cooldown limiter. The
// limiter is seeded with these so an alias hit resolves the same way.
func ExemptCommands() []string {
	return []string{"ping", "menu", "help"}
}

func Register(reg *router.Registry, deps Deps) {
	registerTasks(reg)
	registerInfo(reg)
	registerMisc(reg, deps)
	registerAdmin(reg, deps)
}
