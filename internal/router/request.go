package router

import (
	"context"
	"strings"
	"time"

	"kelasbot/internal/config"
	"kelasbot/internal/store"
	"kelasbot/internal/transport"
	"kelasbot/pkg/logx"
)

// Request is the shared context one inbound command flows through. Each
// pipeline stage reads and extends it; handlers get it fully populated.
type Request struct {
	Msg transport.Message

	// Name is the lower-cased command token, Args the whitespace-split
	// remainder, RawArgs the remainder re-joined for pipe-style parsing.
	Name    string
	Args    []string
	RawArgs string

	Cmd *Command

	Sender   transport.Sender
	Store    store.Store
	Registry *Registry
	Cfg      *config.Config
	Loc      *time.Location
	Log      logx.Logger
}

// Reply sends text back to the conversation the message came from.
func (r *Request) Reply(ctx context.Context, text string) error {
	return r.Sender.SendMessage(ctx, r.Msg.Chat, text)
}

// PipeArgs splits RawArgs on "|" and trims each part, dropping empties.
// Multi-word fields (subject | description | date) arrive this way.
func (r *Request) PipeArgs() []string {
	var out []string
	for _, p := range strings.Split(r.RawArgs, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
