package router

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"kelasbot/internal/auth"
	"kelasbot/internal/config"
	"kelasbot/internal/cooldown"
	"kelasbot/internal/store"
	"kelasbot/internal/transport"
	"kelasbot/pkg/logx"
)

// Dispatcher runs every inbound message through an explicit ordered list of
// stages over a shared *Request. Each stage either passes the request on or
// terminates it with an outcome.
//
// The order scope -> authorization -> cooldown -> execute is load-bearing:
// it decides which denial a sender sees when several would apply, and the
// pipeline tests pin it. Do not reorder.
type Dispatcher struct {
	reg     *Registry
	limiter *cooldown.Limiter
	cfgm    *config.Manager
	sender  transport.Sender
	store   store.Store
	log     logx.Logger
}

func NewDispatcher(reg *Registry, limiter *cooldown.Limiter, cfgm *config.Manager, sender transport.Sender, st store.Store, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{reg: reg, limiter: limiter, cfgm: cfgm, sender: sender, store: st, log: log}
}

type stage struct {
	name string
	run  func(ctx context.Context, req *Request) (next bool, outcome string)
}

func (d *Dispatcher) stages() []stage {
	return []stage{
		{"resolve", d.stageResolve},
		{"allowed_group", d.stageAllowedGroup},
		{"scope", d.stageScope},
		{"authorize", d.stageAuthorize},
		{"cooldown", d.stageCooldown},
		{"execute", d.stageExecute},
	}
}

// Handle processes one inbound message end to end. Messages without the
// command prefix are ignored silently; everything that parses as a command
// attempt is audit-logged with its outcome, whichever stage terminated it.
func (d *Dispatcher) Handle(ctx context.Context, msg transport.Message) {
	cfg := d.cfgm.Get()
	if cfg == nil {
		return
	}

	req, ok := d.parse(cfg, msg)
	if !ok {
		return
	}

	start := time.Now()
	outcome := "ok"

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic in command handler",
				logx.String("cmd", req.Name),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
			_ = req.Reply(ctx, noticeError)
			outcome = "panic"
		}
		d.audit(req, outcome, time.Since(start))
	}()

	for _, st := range d.stages() {
		next, out := st.run(ctx, req)
		if !next {
			outcome = out
			return
		}
	}
}

// parse strips the prefix and tokenizes. A missing prefix or an empty
// remainder is not an attempt at all, so it produces no audit entry.
func (d *Dispatcher) parse(cfg *config.Config, msg transport.Message) (*Request, bool) {
	text := strings.TrimSpace(msg.Text)
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "."
	}
	if !strings.HasPrefix(text, prefix) {
		return nil, false
	}
	fields := strings.Fields(text[len(prefix):])
	if len(fields) == 0 {
		return nil, false
	}
	return &Request{
		Msg:      msg,
		Name:     strings.ToLower(fields[0]),
		Args:     fields[1:],
		RawArgs:  strings.Join(fields[1:], " "),
		Sender:   d.sender,
		Store:    d.store,
		Registry: d.reg,
		Cfg:      cfg,
		Loc:      cfg.Location(),
		Log:      d.log,
	}, true
}

func (d *Dispatcher) stageResolve(ctx context.Context, req *Request) (bool, string) {
	req.Cmd = d.reg.Resolve(req.Name)
	if req.Cmd != nil {
		return true, ""
	}
	if s := d.reg.suggest(req.Name); s != "" {
		_ = req.Reply(ctx, fmt.Sprintf("🤔 Command `%s%s` tidak ada. Mungkin maksudmu `%s%s`?",
			req.Cfg.Prefix, req.Name, req.Cfg.Prefix, s))
	}
	return false, "unknown"
}

// stageAllowedGroup drops group messages from groups outside the allowlist.
// Silent on purpose: the bot should be invisible where it is not invited.
func (d *Dispatcher) stageAllowedGroup(_ context.Context, req *Request) (bool, string) {
	if !req.Msg.IsGroup || len(req.Cfg.AllowedGroups) == 0 {
		return true, ""
	}
	for _, g := range req.Cfg.AllowedGroups {
		if g == req.Msg.Chat {
			return true, ""
		}
	}
	return false, "group_not_allowed"
}

func (d *Dispatcher) stageScope(ctx context.Context, req *Request) (bool, string) {
	if req.Cmd.GroupOnly && !req.Msg.IsGroup {
		_ = req.Reply(ctx, noticeGroupOnly)
		return false, "denied_scope"
	}
	return true, ""
}

func (d *Dispatcher) stageAuthorize(ctx context.Context, req *Request) (bool, string) {
	if !req.Cmd.AdminOnly {
		return true, ""
	}
	var participants []transport.Participant
	if req.Msg.IsGroup {
		ps, err := d.sender.GroupParticipants(ctx, req.Msg.Chat)
		if err != nil {
			// Unresolvable membership just means no group-admin rights;
			// the bot-admin allowlist still applies.
			d.log.Debug("group participants unavailable",
				logx.String("group", req.Msg.Chat), logx.Err(err))
		} else {
			participants = ps
		}
	}
	res := auth.Authorize(req.Cmd.GroupOnly, req.Cmd.AdminOnly, req.Msg.Sender, req.Msg.IsGroup, req.Cfg.AdminNumbers, participants)
	if res.Allowed {
		return true, ""
	}
	switch res.Reason {
	case auth.DenyNotAGroup:
		_ = req.Reply(ctx, noticeGroupOnly)
		return false, "denied_scope"
	default:
		_ = req.Reply(ctx, noticeAdminOnly)
		return false, "denied_admin"
	}
}

func (d *Dispatcher) stageCooldown(ctx context.Context, req *Request) (bool, string) {
	if req.Cmd.CooldownExempt {
		return true, ""
	}
	ok, remaining := d.limiter.TryAcquire(req.Msg.Sender, req.Cmd.Name)
	if ok {
		return true, ""
	}
	_ = req.Reply(ctx, cooldownNotice(remaining))
	return false, "rate_limited"
}

func (d *Dispatcher) stageExecute(ctx context.Context, req *Request) (bool, string) {
	d.touchUser(ctx, req)
	if err := req.Cmd.Handle(ctx, req); err != nil {
		// The single catch-all: handlers report validation and not-found
		// themselves; anything that reaches here is a backend or logic
		// failure the sender only gets an apology for.
		d.log.Error("command failed",
			logx.String("cmd", req.Cmd.Name),
			logx.String("sender", req.Msg.Sender),
			logx.String("group", req.Msg.Chat),
			logx.Err(err))
		_ = req.Reply(ctx, noticeError)
		return false, "error"
	}
	return false, "ok"
}

// touchUser upserts the sender's contact record. Auditing only; a failure
// here must never block the command.
func (d *Dispatcher) touchUser(ctx context.Context, req *Request) {
	u := store.User{
		Phone:      auth.NormalizePhone(req.Msg.Sender),
		Name:       req.Msg.PushName,
		IsAdmin:    auth.IsBotAdmin(req.Cfg.AdminNumbers, req.Msg.Sender),
		LastActive: time.Now(),
	}
	if req.Msg.IsGroup {
		u.Groups = []string{req.Msg.Chat}
	}
	if err := d.store.SaveUser(ctx, u); err != nil {
		d.log.Debug("user upsert failed", logx.String("phone", u.Phone), logx.Err(err))
	}
}

func (d *Dispatcher) audit(req *Request, outcome string, dur time.Duration) {
	d.log.Info("command",
		logx.String("cmd", req.Name),
		logx.String("sender", req.Msg.Sender),
		logx.String("group", req.Msg.Chat),
		logx.Bool("is_group", req.Msg.IsGroup),
		logx.String("outcome", outcome),
		logx.Duration("dur", dur))
}
