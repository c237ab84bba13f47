// Package reminder runs the periodic deadline scan and notifies each
// group's chat as homework comes due.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"kelasbot/internal/store"
	"kelasbot/internal/timefmt"
	"kelasbot/internal/transport"
	"kelasbot/pkg/logx"
)

// window is how close a deadline must be before a reminder goes out.
const window = 24 * time.Hour

type Service struct {
	store  store.Store
	sender transport.Sender
	log    logx.Logger

	interval time.Duration
	loc      *time.Location

	mu      sync.Mutex
	running bool
	c       *cron.Cron

	now func() time.Time
}

func New(st store.Store, sender transport.Sender, interval time.Duration, loc *time.Location, log logx.Logger) *Service {
	if interval <= 0 {
		interval = 60 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		store:    st,
		sender:   sender,
		log:      log,
		interval: interval,
		loc:      loc,
		now:      time.Now,
	}
}

// Start runs one cycle immediately and then on every interval tick.
// Starting an already running service is a no-op warning.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("reminder service already running")
		return
	}
	s.running = true
	s.c = cron.New(cron.WithLocation(s.loc))
	_, err := s.c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runCycle(ctx)
	})
	s.mu.Unlock()
	if err != nil {
		s.log.Error("reminder schedule rejected", logx.Err(err))
		return
	}

	go s.runCycle(ctx)
	s.c.Start()
	s.log.Info("reminder service started", logx.Duration("interval", s.interval))
}

// Stop prevents future cycles. An in-flight cycle runs to completion.
// Stopping a stopped service is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.c != nil {
		s.c.Stop()
		s.c = nil
	}
	s.log.Info("reminder service stopped")
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CheckNow runs one scan outside the schedule (admin command).
func (s *Service) CheckNow(ctx context.Context) error {
	return s.runCycle(ctx)
}

// runCycle scans every task across all groups and sends at most one
// reminder per task. The Notified flag is persisted after a successful
// send; a crash between send and persist can duplicate one reminder on the
// next cycle. Known weakness, accepted: the alternative (persist first)
// would silently swallow reminders on a send failure.
func (s *Service) runCycle(ctx context.Context) error {
	tasks, err := s.store.ListTasks(ctx, "")
	if err != nil {
		s.log.Error("deadline scan failed", logx.Err(err))
		return err
	}
	now := s.now()

	for _, t := range tasks {
		if t.Notified {
			continue
		}
		until := t.Deadline.Sub(now)
		if until < 0 {
			// Missed the window entirely; no retroactive notice.
			continue
		}
		if until > window {
			continue
		}
		if err := s.sendReminder(ctx, t, now); err != nil {
			s.log.Warn("reminder send failed",
				logx.String("task", t.ID), logx.String("group", t.GroupID), logx.Err(err))
			continue
		}
		notified := true
		if _, err := s.store.UpdateTask(ctx, t.ID, store.TaskPatch{Notified: &notified}); err != nil {
			s.log.Error("failed to persist notified flag",
				logx.String("task", t.ID), logx.Err(err))
			continue
		}
		s.log.Info("reminder sent",
			logx.String("task", t.ID),
			logx.String("subject", t.Subject),
			logx.String("group", t.GroupID))
	}
	return nil
}

func (s *Service) sendReminder(ctx context.Context, t store.Task, now time.Time) error {
	days := timefmt.DaysUntil(now, t.Deadline, s.loc)

	text := "⏰ *PENGINGAT DEADLINE* ⏰\n\n"
	text += "🚨 *Tugas mendesak!*\n\n"
	text += fmt.Sprintf("📚 *Mapel:* %s\n", t.Subject)
	text += fmt.Sprintf("📝 *Deskripsi:* %s\n", t.Description)
	text += fmt.Sprintf("📅 *Deadline:* %s\n", timefmt.FormatDate(t.Deadline, s.loc))

	switch {
	case days <= 0:
		text += "⏰ *Sisa Waktu:* HARI INI!\n\n"
		text += "🔴 *HARI INI DEADLINE!* 🔴\nJangan lupa kumpulkan tugasnya! 💪🔥\n\n"
	case days == 1:
		text += "⏰ *Sisa Waktu:* 1 hari\n\n"
		text += "🟡 *BESOK DEADLINE!* 🟡\nSegera selesaikan tugasmu! 📚\n\n"
	default:
		text += fmt.Sprintf("⏰ *Sisa Waktu:* %d hari\n\n", days)
	}
	text += "Semangat mengerjakan! 💪✨"

	return s.sender.SendMessage(ctx, t.GroupID, text)
}

// UpcomingDeadlines lists the group's tasks due within the next `days`
// days, nearest first. Used by the weekly summary.
func (s *Service) UpcomingDeadlines(ctx context.Context, groupID string, days int) ([]store.Task, error) {
	tasks, err := s.store.ListTasks(ctx, groupID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	horizon := now.Add(time.Duration(days) * 24 * time.Hour)

	out := tasks[:0:0]
	for _, t := range tasks {
		if t.Deadline.Before(now) || t.Deadline.After(horizon) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// SendSummary posts the week's outstanding tasks to one group.
func (s *Service) SendSummary(ctx context.Context, groupID string) error {
	upcoming, err := s.UpcomingDeadlines(ctx, groupID, 7)
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		return nil
	}
	now := s.now()

	text := "📋 *RINGKASAN TUGAS MINGGU INI*\n\n"
	for i, t := range upcoming {
		days := timefmt.DaysUntil(now, t.Deadline, s.loc)
		emoji := "🟢"
		if days <= 1 {
			emoji = "🔴"
		} else if days <= 3 {
			emoji = "🟡"
		}
		text += fmt.Sprintf("%s *%d. %s*\n", emoji, i+1, t.Subject)
		text += fmt.Sprintf("   📝 %s\n", timefmt.Truncate(t.Description, 40))
		text += fmt.Sprintf("   📅 %s (%s)\n\n", timefmt.FormatDate(t.Deadline, s.loc), timefmt.RelativeLabel(days))
	}
	text += "Jangan lupa kerjakan tugasnya tepat waktu! 💪📚"

	return s.sender.SendMessage(ctx, groupID, text)
}
