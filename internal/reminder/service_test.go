package reminder

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"kelasbot/internal/config"
	"kelasbot/internal/store"
	"kelasbot/internal/transport"
	"kelasbot/pkg/logx"
)

type captureSender struct {
	mu   sync.Mutex
	sent map[string][]string // target -> messages
}

func newCaptureSender() *captureSender {
	return &captureSender{sent: map[string][]string{}}
}

func (c *captureSender) SendMessage(ctx context.Context, target, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent[target] = append(c.sent[target], text)
	return nil
}

func (c *captureSender) GroupParticipants(ctx context.Context, groupID string) ([]transport.Participant, error) {
	return nil, nil
}

func (c *captureSender) count(target string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent[target])
}

func newTestService(t *testing.T, now time.Time) (*Service, store.Store, *captureSender) {
	t.Helper()
	st, _, err := store.Open(context.Background(),
		config.StorageConfig{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sender := newCaptureSender()
	svc := New(st, sender, time.Hour, time.UTC, logx.Nop())
	svc.now = func() time.Time { return now }
	return svc, st, sender
}

func insertTask(t *testing.T, st store.Store, group string, deadline time.Time) store.Task {
	t.Helper()
	task, err := st.InsertTask(context.Background(), store.Task{
		GroupID:     group,
		Subject:     "Matematika",
		Description: "Kerjakan halaman 10",
		Deadline:    deadline,
	})
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestRunCycleNotifiesWithinWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, st, sender := newTestService(t, now)
	ctx := context.Background()

	due := insertTask(t, st, "g1@g.us", now.Add(10*time.Hour))   // inside 24h
	far := insertTask(t, st, "g1@g.us", now.Add(72*time.Hour))   // outside
	past := insertTask(t, st, "g1@g.us", now.Add(-2*time.Hour))  // already over

	if err := svc.CheckNow(ctx); err != nil {
		t.Fatalf("CheckNow: %v", err)
	}

	if got := sender.count("g1@g.us"); got != 1 {
		t.Fatalf("sent %d reminders, want exactly 1", got)
	}

	check := func(id string, want bool) {
		task, err := st.GetTask(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if task.Notified != want {
			t.Errorf("task %s Notified = %v, want %v", id, task.Notified, want)
		}
	}
	check(due.ID, true)
	check(far.ID, false)
	check(past.ID, false)
}

func TestRunCycleSendsOnlyOnce(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, st, sender := newTestService(t, now)
	ctx := context.Background()

	insertTask(t, st, "g1@g.us", now.Add(10*time.Hour))

	if err := svc.CheckNow(ctx); err != nil {
		t.Fatal(err)
	}
	if err := svc.CheckNow(ctx); err != nil {
		t.Fatal(err)
	}
	if got := sender.count("g1@g.us"); got != 1 {
		t.Errorf("second cycle must not repeat the reminder, sent %d", got)
	}
}

func TestReminderTextUrgency(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 23, 0, 0, 0, time.UTC)
	svc, st, sender := newTestService(t, now)
	ctx := context.Background()

	// 59 minutes out: still the same calendar day.
	insertTask(t, st, "g1@g.us", now.Add(59*time.Minute))
	if err := svc.CheckNow(ctx); err != nil {
		t.Fatal(err)
	}

	sender.mu.Lock()
	msgs := sender.sent["g1@g.us"]
	sender.mu.Unlock()
	if len(msgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "Matematika") {
		t.Errorf("reminder should name the subject: %q", msgs[0])
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	svc.Start(ctx) // second start is a warning, not a second scheduler
	if !svc.Running() {
		t.Fatal("service should report running")
	}

	svc.Stop()
	svc.Stop()
	if svc.Running() {
		t.Fatal("service should report stopped")
	}
}

func TestUpcomingDeadlines(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)
	ctx := context.Background()

	insertTask(t, st, "g1@g.us", now.Add(2*24*time.Hour))
	insertTask(t, st, "g1@g.us", now.Add(20*24*time.Hour)) // beyond horizon
	insertTask(t, st, "g1@g.us", now.Add(-24*time.Hour))   // past
	insertTask(t, st, "g2@g.us", now.Add(24*time.Hour))    // other group

	got, err := svc.UpcomingDeadlines(ctx, "g1@g.us", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("UpcomingDeadlines = %d tasks, want 1", len(got))
	}
}

func TestSendSummary(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, st, sender := newTestService(t, now)
	ctx := context.Background()

	// Empty week: no message at all.
	if err := svc.SendSummary(ctx, "g1@g.us"); err != nil {
		t.Fatal(err)
	}
	if got := sender.count("g1@g.us"); got != 0 {
		t.Fatalf("empty summary should send nothing, got %d", got)
	}

	insertTask(t, st, "g1@g.us", now.Add(3*24*time.Hour))
	if err := svc.SendSummary(ctx, "g1@g.us"); err != nil {
		t.Fatal(err)
	}
	if got := sender.count("g1@g.us"); got != 1 {
		t.Errorf("summary with tasks should send one message, got %d", got)
	}
}
