package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is the sentinel for a missing single record. Callers are
// expected to branch on it with errors.Is rather than treat it as a failure.
var ErrNotFound = errors.New("record not found")

// ErrDeadlineBeforeCreation rejects a patch that would move a task's
// deadline to before the task existed. Handlers turn it into the
// invalid-date reply.
var ErrDeadlineBeforeCreation = errors.New("deadline before task creation")

// Task is one unit of homework tracked per group.
type Task struct {
	ID          string    `json:"id" firestore:"id"`
	GroupID     string    `json:"groupId" firestore:"groupId"`
	Subject     string    `json:"subject" firestore:"subject"`
	Description string    `json:"description" firestore:"description"`
	Deadline    time.Time `json:"deadline" firestore:"deadline"`
	CreatedBy   string    `json:"createdBy" firestore:"createdBy"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	// Notified goes false -> true exactly once, when the deadline
	// reminder has been sent. It never reverts.
	Notified bool `json:"notified" firestore:"notified"`
}

// TaskPatch is a partial update. Nil fields are left untouched.
// Notified can only be raised; a false value is ignored, and a deadline
// before the task's creation time is rejected outright (see apply).
type TaskPatch struct {
	Subject     *string
	Description *string
	Deadline    *time.Time
	Notified    *bool
}

// apply validates before mutating: on error the task is untouched.
func (p TaskPatch) apply(t *Task) error {
	if p.Deadline != nil && p.Deadline.Before(t.CreatedAt) {
		return ErrDeadlineBeforeCreation
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Notified != nil && *p.Notified {
		t.Notified = true
	}
	return nil
}

type Announcement struct {
	ID        string    `json:"id" firestore:"id"`
	GroupID   string    `json:"groupId" firestore:"groupId"`
	Title     string    `json:"title" firestore:"title"`
	Body      string    `json:"body" firestore:"body"`
	CreatedBy string    `json:"createdBy" firestore:"createdBy"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Period is one entry of a weekday timetable.
type Period struct {
	Subject   string `json:"subject" firestore:"subject"`
	TimeRange string `json:"timeRange" firestore:"timeRange"`
}

// Schedule is the weekly timetable of one group: weekday name (lowercase
// Indonesian, "senin".."sabtu") to ordered periods. One record per group.
type Schedule struct {
	GroupID   string              `json:"groupId" firestore:"groupId"`
	Days      map[string][]Period `json:"days" firestore:"days"`
	UpdatedAt time.Time           `json:"updatedAt" firestore:"updatedAt"`
}

// User is auxiliary contact data, upserted on activity. Audit only; no
// command depends on it.
type User struct {
	Phone      string    `json:"phone" firestore:"phone"`
	Name       string    `json:"name" firestore:"name"`
	Role       string    `json:"role" firestore:"role"`
	IsAdmin    bool      `json:"isAdmin" firestore:"isAdmin"`
	Groups     []string  `json:"groups" firestore:"groups"`
	LastActive time.Time `json:"lastActive" firestore:"lastActive"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
}

// Store is the persistence contract shared by both backends. Reads always
// hit the backend; no component caches records across requests.
type Store interface {
	// ListTasks returns tasks sorted by deadline ascending.
	// Empty groupID means all groups.
	ListTasks(ctx context.Context, groupID string) ([]Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	InsertTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)
	// DeleteTask removes a task, scoped to groupID when non-empty.
	DeleteTask(ctx context.Context, id, groupID string) (Task, error)

	// ListAnnouncements returns the group's announcements newest-first.
	ListAnnouncements(ctx context.Context, groupID string) ([]Announcement, error)
	InsertAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
	DeleteAnnouncement(ctx context.Context, id, groupID string) (Announcement, error)

	GetSchedule(ctx context.Context, groupID string) (Schedule, error)
	PutSchedule(ctx context.Context, s Schedule) (Schedule, error)

	GetUser(ctx context.Context, phone string) (User, error)
	SaveUser(ctx context.Context, u User) error

	Close() error
}
