package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"kelasbot/pkg/logx"
)

// fileStore keeps one JSON collection file per record kind plus one
// schedule file per group.
//
// Every write is read-entire-collection -> mutate -> write-entire-collection
// and NO lock is held across that cycle. Two concurrent writers to the same
// collection can lose an update (last writer wins). This mirrors the
// long-standing behavior of the deployed bot and is kept deliberately; the
// reminder scheduler and the command pipeline are the only writers and a
// single class group produces far too little traffic for this to matter.
type fileStore struct {
	dir string
	log logx.Logger
}

const (
	tasksFile         = "tasks.json"
	announcementsFile = "announcements.json"
	usersFile         = "users.json"
	schedulesDir      = "schedules"
)

func openFile(dir string, log logx.Logger) (Store, error) {
	if dir == "" {
		return nil, errors.New("storage path is required for the file driver")
	}
	if err := os.MkdirAll(filepath.Join(dir, schedulesDir), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{dir: dir, log: log}, nil
}

func (s *fileStore) Close() error { return nil }

func readCollection[T any](path string) ([]T, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeCollection[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ---- Tasks ----

func (s *fileStore) tasksPath() string { return filepath.Join(s.dir, tasksFile) }

func (s *fileStore) ListTasks(ctx context.Context, groupID string) ([]Task, error) {
	_ = ctx
	all, err := readCollection[Task](s.tasksPath())
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, t := range all {
		if groupID == "" || t.GroupID == groupID {
			out = append(out, t)
		}
	}
	sortTasksByDeadline(out)
	return out, nil
}

func (s *fileStore) GetTask(ctx context.Context, id string) (Task, error) {
	_ = ctx
	all, err := readCollection[Task](s.tasksPath())
	if err != nil {
		return Task{}, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, ErrNotFound
}

func (s *fileStore) InsertTask(ctx context.Context, t Task) (Task, error) {
	_ = ctx
	all, err := readCollection[Task](s.tasksPath())
	if err != nil {
		return Task{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	all = append(all, t)
	if err := writeCollection(s.tasksPath(), all); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *fileStore) UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error) {
	_ = ctx
	all, err := readCollection[Task](s.tasksPath())
	if err != nil {
		return Task{}, err
	}
	for i := range all {
		if all[i].ID == id {
			if err := patch.apply(&all[i]); err != nil {
				return Task{}, err
			}
			if err := writeCollection(s.tasksPath(), all); err != nil {
				return Task{}, err
			}
			return all[i], nil
		}
	}
	return Task{}, ErrNotFound
}

func (s *fileStore) DeleteTask(ctx context.Context, id, groupID string) (Task, error) {
	_ = ctx
	all, err := readCollection[Task](s.tasksPath())
	if err != nil {
		return Task{}, err
	}
	for i, t := range all {
		if t.ID == id && (groupID == "" || t.GroupID == groupID) {
			all = append(all[:i], all[i+1:]...)
			if err := writeCollection(s.tasksPath(), all); err != nil {
				return Task{}, err
			}
			return t, nil
		}
	}
	return Task{}, ErrNotFound
}

// ---- Announcements ----

func (s *fileStore) announcementsPath() string { return filepath.Join(s.dir, announcementsFile) }

func (s *fileStore) ListAnnouncements(ctx context.Context, groupID string) ([]Announcement, error) {
	_ = ctx
	all, err := readCollection[Announcement](s.announcementsPath())
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, a := range all {
		if groupID == "" || a.GroupID == groupID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fileStore) InsertAnnouncement(ctx context.Context, a Announcement) (Announcement, error) {
	_ = ctx
	all, err := readCollection[Announcement](s.announcementsPath())
	if err != nil {
		return Announcement{}, err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	all = append(all, a)
	if err := writeCollection(s.announcementsPath(), all); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

func (s *fileStore) DeleteAnnouncement(ctx context.Context, id, groupID string) (Announcement, error) {
	_ = ctx
	all, err := readCollection[Announcement](s.announcementsPath())
	if err != nil {
		return Announcement{}, err
	}
	for i, a := range all {
		if a.ID == id && (groupID == "" || a.GroupID == groupID) {
			all = append(all[:i], all[i+1:]...)
			if err := writeCollection(s.announcementsPath(), all); err != nil {
				return Announcement{}, err
			}
			return a, nil
		}
	}
	return Announcement{}, ErrNotFound
}

// ---- Schedules ----

func (s *fileStore) schedulePath(groupID string) string {
	return filepath.Join(s.dir, schedulesDir, groupID+".json")
}

func (s *fileStore) GetSchedule(ctx context.Context, groupID string) (Schedule, error) {
	_ = ctx
	b, err := os.ReadFile(s.schedulePath(groupID))
	if os.IsNotExist(err) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, err
	}
	var sch Schedule
	if err := json.Unmarshal(b, &sch); err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

func (s *fileStore) PutSchedule(ctx context.Context, sch Schedule) (Schedule, error) {
	_ = ctx
	sch.UpdatedAt = time.Now()
	b, err := json.MarshalIndent(sch, "", "  ")
	if err != nil {
		return Schedule{}, err
	}
	if err := os.WriteFile(s.schedulePath(sch.GroupID), b, 0o600); err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

// ---- Users ----

func (s *fileStore) usersPath() string { return filepath.Join(s.dir, usersFile) }

func (s *fileStore) GetUser(ctx context.Context, phone string) (User, error) {
	_ = ctx
	all, err := readCollection[User](s.usersPath())
	if err != nil {
		return User{}, err
	}
	for _, u := range all {
		if u.Phone == phone {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *fileStore) SaveUser(ctx context.Context, u User) error {
	_ = ctx
	all, err := readCollection[User](s.usersPath())
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].Phone == u.Phone {
			if u.Name != "" {
				all[i].Name = u.Name
			}
			if u.Role != "" {
				all[i].Role = u.Role
			}
			all[i].IsAdmin = u.IsAdmin
			all[i].Groups = mergeGroups(all[i].Groups, u.Groups)
			all[i].LastActive = u.LastActive
			return writeCollection(s.usersPath(), all)
		}
	}
	u.CreatedAt = time.Now()
	all = append(all, u)
	return writeCollection(s.usersPath(), all)
}

func mergeGroups(have, add []string) []string {
	seen := map[string]bool{}
	out := have[:0:0]
	for _, g := range have {
		if g != "" && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	for _, g := range add {
		if g != "" && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

func sortTasksByDeadline(ts []Task) {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Deadline.Before(ts[j].Deadline) })
}
