package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kelasbot/pkg/logx"
)

// firestoreStore maps each record kind to a top-level collection keyed by
// record id (schedules are keyed by group id).
//
// Queries filter with Where only and sort in memory: combining Where with
// OrderBy would require a composite index per deployment, which is not
// worth it at this data size.
type firestoreStore struct {
	client *firestore.Client
	log    logx.Logger
}

const (
	colTasks         = "tasks"
	colAnnouncements = "announcements"
	colSchedules     = "schedules"
	colUsers         = "users"
)

func openFirestore(ctx context.Context, projectID, credentialsFile string, log logx.Logger) (Store, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	return &firestoreStore{client: client, log: log}, nil
}

func (s *firestoreStore) Close() error { return s.client.Close() }

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ---- Tasks ----

func (s *firestoreStore) ListTasks(ctx context.Context, groupID string) ([]Task, error) {
	q := s.client.Collection(colTasks).Query
	if groupID != "" {
		q = q.Where("groupId", "==", groupID)
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var out []Task
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var t Task
		if err := doc.DataTo(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	sortTasksByDeadline(out)
	return out, nil
}

func (s *firestoreStore) GetTask(ctx context.Context, id string) (Task, error) {
	doc, err := s.client.Collection(colTasks).Doc(id).Get(ctx)
	if notFound(err) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	var t Task
	if err := doc.DataTo(&t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *firestoreStore) InsertTask(ctx context.Context, t Task) (Task, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	if _, err := s.client.Collection(colTasks).Doc(t.ID).Set(ctx, t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *firestoreStore) UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err := patch.apply(&t); err != nil {
		return Task{}, err
	}
	if _, err := s.client.Collection(colTasks).Doc(id).Set(ctx, t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *firestoreStore) DeleteTask(ctx context.Context, id, groupID string) (Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if groupID != "" && t.GroupID != groupID {
		return Task{}, ErrNotFound
	}
	if _, err := s.client.Collection(colTasks).Doc(id).Delete(ctx); err != nil {
		return Task{}, err
	}
	return t, nil
}

// ---- Announcements ----

func (s *firestoreStore) ListAnnouncements(ctx context.Context, groupID string) ([]Announcement, error) {
	q := s.client.Collection(colAnnouncements).Query
	if groupID != "" {
		q = q.Where("groupId", "==", groupID)
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var out []Announcement
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var a Announcement
		if err := doc.DataTo(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *firestoreStore) InsertAnnouncement(ctx context.Context, a Announcement) (Announcement, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	if _, err := s.client.Collection(colAnnouncements).Doc(a.ID).Set(ctx, a); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

func (s *firestoreStore) DeleteAnnouncement(ctx context.Context, id, groupID string) (Announcement, error) {
	doc, err := s.client.Collection(colAnnouncements).Doc(id).Get(ctx)
	if notFound(err) {
		return Announcement{}, ErrNotFound
	}
	if err != nil {
		return Announcement{}, err
	}
	var a Announcement
	if err := doc.DataTo(&a); err != nil {
		return Announcement{}, err
	}
	if groupID != "" && a.GroupID != groupID {
		return Announcement{}, ErrNotFound
	}
	if _, err := s.client.Collection(colAnnouncements).Doc(id).Delete(ctx); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// ---- Schedules ----

func (s *firestoreStore) GetSchedule(ctx context.Context, groupID string) (Schedule, error) {
	doc, err := s.client.Collection(colSchedules).Doc(groupID).Get(ctx)
	if notFound(err) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, err
	}
	var sch Schedule
	if err := doc.DataTo(&sch); err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

func (s *firestoreStore) PutSchedule(ctx context.Context, sch Schedule) (Schedule, error) {
	sch.UpdatedAt = time.Now()
	if _, err := s.client.Collection(colSchedules).Doc(sch.GroupID).Set(ctx, sch); err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

// ---- Users ----

func (s *firestoreStore) GetUser(ctx context.Context, phone string) (User, error) {
	doc, err := s.client.Collection(colUsers).Doc(phone).Get(ctx)
	if notFound(err) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	var u User
	if err := doc.DataTo(&u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *firestoreStore) SaveUser(ctx context.Context, u User) error {
	prev, err := s.GetUser(ctx, u.Phone)
	switch {
	case errors.Is(err, ErrNotFound):
		u.CreatedAt = time.Now()
	case err != nil:
		return err
	default:
		u.CreatedAt = prev.CreatedAt
		if u.Name == "" {
			u.Name = prev.Name
		}
		if u.Role == "" {
			u.Role = prev.Role
		}
		u.Groups = mergeGroups(prev.Groups, u.Groups)
	}
	_, err = s.client.Collection(colUsers).Doc(u.Phone).Set(ctx, u)
	return err
}
