package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/internal/domain/repository"
	"github.com/notely-app/notely-api/pkg/mailer"
)

// memUserRepo is an in-memory identity store with the same atomicity contract
// as the postgres implementation: Update runs under the store lock.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User // keyed by email
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.DOB != nil {
		dob := *u.DOB
		c.DOB = &dob
	}
	if u.GoogleID != nil {
		gid := *u.GoogleID
		c.GoogleID = &gid
	}
	if u.Challenge != nil {
		ch := *u.Challenge
		c.Challenge = &ch
	}
	return &c
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return repository.ErrDuplicate
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.Email] = cloneUser(u)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) GetByGoogleID(_ context.Context, googleID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, email string, fn func(*entity.User) error) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	work := cloneUser(u)
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now()
	r.users[email] = cloneUser(work)
	return work, nil
}

// memNoteRepo is an in-memory note store scoped by user id.
type memNoteRepo struct {
	mu    sync.Mutex
	notes map[string]*entity.Note
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: map[string]*entity.Note{}}
}

func (r *memNoteRepo) Create(_ context.Context, n *entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	c := *n
	r.notes[n.ID] = &c
	return nil
}

func (r *memNoteRepo) GetByID(_ context.Context, userID, id string) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *memNoteRepo) ListByUser(_ context.Context, userID string) ([]*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Note, 0)
	for _, n := range r.notes {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memNoteRepo) Update(_ context.Context, n *entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.notes[n.ID]
	if !ok || cur.UserID != n.UserID {
		return repository.ErrNotFound
	}
	n.UpdatedAt = time.Now()
	c := *n
	r.notes[n.ID] = &c
	return nil
}

func (r *memNoteRepo) Delete(_ context.Context, userID, id string) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNotFound
	}
	delete(r.notes, id)
	return n, nil
}

// recordingPublisher captures queued email jobs instead of talking to AMQP.
type recordingPublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	fail error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	if p.fail != nil {
		return p.fail
	}
	job, ok := body.(mailer.EmailJob)
	if !ok {
		return errors.New("unexpected publish payload")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) lastCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.jobs) == 0 {
		return ""
	}
	code, _ := p.jobs[len(p.jobs)-1].Data["Code"].(string)
	return code
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

var errPublishBoom = errors.New("amqp connection lost")
