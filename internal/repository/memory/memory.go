// Package memory is an in-process implementation of the repositories. It
// enforces the same unique constraints as the Postgres schema and backs the
// tests and STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository"
)

type postRow struct {
	models.Post
	seq int64
}

type savedRow struct {
	postID string
	seq    int64
}

type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	seq   int64
	users map[string]models.User
	posts map[string]*postRow // by slug
	saved map[string][]savedRow
	audit []models.AuditLog
}

func New() *Store {
	return &Store{
		now:   time.Now,
		users: make(map[string]models.User),
		posts: make(map[string]*postRow),
		saved: make(map[string][]savedRow),
	}
}

// WithClock replaces the timestamp source; tests use it to order posts.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:      &usersRepo{s},
		Posts:      &postsRepo{s},
		SavedPosts: &savedRepo{s},
		AuditLogs:  &auditRepo{s},
		Health:     s,
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// AuditEntries returns a copy of everything written to the audit log.
func (s *Store) AuditEntries() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.audit...)
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// ----------------- users -----------------

type usersRepo struct{ s *Store }

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return models.User{}, &repository.DuplicateError{Field: "email"}
		}
		if existing.Username == u.Username {
			return models.User{}, &repository.DuplicateError{Field: "username"}
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = u
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (r *usersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *usersRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *usersRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	r.s.mu.RLock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (r *usersRepo) UpdateProfile(ctx context.Context, id, username, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	for otherID, other := range r.s.users {
		if otherID == id {
			continue
		}
		if other.Email == email {
			return models.User{}, &repository.DuplicateError{Field: "email"}
		}
		if other.Username == username {
			return models.User{}, &repository.DuplicateError{Field: "username"}
		}
	}
	u.Username, u.Email, u.UpdatedAt = username, email, r.s.now()
	r.s.users[id] = u
	return u, nil
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.saved, id)
	return nil
}

// ----------------- posts -----------------

type postsRepo struct{ s *Store }

func (r *postsRepo) Create(ctx context.Context, p models.Post) (models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.posts[p.Slug]; taken {
		return models.Post{}, &repository.DuplicateError{Field: "slug"}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.posts[p.Slug] = &postRow{Post: p, seq: r.s.nextSeq()}
	return p, nil
}

func (r *postsRepo) GetBySlug(ctx context.Context, slug string) (models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.posts[slug]
	if !ok {
		return models.Post{}, repository.ErrNotFound
	}
	return row.Post, nil
}

func (r *postsRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.posts[slug]
	return ok, nil
}

func (r *postsRepo) List(ctx context.Context, f repository.PostFilter) ([]models.Post, error) {
	return r.collect(func(p models.Post) bool {
		return f.Category == "" || p.Category == f.Category
	}, f.Limit, f.Offset), nil
}

func (r *postsRepo) Search(ctx context.Context, q string, limit int) ([]models.Post, error) {
	needle := strings.ToLower(q)
	return r.collect(func(p models.Post) bool {
		return strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(string(p.Category)), needle)
	}, limit, 0), nil
}

func (r *postsRepo) DeleteBySlug(ctx context.Context, slug string) (models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.posts[slug]
	if !ok {
		return models.Post{}, repository.ErrNotFound
	}
	delete(r.s.posts, slug)
	for userID, rows := range r.s.saved {
		kept := rows[:0]
		for _, sr := range rows {
			if sr.postID != row.ID {
				kept = append(kept, sr)
			}
		}
		r.s.saved[userID] = kept
	}
	return row.Post, nil
}

// collect returns matching posts newest first; insertion order breaks ties.
func (r *postsRepo) collect(match func(models.Post) bool, limit, offset int) []models.Post {
	r.s.mu.RLock()
	rows := make([]*postRow, 0, len(r.s.posts))
	for _, row := range r.s.posts {
		if match(row.Post) {
			rows = append(rows, row)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].seq > rows[j].seq
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	out := make([]models.Post, len(rows))
	for i, row := range rows {
		out[i] = row.Post
	}
	return page(out, limit, offset)
}

// ----------------- saved posts -----------------

type savedRepo struct{ s *Store }

func (r *savedRepo) Save(ctx context.Context, userID, postID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if r.s.postByID(postID) == nil {
		return repository.ErrNotFound
	}
	for _, sr := range r.s.saved[userID] {
		if sr.postID == postID {
			return nil
		}
	}
	r.s.saved[userID] = append(r.s.saved[userID], savedRow{postID: postID, seq: r.s.nextSeq()})
	return nil
}

func (r *savedRepo) Remove(ctx context.Context, userID, postID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := r.s.saved[userID]
	for i, sr := range rows {
		if sr.postID == postID {
			r.s.saved[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *savedRepo) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := append([]savedRow(nil), r.s.saved[userID]...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]models.Post, 0, len(rows))
	for _, sr := range rows {
		if row := r.s.postByID(sr.postID); row != nil {
			out = append(out, row.Post)
		}
	}
	return out, nil
}

// postByID must be called with s.mu held.
func (s *Store) postByID(id string) *postRow {
	for _, row := range s.posts {
		if row.ID == id {
			return row
		}
	}
	return nil
}

// ----------------- audit -----------------

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(ctx context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = r.s.now()
	r.s.audit = append(r.s.audit, l)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
