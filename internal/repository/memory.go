package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/PodStudio/internal/models"
)

// MemoryStore keeps users, projects and episodes in process memory.
// It implements the same contracts as the Postgres repositories and is used
// when no database DSN is configured and in tests. All operations are
// serialized by a single mutex, so count adjustments are atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	now      func() time.Time
	users    map[string]models.User
	projects map[string]*memProject
	episodes map[string]*memEpisode
}

type memProject struct {
	models.Project
	seq int64
}

type memEpisode struct {
	models.Episode
	seq int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		users:    make(map[string]models.User),
		projects: make(map[string]*memProject),
		episodes: make(map[string]*memEpisode),
	}
}

func (m *MemoryStore) next() int64 {
	m.seq++
	return m.seq
}

// PingContext always succeeds.
func (m *MemoryStore) PingContext(context.Context) error { return nil }

// UserExists reports whether email or username is taken.
func (m *MemoryStore) UserExists(_ context.Context, email, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// CreateUser stores u or returns ErrDuplicate.
func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username || existing.ID == u.ID {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

// GetUserByEmail returns the user registered with email.
func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByID returns the user with id.
func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// ListProjects returns ownerID's projects newest first.
func (m *MemoryStore) ListProjects(_ context.Context, ownerID string) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owned := make([]*memProject, 0)
	for _, p := range m.projects {
		if p.UserID == ownerID {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq > owned[j].seq })

	out := make([]models.Project, 0, len(owned))
	for _, p := range owned {
		out = append(out, p.Project)
	}
	return out, nil
}

// GetProject returns the project if ownerID owns it.
func (m *MemoryStore) GetProject(_ context.Context, ownerID, id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok || p.UserID != ownerID {
		return nil, ErrNotFound
	}
	out := p.Project
	return &out, nil
}

// ProjectNameExists reports whether ownerID has a project called name.
func (m *MemoryStore) ProjectNameExists(_ context.Context, ownerID, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projectNameTaken(ownerID, name), nil
}

func (m *MemoryStore) projectNameTaken(ownerID, name string) bool {
	for _, p := range m.projects {
		if p.UserID == ownerID && p.Name == name {
			return true
		}
	}
	return false
}

// CreateProject stores p with a zero episode count.
func (m *MemoryStore) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.UserID]; !ok {
		return ErrNotFound
	}
	if m.projectNameTaken(p.UserID, p.Name) {
		return ErrDuplicate
	}
	now := m.now()
	p.EpisodeCount = 0
	p.CreatedAt, p.UpdatedAt = now, now
	m.projects[p.ID] = &memProject{Project: *p, seq: m.next()}
	return nil
}

// DeleteProject removes the project and all of its episodes.
func (m *MemoryStore) DeleteProject(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.UserID != ownerID {
		return ErrNotFound
	}
	for eid, e := range m.episodes {
		if e.ProjectID == id {
			delete(m.episodes, eid)
		}
	}
	delete(m.projects, id)
	return nil
}

// ListEpisodes returns the project's episodes newest first.
func (m *MemoryStore) ListEpisodes(_ context.Context, projectID string) ([]models.Episode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]*memEpisode, 0)
	for _, e := range m.episodes {
		if e.ProjectID == projectID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	out := make([]models.Episode, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.Episode)
	}
	return out, nil
}

// CreateEpisode stores e and increments the project's episode count.
func (m *MemoryStore) CreateEpisode(_ context.Context, e *models.Episode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[e.ProjectID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.episodes[e.ID]; ok {
		return ErrDuplicate
	}
	now := m.now()
	e.CreatedAt, e.UpdatedAt = now, now
	m.episodes[e.ID] = &memEpisode{Episode: *e, seq: m.next()}
	p.EpisodeCount++
	p.UpdatedAt = now
	return nil
}

// GetEpisodeWithOwner returns the episode and its project's owner id.
func (m *MemoryStore) GetEpisodeWithOwner(_ context.Context, id string) (*models.Episode, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.episodes[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	p, ok := m.projects[e.ProjectID]
	if !ok {
		return nil, "", ErrNotFound
	}
	out := e.Episode
	return &out, p.UserID, nil
}

// UpdateEpisode applies the non-nil fields of upd.
func (m *MemoryStore) UpdateEpisode(_ context.Context, id string, upd models.EpisodeUpdate) (*models.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.episodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Transcript != nil {
		e.Transcript = *upd.Transcript
	}
	e.UpdatedAt = m.now()
	out := e.Episode
	return &out, nil
}

// DeleteEpisode removes the episode and decrements the project's count.
func (m *MemoryStore) DeleteEpisode(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.episodes[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.episodes, id)
	if p, ok := m.projects[e.ProjectID]; ok {
		p.EpisodeCount--
		p.UpdatedAt = m.now()
	}
	return nil
}
