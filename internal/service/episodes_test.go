package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/PodStudio/internal/models"
	"github.com/atinyakov/PodStudio/internal/repository"
	"github.com/atinyakov/PodStudio/internal/service"
)

type mockEpisodeRepo struct {
	CreateEpisodeFunc       func(ctx context.Context, e *models.Episode) error
	GetEpisodeWithOwnerFunc func(ctx context.Context, id string) (*models.Episode, string, error)
	UpdateEpisodeFunc       func(ctx context.Context, id string, upd models.EpisodeUpdate) (*models.Episode, error)
	DeleteEpisodeFunc       func(ctx context.Context, id string) error
}

func (m *mockEpisodeRepo) CreateEpisode(ctx context.Context, e *models.Episode) error {
	return m.CreateEpisodeFunc(ctx, e)
}
func (m *mockEpisodeRepo) GetEpisodeWithOwner(ctx context.Context, id string) (*models.Episode, string, error) {
	return m.GetEpisodeWithOwnerFunc(ctx, id)
}
func (m *mockEpisodeRepo) UpdateEpisode(ctx context.Context, id string, upd models.EpisodeUpdate) (*models.Episode, error) {
	return m.UpdateEpisodeFunc(ctx, id, upd)
}
func (m *mockEpisodeRepo) DeleteEpisode(ctx context.Context, id string) error {
	return m.DeleteEpisodeFunc(ctx, id)
}

func ownedBy(owner string) *mockEpisodeRepo {
	return &mockEpisodeRepo{
		GetEpisodeWithOwnerFunc: func(_ context.Context, id string) (*models.Episode, string, error) {
			if id != "e1" {
				return nil, "", repository.ErrNotFound
			}
			return &models.Episode{ID: "e1", ProjectID: "p1", Name: "Ep1", Transcript: "hello"}, owner, nil
		},
	}
}

func TestEpisodeCreate_DefaultsSource(t *testing.T) {
	projects := &mockProjectRepo{
		GetProjectFunc: func(_ context.Context, ownerID, id string) (*models.Project, error) {
			return &models.Project{ID: id, UserID: ownerID}, nil
		},
	}
	var stored *models.Episode
	episodes := &mockEpisodeRepo{
		CreateEpisodeFunc: func(_ context.Context, e *models.Episode) error {
			stored = e
			return nil
		},
	}

	e, err := service.NewEpisodeService(projects, episodes).Create(context.Background(), "u1",
		service.NewEpisode{Name: " Ep1 ", ProjectID: "p1"})
	require.NoError(t, err)
	assert.Same(t, stored, e)
	assert.Equal(t, "Ep1", e.Name)
	assert.Equal(t, models.SourceUpload, e.Source)
	assert.Empty(t, e.Transcript)
	assert.NotEmpty(t, e.ID)
}

func TestEpisodeCreate_Validation(t *testing.T) {
	svc := service.NewEpisodeService(&mockProjectRepo{}, &mockEpisodeRepo{})

	tests := []struct {
		name  string
		in    service.NewEpisode
		field string
	}{
		{"missing name", service.NewEpisode{ProjectID: "p1"}, "name"},
		{"long name", service.NewEpisode{Name: strings.Repeat("x", models.MaxEpisodeNameLen+1), ProjectID: "p1"}, "name"},
		{"missing project", service.NewEpisode{Name: "Ep1"}, "projectId"},
		{"unknown source", service.NewEpisode{Name: "Ep1", ProjectID: "p1", Source: "vimeo"}, "source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tt.in)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestEpisodeCreate_ForeignProject(t *testing.T) {
	projects := &mockProjectRepo{
		GetProjectFunc: func(context.Context, string, string) (*models.Project, error) {
			return nil, repository.ErrNotFound
		},
	}
	_, err := service.NewEpisodeService(projects, &mockEpisodeRepo{}).Create(context.Background(), "u2",
		service.NewEpisode{Name: "Ep1", ProjectID: "p1"})
	assert.ErrorIs(t, err, service.ErrProjectNotFound)
}

func TestEpisodeResolve(t *testing.T) {
	svc := service.NewEpisodeService(&mockProjectRepo{}, ownedBy("u1"))

	res, err := svc.Resolve(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, service.Granted, res.Access)
	require.NotNil(t, res.Episode)

	res, err = svc.Resolve(context.Background(), "u2", "e1")
	require.NoError(t, err)
	assert.Equal(t, service.Denied, res.Access)
	assert.Nil(t, res.Episode)

	res, err = svc.Resolve(context.Background(), "u1", "e9")
	require.NoError(t, err)
	assert.Equal(t, service.Missing, res.Access)
}

func TestEpisodeOps_Ownership(t *testing.T) {
	repo := ownedBy("u1")
	repo.UpdateEpisodeFunc = func(context.Context, string, models.EpisodeUpdate) (*models.Episode, error) {
		t.Fatal("update must not reach the repository")
		return nil, nil
	}
	repo.DeleteEpisodeFunc = func(context.Context, string) error {
		t.Fatal("delete must not reach the repository")
		return nil
	}
	svc := service.NewEpisodeService(&mockProjectRepo{}, repo)
	ctx := context.Background()
	name := "Renamed"

	_, err := svc.Get(ctx, "u2", "e1")
	assert.ErrorIs(t, err, service.ErrEpisodeForbidden)
	_, err = svc.Update(ctx, "u2", "e1", models.EpisodeUpdate{Name: &name})
	assert.ErrorIs(t, err, service.ErrEpisodeForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, "u2", "e1"), service.ErrEpisodeForbidden)

	_, err = svc.Get(ctx, "u1", "e9")
	assert.ErrorIs(t, err, service.ErrEpisodeNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "u1", "e9"), service.ErrEpisodeNotFound)
}

func TestEpisodeUpdate(t *testing.T) {
	repo := ownedBy("u1")
	var got models.EpisodeUpdate
	repo.UpdateEpisodeFunc = func(_ context.Context, id string, upd models.EpisodeUpdate) (*models.Episode, error) {
		got = upd
		return &models.Episode{ID: id, Name: *upd.Name, Transcript: "hello"}, nil
	}
	svc := service.NewEpisodeService(&mockProjectRepo{}, repo)
	ctx := context.Background()

	name := "  Renamed  "
	e, err := svc.Update(ctx, "u1", "e1", models.EpisodeUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", e.Name)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Renamed", *got.Name)
	assert.Nil(t, got.Transcript)

	// no fields: returned unchanged without a write
	repo.UpdateEpisodeFunc = nil
	e, err = svc.Update(ctx, "u1", "e1", models.EpisodeUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Ep1", e.Name)
}

func TestEpisodeUpdate_Validation(t *testing.T) {
	svc := service.NewEpisodeService(&mockProjectRepo{}, ownedBy("u1"))
	empty := ""
	blank := "   "
	long := strings.Repeat("x", models.MaxEpisodeNameLen+1)

	tests := []struct {
		name  string
		upd   models.EpisodeUpdate
		field string
	}{
		{"empty transcript", models.EpisodeUpdate{Transcript: &empty}, "transcript"},
		{"blank name", models.EpisodeUpdate{Name: &blank}, "name"},
		{"long name", models.EpisodeUpdate{Name: &long}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), "u1", "e1", tt.upd)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestEpisodeCounts_ConcurrentAgainstMemoryStore(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "u1", Username: "alice", Email: "a@x.com"}))

	projects := service.NewProjectService(store)
	episodes := service.NewEpisodeService(store, store)

	p, err := projects.Create(ctx, "u1", "Launch")
	require.NoError(t, err)

	const n = 40
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := episodes.Create(ctx, "u1", service.NewEpisode{Name: fmt.Sprintf("Ep%d", i), ProjectID: p.ID})
			if assert.NoError(t, err) {
				ids[i] = e.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n/4; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, episodes.Delete(ctx, "u1", id))
		}(ids[i])
	}
	wg.Wait()

	got, err := projects.Episodes(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Episodes, n-n/4)
	assert.Equal(t, n-n/4, got.Project.EpisodeCount)

	require.NoError(t, projects.Delete(ctx, "u1", p.ID))
	for _, id := range ids[n/4:] {
		_, err := episodes.Get(ctx, "u1", id)
		assert.True(t, errors.Is(err, service.ErrEpisodeNotFound), "episode %s outlived its project", id)
	}
}
