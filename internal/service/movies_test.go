package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/video_catalog/internal/db/dbtest"
	"github.com/Skotchmaster/video_catalog/internal/models"
	"github.com/Skotchmaster/video_catalog/internal/repo"
	"github.com/Skotchmaster/video_catalog/internal/transport"
)

type fakeIndex struct {
	indexed map[string]models.Movie
	deleted []string
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[string]models.Movie{}}
}

func (f *fakeIndex) IndexMovie(_ context.Context, m *models.Movie) error {
	if f.err != nil {
		return f.err
	}
	f.indexed[m.ID] = *m
	return nil
}

func (f *fakeIndex) DeleteMovie(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, query string, from, size int) (int64, []models.Movie, error) {
	var out []models.Movie
	for _, m := range f.indexed {
		if m.Title == query {
			out = append(out, m)
		}
	}
	return int64(len(out)), out, f.err
}

func TestMovieService_CRUD(t *testing.T) {
	t.Parallel()

	idx := newFakeIndex()
	svc := &MovieService{Repo: repo.New(dbtest.New(t)), Index: idx}
	ctx := context.Background()

	m, err := svc.CreateMovie(ctx, transport.MovieRequest{Title: " Hero ", Year: 2002, Rating: 7.9, Category: "China"})
	require.NoError(t, err)
	assert.Equal(t, "Hero", m.Title)
	assert.Equal(t, "china", m.Category)
	assert.Contains(t, idx.indexed, m.ID)

	got, err := svc.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2002, got.Year)

	updated, err := svc.UpdateMovie(ctx, m.ID, transport.MovieRequest{Title: "Hero (2002)", Rating: 8})
	require.NoError(t, err)
	assert.Equal(t, "Hero (2002)", updated.Title)
	assert.Equal(t, "Hero (2002)", idx.indexed[m.ID].Title)

	items, total, err := svc.ListMovies(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)

	total, found, err := svc.Search(ctx, "Hero (2002)", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, found, 1)

	require.NoError(t, svc.DeleteMovie(ctx, m.ID))
	assert.Equal(t, []string{m.ID}, idx.deleted)

	_, err = svc.GetMovie(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteMovie(ctx, m.ID), ErrNotFound)
	_, err = svc.UpdateMovie(ctx, m.ID, transport.MovieRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMovieService_Validation(t *testing.T) {
	t.Parallel()

	svc := &MovieService{Repo: repo.New(dbtest.New(t))}
	ctx := context.Background()

	tests := []struct {
		name string
		req  transport.MovieRequest
	}{
		{name: "no title", req: transport.MovieRequest{Title: "  "}},
		{name: "rating too high", req: transport.MovieRequest{Title: "x", Rating: 11}},
		{name: "negative year", req: transport.MovieRequest{Title: "x", Year: -1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMovie(ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, _, err := svc.Search(ctx, "x", 0, 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestMovieService_IndexFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	idx := newFakeIndex()
	idx.err = errors.New("es down")
	svc := &MovieService{Repo: repo.New(dbtest.New(t)), Index: idx}
	ctx := context.Background()

	m, err := svc.CreateMovie(ctx, transport.MovieRequest{Title: "Hero"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMovie(ctx, m.ID))
}
