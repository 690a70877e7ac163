package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/video_catalog/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

func newFakeES(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*ESIndex, *[]recorded) {
	t.Helper()

	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &ESIndex{ES: es, Index: "movies"}, &reqs
}

func TestESIndex_Search(t *testing.T) {
	idx, reqs := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[` +
			`{"_source":{"id":"1","title":"Hero","year":2002}},` +
			`{"_source":{"id":"2","title":"Hero Returns"}}]}}`))
	})

	total, movies, err := idx.Search(context.Background(), "hero", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, movies, 2)
	assert.Equal(t, "Hero", movies[0].Title)
	assert.Equal(t, 2002, movies[0].Year)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, "/movies/_search", req.Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.EqualValues(t, 10, body["size"])
	assert.Contains(t, req.Body, `"multi_match"`)
}

func TestESIndex_Search_ErrorStatus(t *testing.T) {
	idx, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{}`))
	})

	_, _, err := idx.Search(context.Background(), "hero", 0, 10)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestESIndex_IndexAndDelete(t *testing.T) {
	idx, reqs := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	})
	ctx := context.Background()

	require.NoError(t, idx.IndexMovie(ctx, &models.Movie{ID: "m1", Title: "Hero"}))
	require.NoError(t, idx.DeleteMovie(ctx, "m1"))
	require.NoError(t, idx.DeleteMovie(ctx, "missing"))

	require.Len(t, *reqs, 3)
	assert.Equal(t, "/movies/_doc/m1", (*reqs)[0].Path)
	assert.Contains(t, (*reqs)[0].Body, `"title":"Hero"`)
	assert.Equal(t, http.MethodDelete, (*reqs)[1].Method)
}
