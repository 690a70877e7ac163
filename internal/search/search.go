package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/models"
)

var ErrSearchUnavailable = errors.New("search: index unavailable")

// Index is the movie search index.
type Index interface {
	IndexMovie(ctx context.Context, m *models.Movie) error
	DeleteMovie(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Movie, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx)
	l.Infow("es_connect", "url", cfg.URL, "user", cfg.User)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: failed to create client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: failed to get info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: error response %s: %s", res.Status(), body)
	}

	l.Infow("es_connected")
	return client, nil
}

type ESIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func (s *ESIndex) IndexMovie(ctx context.Context, m *models.Movie) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("search: encode movie: %w", err)
	}

	res, err := s.ES.Index(s.Index, &buf,
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(m.ID),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index movie %s: %s", m.ID, res.Status())
	}
	return nil
}

func (s *ESIndex) DeleteMovie(ctx context.Context, id string) error {
	res, err := s.ES.Delete(s.Index, id, s.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search: delete movie %s: %s", id, res.Status())
	}
	return nil
}

func (s *ESIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Movie, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^3", "actors^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("%w: %s", ErrSearchUnavailable, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Movie `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	movies := make([]models.Movie, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		movies[i] = hit.Source
	}
	return r.Hits.Total.Value, movies, nil
}
