// Package metadata fills in movie details for a YouTube video by asking the
// generation pool about its title.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Skotchmaster/video_catalog/internal/keypool"
	"github.com/Skotchmaster/video_catalog/internal/logging"
)

var (
	ErrInvalidVideoID = errors.New("metadata: invalid video id")
	ErrVideoNotFound  = errors.New("metadata: video not found")
	ErrBadAIResponse  = errors.New("metadata: unparseable ai response")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

var categories = []string{"china", "inter", "anime"}

// Generator is what the fetcher needs from the key pool.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*keypool.Result, error)
}

// TitleResolver looks up the public title of a video.
type TitleResolver interface {
	Title(ctx context.Context, videoID string) (string, error)
}

type MovieData struct {
	Title       string  `json:"title"`
	Year        int     `json:"year"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description"`
	Actors      string  `json:"actors"`
	Lessons     string  `json:"lessons"`
	Category    string  `json:"category"`
	YouTubeID   string  `json:"ytId"`
}

type Fetcher struct {
	Titles    TitleResolver
	Generator Generator
}

func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*MovieData, error) {
	l := logging.FromContext(ctx).With("svc", "metadata.fetch", "video_id", videoID)

	videoID = strings.TrimSpace(videoID)
	if !videoIDPattern.MatchString(videoID) {
		return nil, ErrInvalidVideoID
	}

	title, err := f.Titles.Title(ctx, videoID)
	if err != nil {
		l.Warnw("title_lookup_failed", "error", err)
		return nil, err
	}

	res, err := f.Generator.Generate(ctx, BuildPrompt(title))
	if err != nil {
		l.Errorw("generate_failed", "error", err)
		return nil, err
	}

	data, err := Parse(res.Text)
	if err != nil {
		l.Warnw("ai_response_invalid", "model", res.Model, "error", err)
		return nil, err
	}
	data.YouTubeID = videoID

	l.Infow("metadata_fetched", "model", res.Model, "key_index", res.KeyIndex)
	return data, nil
}

func BuildPrompt(videoTitle string) string {
	return fmt.Sprintf(`Analyse the YouTube video title %q and summarise the movie or series it refers to. `+
		`Reply with a single JSON object and no Markdown: `+
		`{"title": "title", "year": year, "rating": score out of 10, "description": "synopsis", `+
		`"actors": "main cast", "lessons": "takeaways", "category": "%s"}`,
		videoTitle, strings.Join(categories, "/"))
}

// Parse reads the model output, tolerating code fences and numbers sent as
// strings.
func Parse(text string) (*MovieData, error) {
	clean := stripFences(text)
	if start, end := strings.Index(clean, "{"), strings.LastIndex(clean, "}"); start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var raw struct {
		Title       string          `json:"title"`
		Year        json.RawMessage `json:"year"`
		Rating      json.RawMessage `json:"rating"`
		Description string          `json:"description"`
		Actors      json.RawMessage `json:"actors"`
		Lessons     string          `json:"lessons"`
		Category    string          `json:"category"`
	}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadAIResponse, err)
	}
	if strings.TrimSpace(raw.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrBadAIResponse)
	}

	return &MovieData{
		Title:       strings.TrimSpace(raw.Title),
		Year:        int(number(raw.Year)),
		Rating:      number(raw.Rating),
		Description: strings.TrimSpace(raw.Description),
		Actors:      joinText(raw.Actors),
		Lessons:     strings.TrimSpace(raw.Lessons),
		Category:    normalizeCategory(raw.Category),
	}, nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// number accepts 2019, "2019" and "8.5/10".
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s, _, _ = strings.Cut(strings.TrimSpace(s), "/")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// joinText accepts a string or a list of strings.
func joinText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, known := range categories {
		if c == known {
			return c
		}
	}
	return "inter"
}
