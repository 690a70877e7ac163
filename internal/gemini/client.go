// Package gemini adapts the Gemini SDK to the keypool client interface and
// classifies its errors.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Skotchmaster/video_catalog/internal/keypool"
)

var ErrEmptyResponse = errors.New("gemini: empty response")

// Factory opens one SDK client per api key.
type Factory struct {
	Temperature float32
}

func (f Factory) NewClient(ctx context.Context, key string) (keypool.Client, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, Classify(fmt.Errorf("gemini: create client: %w", err))
	}
	return &Client{client: c, temperature: f.Temperature}, nil
}

type Client struct {
	client      *genai.Client
	temperature float32
}

func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	m := c.client.GenerativeModel(model)
	if c.temperature > 0 {
		m.SetTemperature(c.temperature)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", Classify(err)
	}
	text := responseText(resp)
	if text == "" {
		return "", keypool.NewError(keypool.KindFatal, ErrEmptyResponse)
	}
	return text, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Classify maps an SDK error to a keypool.ProviderError. REST failures carry
// a googleapi.Error, gRPC failures a status code.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pe *keypool.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return keypool.NewError(keypool.KindTransient, err)
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return keypool.NewError(keypool.KindFatal, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return keypool.NewError(kindFromHTTP(gerr.Code, gerr.Message), err)
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return keypool.NewError(kindFromGRPC(st.Code(), st.Message()), err)
	}
	return keypool.NewError(kindFromMessage(err.Error()), err)
}

func kindFromHTTP(code int, msg string) keypool.Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return keypool.KindQuota
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return keypool.KindPermission
	case code == http.StatusBadRequest && invalidKey(msg):
		return keypool.KindPermission
	case code == http.StatusRequestTimeout || code >= 500:
		return keypool.KindTransient
	default:
		return keypool.KindFatal
	}
}

func kindFromGRPC(code codes.Code, msg string) keypool.Kind {
	switch code {
	case codes.ResourceExhausted:
		return keypool.KindQuota
	case codes.PermissionDenied, codes.Unauthenticated:
		return keypool.KindPermission
	case codes.InvalidArgument:
		if invalidKey(msg) {
			return keypool.KindPermission
		}
		return keypool.KindFatal
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
		return keypool.KindTransient
	default:
		return keypool.KindFatal
	}
}

// kindFromMessage is the last resort for errors that carry neither an HTTP
// nor a gRPC code.
func kindFromMessage(msg string) keypool.Kind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "429") || strings.Contains(m, "quota") || strings.Contains(m, "resource exhausted"):
		return keypool.KindQuota
	case strings.Contains(m, "403") || strings.Contains(m, "permission") || invalidKey(m):
		return keypool.KindPermission
	default:
		return keypool.KindFatal
	}
}

func invalidKey(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "api key not valid") || strings.Contains(m, "api_key_invalid")
}
