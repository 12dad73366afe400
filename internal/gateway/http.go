package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// CreateProfilePath is appended to the configured base URL.
const CreateProfilePath = "/profiles/create-profile/"

const maxErrorBody = 64 << 10

// HTTPGateway posts drafts to the profile service over HTTP.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
	tokens   TokenSource
	retry    RetryConfig
	logger   *zap.Logger
}

// HTTPOption customizes an HTTPGateway.
type HTTPOption func(*HTTPGateway)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithTokenSource sets the bearer token provider.
func WithTokenSource(tokens TokenSource) HTTPOption {
	return func(g *HTTPGateway) {
		g.tokens = tokens
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg RetryConfig) HTTPOption {
	return func(g *HTTPGateway) {
		g.retry = cfg
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) HTTPOption {
	return func(g *HTTPGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewHTTP builds a gateway for the service rooted at baseURL, for example
// http://localhost:8000/api.
func NewHTTP(baseURL string, timeout time.Duration, opts ...HTTPOption) (*HTTPGateway, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway: base url is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("gateway: base url %q must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	g := &HTTPGateway{
		endpoint: baseURL + CreateProfilePath,
		client:   &http.Client{Timeout: timeout},
		retry:    DefaultRetryConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Endpoint returns the create-profile URL.
func (g *HTTPGateway) Endpoint() string {
	return g.endpoint
}

// CreateProfile posts the draft as JSON. Transport errors and 502/503/504
// responses are retried; every other failure returns immediately.
func (g *HTTPGateway) CreateProfile(ctx context.Context, draft profile.Draft) (ProfileRef, error) {
	body, err := json.Marshal(draft.Normalized())
	if err != nil {
		return ProfileRef{}, &SubmissionError{Class: ClassOther, Endpoint: g.endpoint, Err: fmt.Errorf("encode draft: %w", err)}
	}
	var ref ProfileRef
	err = retry(ctx, g.retry, func(attempt int) error {
		var callErr error
		ref, callErr = g.post(ctx, body)
		if callErr != nil {
			g.logger.Warn("create profile attempt failed",
				zap.Int("attempt", attempt),
				zap.String("endpoint", g.endpoint),
				zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		return ProfileRef{}, AsSubmissionError(err)
	}
	g.logger.Info("profile created", zap.String("profile_id", ref.ID))
	return ref, nil
}

func (g *HTTPGateway) post(ctx context.Context, body []byte) (ProfileRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return ProfileRef{}, permanent(&SubmissionError{Class: ClassOther, Endpoint: g.endpoint, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.tokens != nil {
		token, err := g.tokens.Token(ctx)
		if err != nil {
			return ProfileRef{}, permanent(&SubmissionError{Class: ClassUnauthorized, Endpoint: g.endpoint, Err: err})
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return ProfileRef{}, &SubmissionError{Class: ClassOther, Endpoint: g.endpoint, Err: err}
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return ProfileRef{}, &SubmissionError{Class: ClassOther, StatusCode: resp.StatusCode, Endpoint: g.endpoint, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ref ProfileRef
		if len(bytes.TrimSpace(payload)) > 0 {
			if err := json.Unmarshal(payload, &ref); err != nil {
				return ProfileRef{}, permanent(&SubmissionError{Class: ClassOther, StatusCode: resp.StatusCode, Endpoint: g.endpoint, Err: fmt.Errorf("decode response: %w", err)})
			}
		}
		return ref, nil
	}

	se := &SubmissionError{
		Class:      Classify(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Detail:     errorDetail(payload),
		Endpoint:   g.endpoint,
	}
	if retryableStatus(resp.StatusCode) {
		return ProfileRef{}, se
	}
	return ProfileRef{}, permanent(se)
}

// errorDetail pulls a human readable message out of an error body. JSON bodies
// carrying detail, error or message win; other bodies are used verbatim when
// short.
func errorDetail(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if value, ok := fields[key]; ok {
				if s := detailString(value); s != "" {
					return s
				}
			}
		}
		return ""
	}
	text := string(trimmed)
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

func detailString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
