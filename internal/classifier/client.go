// Package classifier talks to the remote sign classification service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ayusman/yubimoji/internal/feature"
)

const (
	// DefaultBaseURL is the hosted classifier.
	DefaultBaseURL = "https://tk-2423.onrender.com"

	predictPath        = "/predict"
	defaultHTTPTimeout = 10 * time.Second
	maxResponseBytes   = 1 << 20
	maxErrorBodyBytes  = 256
)

var (
	// ErrStatus is returned when the service answers with a non-2xx status.
	ErrStatus = errors.New("classifier returned non-success status")
	// ErrMalformed is returned when the response body is not a prediction.
	ErrMalformed = errors.New("malformed classifier payload")
)

// Predictor returns a probability per sign for a feature vector.
type Predictor interface {
	Predict(ctx context.Context, features feature.Vector) ([]float64, error)
}

// Client calls the classifier's /predict endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Predictor = (*Client)(nil)

// Option customizes the Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a classifier client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("classifier base url required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("classifier base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("classifier base url %q: scheme must be http or https", baseURL)
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type predictRequest struct {
	Landmark feature.Vector `json:"landmark"`
}

type predictResponse struct {
	Prediction [][]float64 `json:"prediction"`
}

// Predict posts features and returns the first prediction row.
func (c *Client) Predict(ctx context.Context, features feature.Vector) ([]float64, error) {
	if features == nil {
		features = feature.Vector{}
	}
	endpoint, err := url.JoinPath(c.baseURL, predictPath)
	if err != nil {
		return nil, fmt.Errorf("classifier predict: build url: %w", err)
	}
	encoded, err := json.Marshal(predictRequest{Landmark: features})
	if err != nil {
		return nil, fmt.Errorf("classifier predict: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("classifier predict: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier predict: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("classifier predict: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("classifier predict: %w: http %d: %s",
			ErrStatus, resp.StatusCode, errorSnippet(body))
	}

	var decoded predictResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("classifier predict: %w: %v", ErrMalformed, err)
	}
	if len(decoded.Prediction) == 0 {
		return nil, fmt.Errorf("classifier predict: %w: empty prediction", ErrMalformed)
	}
	return decoded.Prediction[0], nil
}

// errorSnippet trims body to at most maxErrorBodyBytes for error messages,
// cutting on a rune boundary.
func errorSnippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxErrorBodyBytes {
		return text
	}
	cut := maxErrorBodyBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
