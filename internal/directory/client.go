package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/legalhold/internal/capture"
	"github.com/legalhold/internal/retry"
)

// ErrUserNotFound is returned when the directory has no such user.
var ErrUserNotFound = errors.New("user not found")

// Asset is a profile asset reference as returned by the directory.
type Asset struct {
	Key  string `json:"key"`
	Size string `json:"size"` // preview | complete
	Type string `json:"type"`
}

// User is the directory view of a user.
type User struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Handle string    `json:"handle"`
	Assets []Asset   `json:"assets"`
}

// Directory is the remote user directory capability.
type Directory interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
}

// StatusError is a non-2xx directory response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory returned status %d: %s", e.Code, e.Body)
}

// Config configures the HTTP directory client.
type Config struct {
	BaseURL       string        `koanf:"base_url"`
	Token         string        `koanf:"token"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`

	// CaptureDir, when set, receives a copy of every user response body.
	CaptureDir string `koanf:"capture_dir"`
}

const maxUserResponse = 1 << 20

// Client talks to the messaging backend's user endpoint.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	retry       retry.RetryConfig
	recorder    *capture.Recorder
}

// NewClient creates a directory client. A zero RatePerSecond disables
// client-side rate limiting.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	rc := retry.DirectoryRetryConfig()
	rc.ShouldRetry = shouldRetry

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		token:       cfg.Token,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(limit, burst),
		retry:       rc,
		recorder:    capture.New(cfg.CaptureDir),
	}
}

// GetUser fetches a single user. Transient failures are retried with backoff.
func (c *Client) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user *User
	result := retry.RetryWithBackoff(ctx, c.retry, func() error {
		u, err := c.fetchUser(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if !result.Success {
		return nil, fmt.Errorf("get user %s: %w", userID, result.LastError)
	}
	return user, nil
}

func (c *Client) fetchUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+userID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read user response: %w", err)
	}
	c.recorder.Write("directory-user", "json", body)

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	if user.ID == uuid.Nil {
		user.ID = userID
	}
	return &user, nil
}

func shouldRetry(err error) bool {
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return retry.IsRetryableError(err)
}
