package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrLoginFailed is returned by CheckLogin when the API does not recognise the account.
var ErrLoginFailed = errors.New("remote: login failed, check login and api_key")

// RequestError reports a failed request. URL is the complete request,
// credentials included, so it can be replayed by hand.
type RequestError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Reason())
}

// Reason describes the failure without the URL.
func (e *RequestError) Reason() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Profile is the subset of the account profile used to verify credentials.
type Profile struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Client issues authenticated JSON requests against the remote API.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a client. A nil logger disables request logging.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, logger: logger}
}

// URL builds the full request URL for path and query. Login and API key are appended when set.
func (c *Client) URL(path string, query url.Values) string {
	q := make(url.Values, len(query)+2)
	for k, v := range query {
		q[k] = v
	}
	if c.cfg.Login != "" {
		q.Set("login", c.cfg.Login)
	}
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}

	target := c.cfg.baseURL() + "/" + strings.TrimLeft(path, "/")
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	return target
}

// GetJSON performs a GET request and decodes a 200 response into out.
// Every failure is a *RequestError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.URL(path, query)
	if err := ctx.Err(); err != nil {
		return &RequestError{URL: target, Err: err}
	}

	agent := fiber.Get(target).
		UserAgent(c.cfg.UserAgent).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if timeout := c.cfg.Timeout(); timeout > 0 {
		agent.Timeout(timeout)
	}

	start := time.Now()
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return &RequestError{URL: target, Err: errors.Join(errs...)}
	}

	c.logger.Debug("Remote request",
		zap.String("path", path),
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)

	if status != fiber.StatusOK {
		return &RequestError{URL: target, Status: status, Body: excerpt(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{URL: target, Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// CheckLogin verifies the configured credentials against the profile endpoint.
func (c *Client) CheckLogin(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.GetJSON(ctx, "profile.json", url.Values{"only": {"id,name"}}, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if p.ID == 0 || p.Name == "" {
		return nil, ErrLoginFailed
	}
	return &p, nil
}

func excerpt(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
