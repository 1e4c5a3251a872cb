package convertkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lyfeworks/toolkit-backend/internal/platform/envutil"
	"github.com/lyfeworks/toolkit-backend/internal/platform/httpx"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

// Client tags and subscribes funnel contacts in ConvertKit. All calls are
// best-effort from the caller's perspective; failures are logged upstream
// and never block a user-facing response.
type Client interface {
	SubscribeToForm(ctx context.Context, formID, email string) error
	TagSubscriber(ctx context.Context, tagID, email string) error
}

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("CONVERTKIT_TIMEOUT_SECONDS", 15)
	maxRetries := envutil.Int("CONVERTKIT_MAX_RETRIES", 2)

	return Config{
		APIKey:     strings.TrimSpace(os.Getenv("CONVERTKIT_API_KEY")),
		BaseURL:    strings.TrimSpace(os.Getenv("CONVERTKIT_BASE_URL")),
		Timeout:    time.Duration(timeoutSec) * time.Second,
		MaxRetries: maxRetries,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing CONVERTKIT_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.convertkit.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "ConvertKitClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	maxRetries int
}

type subscribeRequest struct {
	APIKey string `json:"api_key"`
	Email  string `json:"email"`
}

func (c *client) SubscribeToForm(ctx context.Context, formID, email string) error {
	formID = strings.TrimSpace(formID)
	email = strings.TrimSpace(email)
	if formID == "" {
		return fmt.Errorf("convertkit: form id required")
	}
	if email == "" {
		return fmt.Errorf("convertkit: email required")
	}

	path := fmt.Sprintf("/v3/forms/%s/subscribe", formID)
	_, err := c.do(ctx, path, subscribeRequest{APIKey: c.cfg.APIKey, Email: email})
	return err
}

func (c *client) TagSubscriber(ctx context.Context, tagID, email string) error {
	tagID = strings.TrimSpace(tagID)
	email = strings.TrimSpace(email)
	if tagID == "" {
		return fmt.Errorf("convertkit: tag id required")
	}
	if email == "" {
		return fmt.Errorf("convertkit: email required")
	}

	path := fmt.Sprintf("/v3/tags/%s/subscribe", tagID)
	_, err := c.do(ctx, path, subscribeRequest{APIKey: c.cfg.APIKey, Email: email})
	return err
}

type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "convertkit: <nil error>"
	}
	if strings.TrimSpace(e.Message) != "" {
		return fmt.Sprintf("convertkit http %d: %s", e.StatusCode, e.Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	return fmt.Sprintf("convertkit http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, path string, body any) ([]byte, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			return raw, nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 5*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("ConvertKit request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return nil, errors.New("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}

		var er struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &er) == nil {
			if er.Message != "" {
				he.Message = er.Message
			} else {
				he.Message = er.Error
			}
		}
		return resp, raw, he
	}

	return resp, raw, nil
}
