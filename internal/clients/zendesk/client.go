package zendesk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotabull/supportsync/internal/pkg/httpx"
	"github.com/rotabull/supportsync/internal/pkg/logger"
)

// Client is the ticketing-system API client. Every call sleeps a fixed
// inter-request delay to stay under the provider rate limit, honors 429
// Retry-After, and retries transient failures with exponential backoff.
type Client interface {
	SearchTickets(ctx context.Context, createdSince time.Time) ([]Ticket, error)
	IncrementalTickets(ctx context.Context, startTime time.Time) ([]Ticket, error)
	ListTicketComments(ctx context.Context, ticketID int64) ([]Comment, error)
	ListUsers(ctx context.Context, roles []string) ([]User, error)
}

type Config struct {
	Subdomain string
	UserEmail string
	APIToken  string

	// BaseURL overrides the subdomain-derived URL. Tests point it at a
	// local server.
	BaseURL string

	RequestDelay       time.Duration
	MaxRetries         int
	RetryAfterFallback time.Duration
	// BackoffUnit is the base of the 2^k backoff schedule.
	BackoffUnit time.Duration
	Timeout     time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	auth string
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		if strings.TrimSpace(cfg.Subdomain) == "" {
			return nil, fmt.Errorf("missing Zendesk subdomain")
		}
		cfg.BaseURL = "https://" + cfg.Subdomain + "/api/v2"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("missing Zendesk API token")
	}
	if strings.TrimSpace(cfg.UserEmail) == "" {
		return nil, fmt.Errorf("missing Zendesk user email")
	}
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryAfterFallback <= 0 {
		cfg.RetryAfterFallback = 60 * time.Second
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	auth := base64.StdEncoding.EncodeToString([]byte(cfg.UserEmail + "/token:" + cfg.APIToken))

	return &client{
		log:  log.With("client", "ZendeskClient"),
		cfg:  cfg,
		auth: auth,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// -------------------- transport --------------------

func (c *client) doOnce(ctx context.Context, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Basic "+c.auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// get fetches url into out. A 429 sleeps for Retry-After and retries without
// consuming the backoff budget; other retryable failures wait 2^k backoff
// units for attempt k, up to MaxRetries.
func (c *client) get(ctx context.Context, url string, out any) error {
	attempt := 0
	for {
		if err := httpx.SleepCtx(ctx, c.cfg.RequestDelay); err != nil {
			return err
		}

		resp, raw, err := c.doOnce(ctx, url)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("zendesk decode error: %w", uErr)
			}
			return nil
		}

		if httpx.IsRateLimited(err) {
			sleepFor := httpx.RetryAfterDuration(resp, c.cfg.RetryAfterFallback, 0)
			c.log.Warn("Zendesk rate limited, waiting before retry",
				"url", url,
				"sleep", sleepFor.String(),
			)
			if sErr := httpx.SleepCtx(ctx, sleepFor); sErr != nil {
				return sErr
			}
			continue
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt >= c.cfg.MaxRetries {
			return fmt.Errorf("zendesk request failed after %d retries: %w", c.cfg.MaxRetries, err)
		}

		sleepFor := c.cfg.BackoffUnit * (1 << attempt)
		c.log.Warn("Zendesk request retrying",
			"url", url,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if sErr := httpx.SleepCtx(ctx, sleepFor); sErr != nil {
			return sErr
		}
		attempt++
	}
}
