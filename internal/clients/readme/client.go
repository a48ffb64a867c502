package readme

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

// Client fetches the published documentation tree: categories, the docs in
// each category, and each doc's body.
type Client interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListCategoryDocs(ctx context.Context, categorySlug string) ([]Doc, error)
	GetDoc(ctx context.Context, slug string) (*Page, error)
	FetchAllPages(ctx context.Context) ([]Page, error)
}

type Config struct {
	APIToken    string
	BaseURL     string
	MaxRetries  int
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
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("missing Readme API token")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://dash.readme.com/api/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		log:  log.With("client", "ReadmeClient"),
		cfg:  cfg,
		auth: base64.StdEncoding.EncodeToString([]byte(cfg.APIToken + ":")),
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type Category struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type Doc struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Children []Doc  `json:"children"`
}

type Page struct {
	Slug string `json:"slug"`
	Body string `json:"body"`
}

func (c *client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.get(ctx, c.cfg.BaseURL+"/categories", &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (c *client) ListCategoryDocs(ctx context.Context, categorySlug string) ([]Doc, error) {
	var out []Doc
	if err := c.get(ctx, c.cfg.BaseURL+"/categories/"+categorySlug+"/docs", &out); err != nil {
		return nil, fmt.Errorf("list docs for category %q: %w", categorySlug, err)
	}
	return out, nil
}

func (c *client) GetDoc(ctx context.Context, slug string) (*Page, error) {
	var out Page
	if err := c.get(ctx, c.cfg.BaseURL+"/docs/"+slug, &out); err != nil {
		return nil, fmt.Errorf("get doc %q: %w", slug, err)
	}
	return &out, nil
}

// FetchAllPages materializes the full doc tree. Child docs are walked with
// an explicit stack so deeply nested trees cannot exhaust the call stack.
func (c *client) FetchAllPages(ctx context.Context) ([]Page, error) {
	categories, err := c.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	var pages []Page
	seen := make(map[string]struct{})
	for _, cat := range categories {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		docs, err := c.ListCategoryDocs(ctx, cat.Slug)
		if err != nil {
			return nil, err
		}

		stack := make([]Doc, len(docs))
		copy(stack, docs)
		for len(stack) > 0 {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			doc := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if _, ok := seen[doc.Slug]; ok {
				continue
			}
			seen[doc.Slug] = struct{}{}

			page, err := c.GetDoc(ctx, doc.Slug)
			if err != nil {
				return nil, err
			}
			pages = append(pages, *page)
			stack = append(stack, doc.Children...)
		}
		c.log.Debug("Fetched category docs", "category", cat.Slug, "total_pages", len(pages))
	}
	return pages, nil
}

// -------------------- transport --------------------

func (c *client) get(ctx context.Context, url string, out any) error {
	backoff := c.cfg.BackoffUnit
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Basic "+c.auth)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		var raw []byte
		if err == nil {
			raw, err = io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err == nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
				err = &httpx.HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
			}
		}
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("readme decode error: %w", uErr)
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt >= c.cfg.MaxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, httpx.JitterSleep(backoff), 0)
		c.log.Warn("Readme request retrying",
			"url", url,
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if sErr := httpx.SleepCtx(ctx, sleepFor); sErr != nil {
			return sErr
		}
		backoff *= 2
	}
}
