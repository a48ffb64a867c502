package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotabull/supportsync/internal/pkg/httpx"
	"github.com/rotabull/supportsync/internal/pkg/logger"
)

// Client talks to the Forge document-indexing service: collection lifecycle,
// document upload, and context-augmented queries.
type Client interface {
	CreateCollection(ctx context.Context, name string) (*Collection, error)
	DeleteCollection(ctx context.Context, name string) error
	CreateDocument(ctx context.Context, doc Document) error
	QueryWithContext(ctx context.Context, prompt string, opts ContextOptions) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Forge API key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing Forge base URL")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &client{
		log:  log.With("client", "ForgeClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// IsNotFound reports whether err is a Forge 404, e.g. deleting a collection
// that was never created.
func IsNotFound(err error) bool {
	var sc httpx.HTTPStatusCoder
	return errors.As(err, &sc) && sc.HTTPStatusCode() == http.StatusNotFound
}

// -------------------- collections --------------------

type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

func (c *client) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("collection name required")
	}
	return doJSON[Collection](c, ctx, "POST", c.cfg.BaseURL+"/collections", createCollectionRequest{Name: name})
}

func (c *client) DeleteCollection(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("collection name required")
	}
	_, err := doJSON[struct{}](c, ctx, "DELETE", c.cfg.BaseURL+"/collections/"+name, nil)
	return err
}

// -------------------- documents --------------------

type Document struct {
	Name          string   `json:"name"`
	Text          string   `json:"text"`
	CollectionIDs []string `json:"collectionIds"`
}

func (c *client) CreateDocument(ctx context.Context, doc Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("document name required")
	}
	if len(doc.CollectionIDs) == 0 {
		return fmt.Errorf("document requires at least one collection")
	}
	_, err := doJSON[struct{}](c, ctx, "POST", c.cfg.BaseURL+"/documents", doc)
	return err
}

// -------------------- context queries --------------------

type ContextOptions struct {
	CollectionID string `json:"collectionId"`
	ChunkCount   int    `json:"chunkCount"`
}

type contextQueryRequest struct {
	Prompt       string `json:"prompt"`
	CollectionID string `json:"collectionId"`
	ChunkCount   int    `json:"chunkCount"`
}

type contextQueryResponse struct {
	Response string `json:"response"`
}

// QueryWithContext runs a retrieval-augmented query scoped to one
// collection and returns the model's text response.
func (c *client) QueryWithContext(ctx context.Context, prompt string, opts ContextOptions) (string, error) {
	if strings.TrimSpace(opts.CollectionID) == "" {
		return "", fmt.Errorf("collection id required")
	}
	if opts.ChunkCount <= 0 {
		opts.ChunkCount = 10
	}
	out, err := doJSON[contextQueryResponse](c, ctx, "POST", c.cfg.BaseURL+"/context", contextQueryRequest{
		Prompt:       prompt,
		CollectionID: opts.CollectionID,
		ChunkCount:   opts.ChunkCount,
	})
	if err != nil {
		return "", err
	}
	return out.Response, nil
}

// -------------------- helpers --------------------

func doJSON[T any](c *client, ctx context.Context, method, url string, body any) (*T, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("forge decode error: %w; raw=%s", err, string(raw))
		}
	}
	return &out, nil
}
