// Package apiclient talks to the portfolio HTTP API. Client also serves as an
// editor.Backend so terminal sessions persist through the API.
package apiclient

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

	"github.com/MarcoPoloResearchLab/modulux/internal/editor"
	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrUnauthorized reports a missing or rejected session token.
	ErrUnauthorized = errors.New("apiclient: unauthorized")
	// ErrNotFound reports a missing or foreign portfolio.
	ErrNotFound = errors.New("apiclient: not found")
	// ErrConflict reports a stale version on update.
	ErrConflict = errors.New("apiclient: version conflict")
	// ErrInvalidRequest reports a 400 response.
	ErrInvalidRequest = errors.New("apiclient: invalid request")
)

// APIError carries the error body of a failed response.
type APIError struct {
	Status  int
	Message string
	Code    string
	kind    error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

var _ editor.Backend = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	trimmed := strings.TrimSpace(cfg.BaseURL)
	if trimmed == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	parsed, err := url.Parse(strings.TrimRight(trimmed, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: parsed, token: cfg.Token, httpClient: httpClient}, nil
}

type portfolioEnvelope struct {
	Success   bool                 `json:"success"`
	Portfolio portfolios.Portfolio `json:"portfolio"`
}

type listEnvelope struct {
	Success    bool                   `json:"success"`
	Portfolios []portfolios.Portfolio `json:"portfolios"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) List(ctx context.Context) ([]portfolios.Portfolio, error) {
	var envelope listEnvelope
	if err := c.do(ctx, http.MethodGet, "/portfolios", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Portfolios, nil
}

func (c *Client) Create(ctx context.Context, name string) (portfolios.Portfolio, error) {
	var envelope portfolioEnvelope
	if err := c.do(ctx, http.MethodPost, "/portfolios", map[string]string{"name": name}, &envelope); err != nil {
		return portfolios.Portfolio{}, err
	}
	return envelope.Portfolio, nil
}

func (c *Client) Get(ctx context.Context, id string) (portfolios.Portfolio, error) {
	var envelope portfolioEnvelope
	if err := c.do(ctx, http.MethodGet, "/portfolios/"+url.PathEscape(id), nil, &envelope); err != nil {
		return portfolios.Portfolio{}, err
	}
	return envelope.Portfolio, nil
}

func (c *Client) Update(ctx context.Context, id string, patch portfolios.Patch) (portfolios.Portfolio, error) {
	var envelope portfolioEnvelope
	if err := c.do(ctx, http.MethodPut, "/portfolios/"+url.PathEscape(id), patch, &envelope); err != nil {
		return portfolios.Portfolio{}, err
	}
	return envelope.Portfolio, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/portfolios/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Publish(ctx context.Context, id string) (portfolios.Portfolio, error) {
	var envelope portfolioEnvelope
	if err := c.do(ctx, http.MethodPost, "/portfolios/"+url.PathEscape(id)+"/publish", nil, &envelope); err != nil {
		return portfolios.Portfolio{}, err
	}
	return envelope.Portfolio, nil
}

func (c *Client) Duplicate(ctx context.Context, id string, name string) (portfolios.Portfolio, error) {
	var envelope portfolioEnvelope
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/portfolios/"+url.PathEscape(id)+"/duplicate", body, &envelope); err != nil {
		return portfolios.Portfolio{}, err
	}
	return envelope.Portfolio, nil
}

func (c *Client) Catalog(ctx context.Context) ([]sections.Descriptor, error) {
	var envelope struct {
		Success  bool                  `json:"success"`
		Sections []sections.Descriptor `json:"sections"`
	}
	if err := c.do(ctx, http.MethodGet, "/sections/catalog", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Sections, nil
}

// Fetch implements editor.Backend.
func (c *Client) Fetch(ctx context.Context, portfolioID string) (editor.Snapshot, bool, error) {
	portfolio, err := c.Get(ctx, portfolioID)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRequest) {
		return editor.Snapshot{}, false, nil
	}
	if err != nil {
		return editor.Snapshot{}, false, err
	}
	return editor.Snapshot{Name: portfolio.Name, Sections: portfolio.Sections, Version: portfolio.Version}, true, nil
}

// SaveSections implements editor.Backend.
func (c *Client) SaveSections(ctx context.Context, portfolioID string, collection []sections.Section, expectedVersion int64) (int64, error) {
	portfolio, err := c.Update(ctx, portfolioID, portfolios.Patch{Sections: &collection, Version: &expectedVersion})
	switch {
	case errors.Is(err, ErrConflict):
		return 0, fmt.Errorf("%w: %v", editor.ErrConflict, err)
	case errors.Is(err, ErrNotFound):
		return 0, fmt.Errorf("%w: %v", editor.ErrNotFound, err)
	case err != nil:
		return 0, err
	}
	return portfolio.Version, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, target any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return decodeError(response)
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(response *http.Response) error {
	var envelope errorEnvelope
	_ = json.NewDecoder(io.LimitReader(response.Body, 64<<10)).Decode(&envelope)
	apiErr := &APIError{Status: response.StatusCode, Message: envelope.Error, Code: envelope.Code}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(response.StatusCode)
	}
	switch response.StatusCode {
	case http.StatusUnauthorized:
		apiErr.kind = ErrUnauthorized
	case http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case http.StatusConflict:
		apiErr.kind = ErrConflict
	case http.StatusBadRequest:
		apiErr.kind = ErrInvalidRequest
	}
	return apiErr
}
