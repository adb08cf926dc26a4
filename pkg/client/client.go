package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/bitsync/pkg/api"
)

// Version is reported in the default User-Agent. Set via ldflags at build time.
var Version = "dev"

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 64 << 10

// Client talks to a bitsync server.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	userAgent string
	obs       *observer
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("bitsync: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bitsync: base url %q must be absolute", baseURL)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	ua := cfg.userAgent
	if ua == "" {
		ua = "bitsync-go/" + Version
	}

	return &Client{baseURL: u, http: hc, apiKey: cfg.apiKey, userAgent: ua, obs: obs}, nil
}

// Search runs GET /search. Pipeline failures come back as a response with
// status "failed", not as an error.
func (c *Client) Search(ctx context.Context, params api.SearchParams) (*api.SearchResponse, error) {
	q := url.Values{}
	err := addParams(q,
		styled("q", params.Q),
		styled("category", params.Category),
		styled("language", params.Language),
		styled("visibility", params.Visibility),
		styled("dateRange", params.DateRange),
		styled("sort", params.Sort),
		styled("limit", params.Limit),
	)
	if err != nil {
		return nil, err
	}
	var out api.SearchResponse
	if err := c.do(ctx, "search", http.MethodGet, "/search", q, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explore runs GET /explore.
func (c *Client) Explore(ctx context.Context, params api.ExploreParams) (*api.ExploreResponse, error) {
	q := url.Values{}
	if err := addParams(q, styled("filter", params.Filter), styled("limit", params.Limit)); err != nil {
		return nil, err
	}
	var out api.ExploreResponse
	if err := c.do(ctx, "explore", http.MethodGet, "/explore", q, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRepositories runs GET /users/{owner}/repositories.
func (c *Client) ListRepositories(
	ctx context.Context, owner string, params api.ListRepositoriesParams,
) (*api.RepositoryListResponse, error) {
	path, err := repositoriesPath(owner)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	err = addParams(q,
		styled("q", params.Q),
		styled("visibility", params.Visibility),
		styled("sort", params.Sort),
	)
	if err != nil {
		return nil, err
	}
	var out api.RepositoryListResponse
	if err := c.do(ctx, "list_repositories", http.MethodGet, path, q, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRepository runs POST /users/{owner}/repositories.
func (c *Client) CreateRepository(
	ctx context.Context, owner string, body api.CreateRepositoryRequest,
) (*api.Repository, error) {
	path, err := repositoriesPath(owner)
	if err != nil {
		return nil, err
	}
	var out api.Repository
	if err := c.do(ctx, "create_repository", http.MethodPost, path, nil, body, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health runs GET /health. A degraded or unhealthy server is reported
// through the response status, not as an error.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &out,
		http.StatusOK, http.StatusServiceUnavailable)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(
	ctx context.Context, op, method, path string, query url.Values, body, out any, accept ...int,
) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	// path segments are already escaped by the styler.
	u, err := url.Parse(c.baseURL.String() + path)
	if err != nil {
		return fmt.Errorf("bitsync: build %s url: %w", op, err)
	}
	u.RawQuery = query.Encode()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bitsync: encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("bitsync: build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bitsync: %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !slices.Contains(accept, resp.StatusCode) {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bitsync: decode %s response: %w", op, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body api.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Fields = body.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// param is one optional query parameter.
type param struct {
	name  string
	value any
	set   bool
}

func styled[T any](name string, v *T) param {
	if v == nil {
		return param{name: name}
	}
	return param{name: name, value: *v, set: true}
}

// addParams encodes the set parameters with form style, explode=true.
func addParams(q url.Values, params ...param) error {
	for _, p := range params {
		if !p.set {
			continue
		}
		frag, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return fmt.Errorf("bitsync: style %s: %w", p.name, err)
		}
		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return fmt.Errorf("bitsync: parse %s: %w", p.name, err)
		}
		for k, vs := range parsed {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
	}
	return nil
}

func repositoriesPath(owner string) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("bitsync: owner is required: %w", ErrInvalidQuery)
	}
	seg, err := runtime.StyleParamWithLocation("simple", false, "owner", runtime.ParamLocationPath, owner)
	if err != nil {
		return "", fmt.Errorf("bitsync: style owner: %w", err)
	}
	return "/users/" + seg + "/repositories", nil
}
