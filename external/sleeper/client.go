package sleeper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

const (
	defaultBaseURL = "https://api.sleeper.app/v1"
	defaultTimeout = 5 * time.Second

	maxResponseBytes = 4 << 20
)

// ClientConfig configures the secondary-provider reader.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Name    string
	Logger  *logging.Logger
}

// Client reads public league data from the secondary provider. The API
// is unauthenticated, so there is no credential plumbing here.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
	logger  *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "fein-engine"
	}

	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		client: &fasthttp.Client{
			Name:                name,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBytes,
		},
		logger: logger,
	}
}

// League fetches one league header.
func (c *Client) League(ctx context.Context, leagueID string) (map[string]any, error) {
	var league map[string]any
	if err := c.getJSON(ctx, "/league/"+url.PathEscape(leagueID), &league); err != nil {
		return nil, fmt.Errorf("fetch sleeper league %s: %w", leagueID, err)
	}
	return league, nil
}

// Rosters fetches the league's rosters, one per team slot.
func (c *Client) Rosters(ctx context.Context, leagueID string) ([]map[string]any, error) {
	var rosters []map[string]any
	if err := c.getJSON(ctx, "/league/"+url.PathEscape(leagueID)+"/rosters", &rosters); err != nil {
		return nil, fmt.Errorf("fetch sleeper rosters %s: %w", leagueID, err)
	}
	return rosters, nil
}

// Users fetches the league's member profiles for display names.
func (c *Client) Users(ctx context.Context, leagueID string) ([]map[string]any, error) {
	var users []map[string]any
	if err := c.getJSON(ctx, "/league/"+url.PathEscape(leagueID)+"/users", &users); err != nil {
		return nil, fmt.Errorf("fetch sleeper users %s: %w", leagueID, err)
	}
	return users, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	if strings.TrimSpace(path) == "/league/" {
		return fmt.Errorf("league id must not be empty")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		c.logger.WarnContext(ctx, "sleeper request failed", "path", path, "error", err)
		return fmt.Errorf("send request: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("sleeper status=%d path=%s", status, path)
	}

	body := resp.Body()
	if len(body) == 0 || string(body) == "null" {
		return nil
	}
	if err := sonic.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode sleeper payload: %w", err)
	}
	return nil
}
