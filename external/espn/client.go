package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/cache"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/resilience"
	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

const (
	defaultReadsBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3"
	defaultFanBaseURL   = "https://fan.api.espn.com/apis/v2"
	defaultSoftTimeout  = 3500 * time.Millisecond
	defaultHardTimeout  = 8 * time.Second

	maxResponseBytes = 6 << 20
)

// ClientConfig configures the provider reader. SoftTimeout bounds each
// request's context; HardTimeout is the transport-level abort.
type ClientConfig struct {
	HTTPClient     *http.Client
	ReadsBaseURL   string
	FanBaseURL     string
	SoftTimeout    time.Duration
	HardTimeout    time.Duration
	UserAgent      string
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads league data from the upstream fantasy provider. It never
// retries: a failed read surfaces immediately and retry policy stays
// with the caller.
type Client struct {
	httpClient     *http.Client
	readsBaseURL   string
	fanBaseURL     string
	softTimeout    time.Duration
	userAgent      string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	cache          *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	hardTimeout := cfg.HardTimeout
	if hardTimeout <= 0 {
		hardTimeout = defaultHardTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   hardTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = hardTimeout
	}

	softTimeout := cfg.SoftTimeout
	if softTimeout <= 0 {
		softTimeout = defaultSoftTimeout
	}

	readsBaseURL := strings.TrimRight(strings.TrimSpace(cfg.ReadsBaseURL), "/")
	if readsBaseURL == "" {
		readsBaseURL = defaultReadsBaseURL
	}
	fanBaseURL := strings.TrimRight(strings.TrimSpace(cfg.FanBaseURL), "/")
	if fanBaseURL == "" {
		fanBaseURL = defaultFanBaseURL
	}

	var store *cache.Store
	if cfg.CacheTTL > 0 {
		store = cache.NewStore(cfg.CacheTTL)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	return &Client{
		httpClient:     httpClient,
		readsBaseURL:   readsBaseURL,
		fanBaseURL:     fanBaseURL,
		softTimeout:    softTimeout,
		userAgent:      strings.TrimSpace(cfg.UserAgent),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		cache:          store,
	}
}

// League fetches one league bundle with teams and settings attached.
func (c *Client) League(ctx context.Context, sport string, season int, leagueID string, token credential.Token) (map[string]any, error) {
	if strings.TrimSpace(leagueID) == "" {
		return nil, fmt.Errorf("league id must not be empty")
	}
	if season <= 0 {
		return nil, fmt.Errorf("season must be greater than zero")
	}

	fullURL := c.readsBaseURL + "/games/" + url.PathEscape(strings.ToLower(strings.TrimSpace(sport))) +
		"/seasons/" + strconv.Itoa(season) +
		"/segments/0/leagues/" + url.PathEscape(strings.TrimSpace(leagueID)) +
		"?view=mTeam&view=mSettings"

	var bundle map[string]any
	if err := c.getJSON(ctx, fullURL, token, nil, &bundle); err != nil {
		return nil, fmt.Errorf("fetch league sport=%s season=%d league_id=%s: %w", sport, season, leagueID, err)
	}
	return bundle, nil
}

// LeaguesForOwner lists the league bundles an owner participates in for
// one sport and season. conditional headers (If-None-Match and friends)
// may be attached for the discovery path; a 304 yields an empty slice.
func (c *Client) LeaguesForOwner(ctx context.Context, sport string, season int, ownerGUID string, token credential.Token, conditional http.Header) ([]map[string]any, error) {
	if strings.TrimSpace(ownerGUID) == "" {
		return nil, fmt.Errorf("owner guid must not be empty")
	}

	query := url.Values{}
	query.Set("forTeamOwner", ownerGUID)
	query.Add("view", "mTeam")
	query.Add("view", "mSettings")
	fullURL := c.readsBaseURL + "/games/" + url.PathEscape(strings.ToLower(strings.TrimSpace(sport))) +
		"/seasons/" + strconv.Itoa(season) +
		"/segments/0/leagues?" + query.Encode()

	var bundles []map[string]any
	if err := c.getJSON(ctx, fullURL, token, conditional, &bundles); err != nil {
		return nil, fmt.Errorf("fetch owner leagues sport=%s season=%d: %w", sport, season, err)
	}
	return bundles, nil
}

// Fan fetches the provider's fan profile for an owner, a bag of
// preferences whose fantasy entries point at the owner's leagues.
func (c *Client) Fan(ctx context.Context, ownerGUID string, token credential.Token) (map[string]any, error) {
	if strings.TrimSpace(ownerGUID) == "" {
		return nil, fmt.Errorf("owner guid must not be empty")
	}

	fullURL := c.fanBaseURL + "/fans/" + url.PathEscape(strings.TrimSpace(ownerGUID))

	var profile map[string]any
	if err := c.getJSON(ctx, fullURL, token, nil, &profile); err != nil {
		return nil, fmt.Errorf("fetch fan profile: %w", err)
	}
	return profile, nil
}

// getJSON runs one authenticated GET through the breaker and the burst
// cache, then decodes into target. An empty body (304 path) leaves
// target untouched.
func (c *Client) getJSON(ctx context.Context, fullURL string, token credential.Token, conditional http.Header, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "provider circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fantasy provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	load := func(ctx context.Context) (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, token, conditional)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	}

	key := credential.Hash(token.SWID) + "|" + fullURL
	var out any
	var err error
	if c.cache != nil && conditional == nil {
		out, err = c.cache.GetOrLoad(ctx, key, load)
	} else {
		out, err, _ = c.flight.Do(key, func() (any, error) { return load(ctx) })
	}
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if len(raw) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

// executeRequest performs exactly one attempt against the provider.
func (c *Client) executeRequest(ctx context.Context, fullURL string, token credential.Token, conditional http.Header) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.softTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	attachCredential(req, token)
	for name, values := range conditional {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, fmt.Errorf("provider deadline exceeded: %w", reqCtx.Err())
		}
		return nil, fmt.Errorf("send request: %s", sanitizeSensitiveText(err.Error(), token))
	}
	defer func() { _ = resp.Body.Close() }()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(newLimitedBody(resp.Body)); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified && conditional != nil {
		return nil, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		raw := make([]byte, buf.Len())
		copy(raw, buf.B)
		return raw, nil
	}

	fetchErr := &FetchError{
		Status: resp.StatusCode,
		URL:    redactProviderURL(fullURL),
		Body:   abbreviateBody(buf.B),
	}
	c.logger.WarnContext(ctx, "provider request failed", "status", resp.StatusCode, "url", fetchErr.URL)
	return nil, fetchErr
}

func attachCredential(req *http.Request, token credential.Token) {
	swid := strings.TrimSpace(token.SWID)
	s2 := strings.TrimSpace(token.S2)
	if swid == "" && s2 == "" {
		return
	}
	req.Header.Set("Cookie", fmt.Sprintf("SWID=%s; s2=%s", swid, s2))
	req.Header.Set("X-Provider-SWID", url.QueryEscape(swid))
	req.Header.Set("X-Provider-S2", s2)
}
