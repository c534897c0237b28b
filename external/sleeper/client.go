package sleeper

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/resilience"
	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

const (
	defaultBaseURL    = "https://api.sleeper.app/v1"
	maxBackoffPerTry  = 8 * time.Second
	maxResponseBytes  = 6 << 20
	defaultUserAgent  = "gladiator-league/1.0"
	defaultReqTimeout = 10 * time.Second
)

var errSleeperTransient = crerr.New("sleeper transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads league and roster snapshots from the Sleeper platform API.
// The API is public and read-only; there is no token to manage, but the
// endpoints are rate limited, so every call goes through retry with
// backoff, a circuit breaker, and per-path request coalescing.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	// Operate on a copy so timeout defaulting never mutates a client the
	// caller shares with other components.
	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	} else {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultReqTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchRosters returns every roster in the league. Malformed entries are
// dropped at ingress with a warning instead of propagating half-formed
// records downstream.
func (c *Client) FetchRosters(ctx context.Context, leagueID string) ([]usecase.ExternalRoster, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("league id is required")
	}

	var items []rosterItem
	if err := c.doJSON(ctx, "/league/"+leagueID+"/rosters", &items); err != nil {
		return nil, fmt.Errorf("fetch rosters league_id=%s: %w", leagueID, err)
	}

	out := make([]usecase.ExternalRoster, 0, len(items))
	for _, item := range items {
		mapped, ok := mapRosterItem(item)
		if !ok {
			c.logger.WarnContext(ctx, "drop malformed roster entry", "league_id", leagueID, "roster_id", item.RosterID)
			continue
		}
		out = append(out, mapped)
	}

	return out, nil
}

// FetchLeague returns the league header, used for registry validation and
// operator diagnostics.
func (c *Client) FetchLeague(ctx context.Context, leagueID string) (usecase.ExternalLeague, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return usecase.ExternalLeague{}, fmt.Errorf("league id is required")
	}

	var item leagueItem
	if err := c.doJSON(ctx, "/league/"+leagueID, &item); err != nil {
		return usecase.ExternalLeague{}, fmt.Errorf("fetch league league_id=%s: %w", leagueID, err)
	}
	if strings.TrimSpace(item.LeagueID) == "" {
		return usecase.ExternalLeague{}, fmt.Errorf("league league_id=%s not found", leagueID)
	}

	return usecase.ExternalLeague{
		LeagueID:     strings.TrimSpace(item.LeagueID),
		Name:         strings.TrimSpace(item.Name),
		Season:       strings.TrimSpace(item.Season),
		Status:       strings.TrimSpace(item.Status),
		TotalRosters: item.TotalRosters,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sleeper circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: roster source is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isSleeperCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode roster source payload: %v", errSleeperTransient, err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("user-agent", defaultUserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSleeperTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errSleeperTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: roster source status=%d body=%s", errSleeperTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("roster source status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(retryBackoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("roster source request failed")
	}
	c.logger.WarnContext(ctx, "sleeper request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// retryBackoff doubles per attempt starting at one second, capped so a
// rate-limited league does not stall a whole aggregation pass.
func retryBackoff(attempt int) time.Duration {
	backoff := time.Second << uint(attempt)
	if backoff > maxBackoffPerTry {
		return maxBackoffPerTry
	}
	return backoff
}

func isSleeperCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errSleeperTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
