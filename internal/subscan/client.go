package subscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"go.uber.org/zap"

	"stakingScope/internal/metrics"
	"stakingScope/internal/model"
)

// RetryPolicy controls the client's behaviour on nonzero envelope codes.
// MaxAttempts == 0 retries forever with a fixed delay, which is the explorer
// contract's default; a persistently busy endpoint then stalls the calling
// task indefinitely.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

// Config holds the explorer client settings.
type Config struct {
	Network string
	APIKey  string
	// BaseURL overrides the URL derived from Network. Used in tests.
	BaseURL string
	Retry   RetryPolicy
}

// Client is an authenticated query client for the explorer's REST API.
type Client struct {
	cfg     Config
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewClient builds a Client from explicit configuration. A nil httpc or
// logger falls back to sane defaults.
func NewClient(cfg Config, httpc *http.Client, logger *zap.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Retry.Delay <= 0 {
		cfg.Retry.Delay = time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.subscan.io/api", cfg.Network)
	}
	return &Client{
		cfg:     cfg,
		baseURL: baseURL,
		httpc:   httpc,
		logger:  logger,
		metrics: m,
	}
}

// envelope is the explorer's response wrapper. Code 0 means success; any
// other value is retryable.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Query POSTs payload to an endpoint path and decodes the success envelope's
// data into out. Nonzero envelope codes are logged and retried after a fixed
// delay per the retry policy. Undecodable data in a successful response is
// treated as absence, not as an error.
func (c *Client) Query(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	for attempt := 1; ; attempt++ {
		env, err := c.post(ctx, path, body)
		if err != nil {
			return err
		}

		if env.Code == 0 {
			if out == nil || len(env.Data) == 0 {
				return nil
			}
			dst := reflect.ValueOf(out)
			if dst.Kind() != reflect.Pointer || dst.IsNil() {
				return fmt.Errorf("out must be a non-nil pointer")
			}
			// Decode into a fresh value; a failed decode must leave out
			// untouched so absence stays strictly empty.
			tmp := reflect.New(dst.Elem().Type())
			if err := json.Unmarshal(env.Data, tmp.Interface()); err != nil {
				c.logger.Debug("undecodable response data",
					zap.String("endpoint", path),
					zap.Error(err),
				)
				return nil
			}
			dst.Elem().Set(tmp.Elem())
			return nil
		}

		c.logger.Warn("explorer returned nonzero code",
			zap.String("endpoint", path),
			zap.Int("code", env.Code),
			zap.String("message", env.Message),
			zap.Duration("delay", c.cfg.Retry.Delay),
		)

		if c.cfg.Retry.MaxAttempts > 0 && attempt >= c.cfg.Retry.MaxAttempts {
			return fmt.Errorf("explorer code %d after %d attempts: %s", env.Code, attempt, env.Message)
		}

		c.metrics.ClientRetries()
		timer := time.NewTimer(c.cfg.Retry.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// Events fetches typed parameters for the given event indexes.
func (c *Client) Events(ctx context.Context, eventIndexes []string) ([]model.Event, error) {
	payload := map[string]any{"event_index": eventIndexes}

	var records []eventRecord
	if err := c.Query(ctx, "scan/event/params", payload, &records); err != nil {
		return nil, err
	}

	events, skips := normalizeEvents(records)
	c.logSkips("scan/event/params", skips)
	return events, nil
}

// ExtrinsicEvents fetches the ordered events emitted by one extrinsic.
func (c *Client) ExtrinsicEvents(ctx context.Context, extrinsicIndex string) ([]model.Event, error) {
	payload := map[string]any{
		"extrinsic_index":      extrinsicIndex,
		"only_extrinsic_event": true,
	}

	var detail extrinsicDetail
	if err := c.Query(ctx, "scan/extrinsic", payload, &detail); err != nil {
		return nil, err
	}

	events, skips := normalizeDetailEvents(detail.Event)
	c.logSkips("scan/extrinsic", skips)
	return events, nil
}

// StakingOperations lists operation skeletons for one staking call kind.
// An empty address matches all signers.
func (c *Client) StakingOperations(ctx context.Context, address string, call model.CallKind, page, rows int) ([]model.Operation, error) {
	payload := map[string]any{
		"address": address,
		"row":     rows,
		"page":    page,
		"module":  "staking",
		"call":    string(call),
		"success": true,
	}

	var pageData extrinsicsPage
	if err := c.Query(ctx, "scan/extrinsics", payload, &pageData); err != nil {
		return nil, err
	}

	ops, skips := normalizeOperations(pageData.Extrinsics, call)
	c.logSkips("scan/extrinsics", skips)
	return ops, nil
}

// BatchOperations lists utility batch extrinsics and decodes their bundled
// staking sub-calls into classified operations.
func (c *Client) BatchOperations(ctx context.Context, address string, page, rows int) ([]model.Operation, error) {
	payload := map[string]any{
		"address": address,
		"row":     rows,
		"page":    page,
		"module":  "utility",
		"call":    "batch_all",
		"success": true,
	}

	var pageData extrinsicsPage
	if err := c.Query(ctx, "scan/extrinsics", payload, &pageData); err != nil {
		return nil, err
	}

	ops, skips := decodeBatchOperations(pageData.Extrinsics)
	c.logSkips("scan/extrinsics(batch_all)", skips)
	return ops, nil
}

func (c *Client) logSkips(endpoint string, skips []Skip) {
	c.metrics.RecordsSkipped(len(skips))
	for _, skip := range skips {
		c.logger.Debug("record skipped",
			zap.String("endpoint", endpoint),
			zap.String("index", skip.Index),
			zap.String("reason", skip.Reason),
		)
	}
}
