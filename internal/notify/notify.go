package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantsweep/sweepd/internal/chain"
	"github.com/quantsweep/sweepd/internal/config"
)

// Notifier is the interface for sending refresh notifications.
type Notifier interface {
	SendSuccess(ctx context.Context, result *chain.BatchResult, duration time.Duration) error
	SendFailure(ctx context.Context, result *chain.BatchResult, duration time.Duration, err error) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     config.NotifyConfig
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg config.NotifyConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// SendSuccess sends a refresh-complete notification.
func (c *Client) SendSuccess(ctx context.Context, result *chain.BatchResult, duration time.Duration) error {
	title := fmt.Sprintf("Chain Refresh Complete: %d/%d symbols", result.Success, result.Total)
	return c.send(ctx, title, FormatSuccessMessage(result, duration), "chart_with_upwards_trend", c.config.Priority)
}

// SendFailure sends a refresh-failed notification at high priority.
func (c *Client) SendFailure(ctx context.Context, result *chain.BatchResult, duration time.Duration, err error) error {
	title := fmt.Sprintf("Chain Refresh Failed: %d/%d symbols", result.Failed, result.Total)
	return c.send(ctx, title, FormatFailureMessage(result, duration, err), "x", "high")
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.ServerURL, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendSuccess is a no-op.
func (n *NoopNotifier) SendSuccess(_ context.Context, _ *chain.BatchResult, _ time.Duration) error {
	return nil
}

// SendFailure is a no-op.
func (n *NoopNotifier) SendFailure(_ context.Context, _ *chain.BatchResult, _ time.Duration, _ error) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg config.NotifyConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
