package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"FeedDigest/internal/retry"
)

const maxPageBytes = 8 << 20

// Downloader fetches article pages, retrying transient failures.
type Downloader struct {
	client    *http.Client
	userAgent string
	policy    retry.Policy
	limiter   *hostLimiter
	logger    *slog.Logger
}

// NewDownloader wires an HTTP client; a nil client gets a 30s timeout.
// Requests to one host are at least hostInterval apart; zero disables spacing.
func NewDownloader(client *http.Client, userAgent string, policy retry.Policy, hostInterval time.Duration, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Downloader{
		client:    client,
		userAgent: userAgent,
		policy:    policy,
		limiter:   newHostLimiter(hostInterval),
		logger:    logger,
	}
}

// Download returns the page body. 429 and 5xx responses and transport errors are retried.
func (d *Downloader) Download(ctx context.Context, pageURL string) (string, error) {
	return retry.Do(ctx, d.policy, func() (string, error) {
		d.logger.Debug("downloading", "url", pageURL)
		return d.get(ctx, pageURL)
	}, func(attempt int, err error, wait time.Duration) {
		d.logger.Warn("download failed, retrying", "url", pageURL, "attempt", attempt, "wait", wait, "error", err)
	})
}

func (d *Downloader) get(ctx context.Context, pageURL string) (string, error) {
	if err := d.limiter.Wait(ctx, pageURL); err != nil {
		return "", retry.Permanent(fmt.Errorf("wait for host: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("page returned %s", resp.Status)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", statusErr
		}
		return "", retry.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(body), nil
}
