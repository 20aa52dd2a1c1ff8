package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"mark-price-dashboard/src/helpers"
	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// Fetcher
// -----------------------------------------------------------------------------

// Fetcher performs cache-bypassing GET requests with retries.
type Fetcher struct {
	Config models.MNetworkConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFetcher(cfg models.MNetworkConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Get fetches a resource, retrying with exponential backoff on failure.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := helpers.RetryWithBackoff(f.Logger, "fetch "+url, f.Config.MaxRetries,
		time.Duration(f.Config.RetryBaseDelay)*time.Second, func() error {
			b, err := f.getOnce(ctx, url)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	if err != nil {
		return nil, helpers.NewIOError(fmt.Sprintf("fetch %s failed", url), err)
	}
	return body, nil
}

// -----------------------------------------------------------------------------

func (f *Fetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// The upstream resources sit behind static hosting, bypass caches so a
	// refresh actually observes the latest analysis run.
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
