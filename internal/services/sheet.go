package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelarin/rosync/internal/shared"
)

// SheetFeed implements [RosterFeed] over a published-to-web spreadsheet CSV
// URL. Spreadsheet exports sit behind aggressive edge caches, so the feed can
// append a timestamp query parameter to force a fresh copy.
type SheetFeed struct {
	url        string
	cacheBust  bool
	httpClient *http.Client
	now        func() time.Time
}

// NewSheetFeed creates a feed for the given published CSV URL.
func NewSheetFeed(rawURL string, cacheBust bool, client *http.Client) *SheetFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetFeed{
		url:        rawURL,
		cacheBust:  cacheBust,
		httpClient: client,
		now:        time.Now,
	}
}

// Fetch downloads the roster CSV. Non-2xx responses and empty bodies are
// errors of the fatal-run class.
func (f *SheetFeed) Fetch(ctx context.Context) ([]byte, error) {
	target := f.url
	if f.cacheBust {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "t=" + url.QueryEscape(strconv.FormatInt(f.now().Unix(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, shared.ErrEmptyFeed
	}

	return body, nil
}
