// Package rakuten fetches room vacancy data from the Rakuten Travel
// VacantHotelSearch API and normalizes its drifting response schema into
// canonical availability records.
package rakuten

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

const (
	defaultBaseURL = "https://app.rakuten.co.jp/services/api/Travel/VacantHotelSearch/20170426"

	// defaultMinInterval spaces successive API calls. The public API
	// throttles aggressively; one request per two seconds stays under it.
	defaultMinInterval = 2 * time.Second

	// rateLimitBackoff is how long to wait after a 429 before giving the
	// caller back control.
	rateLimitBackoff = 5 * time.Second

	// errorBodyLimit caps how much of an upstream error body is kept.
	errorBodyLimit = 100
)

// Common client errors
var (
	ErrMissingAppID = errors.New("rakuten application id is not configured")
	ErrRateLimited  = errors.New("rate limited by vacancy API")
)

// HTTPError reports a non-2xx response from the vacancy API. The body is
// truncated so it stays loggable.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("vacancy API returned status %d: %s", e.StatusCode, e.Body)
}

// ClientConfig holds construction parameters for Client. Zero values fall
// back to production defaults; tests override BaseURL and MinInterval.
type ClientConfig struct {
	AppID       string
	HotelNo     string
	BaseURL     string
	HTTPClient  *http.Client
	MinInterval time.Duration
	Logger      *slog.Logger
}

// Client is a sequential-use client for the VacantHotelSearch endpoint.
// It performs no storage or interpretation beyond schema decoding.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	appID       string
	hotelNo     string
	minInterval time.Duration
	logger      *slog.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.AppID == "" {
		return nil, ErrMissingAppID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		httpClient:  cfg.HTTPClient,
		baseURL:     cfg.BaseURL,
		appID:       cfg.AppID,
		hotelNo:     cfg.HotelNo,
		minInterval: cfg.MinInterval,
		logger:      cfg.Logger,
	}, nil
}

// FetchAvailability queries vacancies for a stay starting at checkin. A 404
// from the API means no rooms are bookable for that date and yields an empty
// response, not an error. A 429 waits out a short backoff and then returns
// ErrRateLimited so the caller can count the date as failed.
func (c *Client) FetchAvailability(ctx context.Context, checkin datetime.Date, stayNights int) (*VacantHotelResponse, error) {
	if stayNights < 1 {
		stayNights = 1
	}
	checkout := checkin.AddDays(stayNights)

	if err := c.waitInterval(ctx); err != nil {
		return nil, err
	}

	reqURL := c.buildURL(checkin, checkout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building vacancy request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching vacancies for %s: %w", checkin, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No vacancies for this date. A valid outcome, not a failure.
		c.logger.Debug("no vacancies", slog.String("checkin", checkin.String()))
		return &VacantHotelResponse{}, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("vacancy API rate limited, backing off",
			slog.String("checkin", checkin.String()),
			slog.Duration("backoff", rateLimitBackoff))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rateLimitBackoff):
		}
		return nil, ErrRateLimited

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed VacantHotelResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding vacancy response for %s: %w", checkin, err)
	}

	return &parsed, nil
}

// FetchDay fetches a one-night stay for checkin and returns normalized
// availability records. This is the surface the monitor driver consumes.
func (c *Client) FetchDay(ctx context.Context, checkin datetime.Date) ([]model.RoomAvailability, error) {
	resp, err := c.FetchAvailability(ctx, checkin, 1)
	if err != nil {
		return nil, err
	}
	return Normalize(resp, checkin, checkin.AddDays(1)), nil
}

func (c *Client) buildURL(checkin, checkout datetime.Date) string {
	params := url.Values{}
	params.Set("applicationId", c.appID)
	params.Set("hotelNo", c.hotelNo)
	params.Set("checkinDate", checkin.String())
	params.Set("checkoutDate", checkout.String())
	params.Set("format", "json")
	return c.baseURL + "?" + params.Encode()
}

// waitInterval enforces the minimum spacing between requests.
func (c *Client) waitInterval(ctx context.Context) error {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	wait := c.minInterval - elapsed
	c.lastRequest = time.Now().Add(max(wait, 0))
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
