// Package rover talks to the Mars rover photo API.
package rover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sndcds/redrovr/catalog"
)

const (
	DefaultBaseURL = "https://api.nasa.gov/mars-photos/api/v1"
	DefaultRover   = "curiosity"

	// maxImageBytes bounds a single download.
	maxImageBytes = 32 << 20
)

// Photo is one entry of a photo listing.
type Photo struct {
	ID        int    `json:"id"`
	Sol       int    `json:"sol"`
	ImgSrc    string `json:"img_src"`
	EarthDate string `json:"earth_date"`
	Camera    struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"camera"`
	Rover struct {
		Name   string `json:"name"`
		MaxSol int    `json:"max_sol"`
	} `json:"rover"`
}

type listing struct {
	Photos []Photo `json:"photos"`
}

// Client queries one rover's photo listing. Every request, including image
// downloads, waits on a shared rate limiter.
type Client struct {
	baseURL string
	rover   string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

type Options struct {
	BaseURL  string
	Rover    string
	APIKey   string
	Timeout  time.Duration
	Interval time.Duration // minimum spacing between requests, 0 = unlimited
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Rover == "" {
		opts.Rover = DefaultRover
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &Client{
		baseURL: opts.BaseURL,
		rover:   opts.Rover,
		apiKey:  opts.APIKey,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// MaxSol asks for sol 0 and reads the mission's current maximum sol from
// the rover block of the entries.
func (c *Client) MaxSol(ctx context.Context) (int, error) {
	photos, err := c.list(ctx, 0)
	if err != nil {
		return 0, &catalog.ExternalServiceError{Op: "probe", Err: err}
	}
	if len(photos) == 0 {
		return 0, &catalog.ExternalServiceError{Op: "probe", Err: fmt.Errorf("empty listing")}
	}

	maxSol := photos[0].Rover.MaxSol
	for _, p := range photos[1:] {
		if p.Rover.MaxSol > maxSol {
			maxSol = p.Rover.MaxSol
		}
	}
	if maxSol <= 0 {
		return 0, &catalog.ExternalServiceError{Op: "probe", Err: fmt.Errorf("listing has no max_sol")}
	}
	return maxSol, nil
}

// Photos returns the first page of the listing for sol.
func (c *Client) Photos(ctx context.Context, sol int) ([]Photo, error) {
	photos, err := c.list(ctx, sol)
	if err != nil {
		return nil, &catalog.ExternalServiceError{Op: "listing", Err: err}
	}
	return photos, nil
}

func (c *Client) list(ctx context.Context, sol int) ([]Photo, error) {
	q := url.Values{}
	q.Set("sol", strconv.Itoa(sol))
	q.Set("api_key", c.apiKey)
	endpoint := fmt.Sprintf("%s/rovers/%s/photos?%s", c.baseURL, url.PathEscape(c.rover), q.Encode())

	body, err := c.get(ctx, endpoint, 0)
	if err != nil {
		return nil, err
	}

	var result listing
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	return result.Photos, nil
}

// Download fetches the bytes behind an img_src URL.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	return c.get(ctx, imageURL, maxImageBytes)
}

func (c *Client) get(ctx context.Context, endpoint string, limit int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "redrovr/1.0 (+https://github.com/sndcds/redrovr)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("response larger than %d bytes", limit)
	}
	return data, nil
}
