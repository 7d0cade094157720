// Package geo resolves street addresses to coordinates through the OSM
// Nominatim search API. Lookups are best-effort; job creation proceeds
// without coordinates when resolution fails.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// defaultEndpoint is the public Nominatim instance.
	defaultEndpoint = "https://nominatim.openstreetmap.org"

	// lookupTimeout bounds one geocoding call. Job creation blocks on the
	// lookup, so keep it short.
	lookupTimeout = 5 * time.Second

	// userAgent identifies us per the Nominatim usage policy.
	userAgent = "shiftbot/1.0"
)

// Client geocodes addresses against a Nominatim endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	Endpoint string       // defaults to the public Nominatim instance
	HTTP     *http.Client // defaults to a client with lookupTimeout
}

// NewClient creates a geocoding client.
func NewClient(opts ClientOpts) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: lookupTimeout}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// searchResult is one row of the Nominatim /search response. Coordinates
// arrive as strings.
type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup resolves an address to coordinates. ok is false when the address
// matched nothing; err is reserved for transport and decoding failures.
func (c *Client) Lookup(ctx context.Context, address string) (lat, lon float64, ok bool, err error) {
	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint+"/search?"+query.Encode(), nil)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geo: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geo: lookup %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return 0, 0, false, fmt.Errorf("geo: lookup %q: %s", address, resp.Status)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, false, fmt.Errorf("geo: decode response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, false, nil
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geo: parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geo: parse longitude %q: %w", results[0].Lon, err)
	}
	return lat, lon, true, nil
}
