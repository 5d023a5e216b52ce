// Package geocode resolves coordinates to street addresses through Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"i2cgo/pkg/model"
	"i2cgo/pkg/request"
)

const defaultEndpoint = "https://nominatim.openstreetmap.org"

// ErrNotFound is returned when Nominatim has no address for the point.
var ErrNotFound = errors.New("no address found")

// Client handles Nominatim reverse lookups.
type Client struct {
	request   *request.Client
	endpoint  string
	userAgent string
	language  string
	timeout   time.Duration
}

// Options configures a Client. Zero values use Nominatim defaults.
type Options struct {
	Endpoint  string
	UserAgent string
	Language  string
	Timeout   time.Duration
}

// NewClient creates a new Nominatim client.
func NewClient(r *request.Client, opts Options) *Client {
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		request:   r,
		endpoint:  endpoint,
		userAgent: opts.UserAgent,
		language:  opts.Language,
		timeout:   opts.Timeout,
	}
}

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Reverse resolves one point (lon, lat) to a flattened address.
func (c *Client) Reverse(ctx context.Context, p orb.Point) (model.Location, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u, err := url.Parse(c.endpoint + "/reverse")
	if err != nil {
		return model.Location{}, fmt.Errorf("invalid geocoder endpoint: %w", err)
	}
	q := u.Query()
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(p.Lat(), 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon(), 'f', -1, 64))
	q.Set("addressdetails", "1")
	if c.language != "" {
		q.Set("accept-language", c.language)
	}
	u.RawQuery = q.Encode()

	var headers map[string]string
	if c.userAgent != "" {
		headers = map[string]string{"User-Agent": c.userAgent}
	}

	body, err := c.request.GetWithHeaders(ctx, u.String(), headers)
	if err != nil {
		return model.Location{}, err
	}

	var resp reverseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Location{}, fmt.Errorf("failed to decode json: %w", err)
	}
	if resp.Error != "" {
		return model.Location{}, fmt.Errorf("%w: %s", ErrNotFound, resp.Error)
	}

	return flatten(&resp), nil
}

// flatten maps a Nominatim address onto the fixed field set.
// City falls back through town and village.
func flatten(r *reverseResponse) model.Location {
	a := r.Address
	city := a["city"]
	if city == "" {
		city = a["town"]
	}
	if city == "" {
		city = a["village"]
	}
	return model.Location{
		FullAddress: r.DisplayName,
		Country:     a["country"],
		State:       a["state"],
		City:        city,
		Suburb:      a["suburb"],
		Road:        a["road"],
		HouseNumber: a["house_number"],
		Postcode:    a["postcode"],
	}
}
