// Package geocode suggests city names from a Nominatim-compatible search API.
package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ordertrack/internal/jsonutil"
)

const (
	DefaultURL     = "https://nominatim.openstreetmap.org/search"
	DefaultCountry = "fr"
	userAgent      = "ordertrack/1.0"
)

// placeTypes are the result types that name a settlement.
var placeTypes = map[string]bool{
	"city": true, "town": true, "village": true, "hamlet": true,
	"locality": true, "municipality": true, "suburb": true,
}

type place struct {
	Type    string  `json:"type"`
	Name    *string `json:"name"`
	Address struct {
		City     *string `json:"city"`
		Town     *string `json:"town"`
		Village  *string `json:"village"`
		Hamlet   *string `json:"hamlet"`
		Locality *string `json:"locality"`
	} `json:"address"`
}

func (p place) label() string {
	for _, s := range []*string{p.Name, p.Address.City, p.Address.Town, p.Address.Village, p.Address.Hamlet, p.Address.Locality} {
		if s != nil && strings.TrimSpace(*s) != "" {
			return strings.TrimSpace(*s)
		}
	}
	return ""
}

// Client queries the search endpoint restricted to one country.
type Client struct {
	baseURL string
	country string
	http    *http.Client
	tracer  trace.Tracer
}

// New returns a client; empty arguments take the package defaults.
func New(baseURL, country string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if country == "" {
		country = DefaultCountry
	}
	return &Client{
		baseURL: baseURL,
		country: strings.ToLower(country),
		http:    &http.Client{Timeout: 5 * time.Second},
		tracer:  otel.Tracer("ordertrack/geocode"),
	}
}

// Search returns up to limit distinct settlement names matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	ctx, span := c.tracer.Start(ctx, "geocode search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("geocode.country", c.country)),
	)
	defer span.End()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("geocode url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("countrycodes", c.country)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	places, err := jsonutil.UnmarshalArrayAllowEmpty[place](data, "geocode response")
	if err != nil {
		return nil, err
	}

	names := []string{}
	seen := map[string]bool{}
	for _, p := range places {
		if !placeTypes[p.Type] {
			continue
		}
		name := p.label()
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
		if limit > 0 && len(names) == limit {
			break
		}
	}
	return names, nil
}
