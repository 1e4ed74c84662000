package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"bookhub/pkg/models"
)

// HTTPSource GETs a JSON array of listings, e.g. from a scraper's
// export endpoint.
type HTTPSource struct {
	URL    string
	Client *resty.Client
}

func NewHTTPClient() *resty.Client {
	client := resty.New()
	client.SetHeader("user-agent", "bookhub-feed/1.0")
	client.SetHeader("accept", "application/json")
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(2)
	return client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: NewHTTPClient()}
}

// WithURL returns a source for url sharing this source's client.
func (s *HTTPSource) WithURL(url string) *HTTPSource {
	if s == nil || s.Client == nil {
		return NewHTTPSource(url)
	}
	return &HTTPSource{URL: url, Client: s.Client}
}

func (s *HTTPSource) Name() string { return s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	res, err := s.Client.R().
		SetContext(ctx).
		SetResult(&out).
		ForceContentType("application/json").
		Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", s.URL, res.StatusCode())
	}
	return out, nil
}
