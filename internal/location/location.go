package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oshokin/sos-sentinel/internal/domain/alert"
	"github.com/oshokin/sos-sentinel/internal/version"
)

// errUnexpectedStatus is returned when the geolocation service answers with an error code.
var errUnexpectedStatus = errors.New("unexpected geolocation status")

// StaticSource always reports the same position, e.g. for a fixed installation.
type StaticSource struct {
	fix *alert.LocationFix
}

// NewStaticSource validates the coordinates once.
func NewStaticSource(latitude, longitude float64) (*StaticSource, error) {
	fix, err := alert.NewLocationFix(latitude, longitude)
	if err != nil {
		return nil, err
	}

	return &StaticSource{fix: fix}, nil
}

// RequestOneFix returns a copy of the configured fix.
func (s *StaticSource) RequestOneFix(context.Context) (*alert.LocationFix, error) {
	fix := *s.fix

	return &fix, nil
}

// fixResponse is the JSON body of the geolocation endpoint.
type fixResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
}

// HTTPSource asks a geolocation endpoint for the current position.
// 204 No Content, or a body without coordinates, means no fix.
type HTTPSource struct {
	client *resty.Client
	url    string
}

// NewHTTPSource creates a source for url. The request timeout is the
// pipeline's location timeout; retries are left to the next run.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent())

	return &HTTPSource{client: client, url: url}
}

// RequestOneFix performs one GET request.
func (s *HTTPSource) RequestOneFix(ctx context.Context) (*alert.LocationFix, error) {
	var body fixResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("request location fix: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNoContent:
		return nil, nil //nolint:nilnil // No fix is a valid answer.
	case resp.IsError():
		return nil, fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status())
	}

	if body.Latitude == nil || body.Longitude == nil {
		return nil, nil //nolint:nilnil // No fix is a valid answer.
	}

	fix, err := alert.NewLocationFix(*body.Latitude, *body.Longitude)
	if err != nil {
		return nil, err
	}

	fix.AccuracyMeters = body.Accuracy

	return fix, nil
}
