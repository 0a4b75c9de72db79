package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ticketshub/internal/status"
)

// LocationDetector yields a coarse label for where the caller is.
type LocationDetector interface {
	Detect(ctx context.Context) (string, error)
}

// HTTPDetector asks an IP geolocation endpoint for the caller's city.
type HTTPDetector struct {
	// url answers GET with a JSON object carrying at least "city".
	url string

	// hc is the http client.
	hc *http.Client
}

func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		url: url,
		hc:  &http.Client{Timeout: timeout},
	}
}

type geoReply struct {
	City   string `json:"city"`
	Region string `json:"region"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func (d *HTTPDetector) Detect(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return "", fmt.Errorf("detect: http.NewReq: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("detect: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http.StatusCode: %d", status.ErrDetectionFailed, resp.StatusCode)
	}

	var reply geoReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("detect: json.Decode: %w", err)
	}
	if reply.Error {
		return "", fmt.Errorf("%w: %s", status.ErrDetectionFailed, reply.Reason)
	}
	if reply.City == "" {
		return "", fmt.Errorf("%w: empty city", status.ErrDetectionFailed)
	}

	if reply.Region != "" {
		return reply.City + ", " + reply.Region, nil
	}
	return reply.City, nil
}
