package oura

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mischavandenburg/health-api/internal/store"
)

// Client fetches flat usercollection records from the ring vendor API for
// a calendar-date window.
type Client interface {
	FetchSleep(startDate, endDate string) ([]store.Record, error)
	FetchHeartRate(startDate, endDate string) ([]store.Record, error)
}

// HTTPClient is the vendor API implementation of Client.
type HTTPClient struct {
	BaseURL    string
	Token      string
	HttpClient *http.Client
}

// NewHTTPClient creates a client for the vendor API using bearer-token auth.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    baseURL,
		Token:      token,
		HttpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// collectionResponse is the vendor envelope: a data array of flat records.
type collectionResponse struct {
	Data []store.Record `json:"data"`
}

// FetchSleep returns the sleep sessions recorded between startDate and
// endDate (inclusive ISO calendar dates).
func (c *HTTPClient) FetchSleep(startDate, endDate string) ([]store.Record, error) {
	return c.fetchCollection("sleep", startDate, endDate)
}

// FetchHeartRate returns the heart-rate samples recorded between startDate
// and endDate.
func (c *HTTPClient) FetchHeartRate(startDate, endDate string) ([]store.Record, error) {
	return c.fetchCollection("heartrate", startDate, endDate)
}

func (c *HTTPClient) fetchCollection(collection, startDate, endDate string) ([]store.Record, error) {
	endpoint := fmt.Sprintf("%s/v2/usercollection/%s", c.BaseURL, collection)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	query := url.Values{}
	query.Set("start_date", startDate)
	query.Set("end_date", endDate)
	req.URL.RawQuery = query.Encode()

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call vendor API at %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vendor API returned non-OK status %d for %s collection", resp.StatusCode, collection)
	}

	var payload collectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s collection response: %w", collection, err)
	}
	return payload.Data, nil
}
