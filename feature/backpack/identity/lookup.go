package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// LookupService resolves display names to unique ids through an external
// service. The mapping is best-effort: names absent from the result are
// unresolved, not erroneous.
type LookupService interface {
	// UUIDs takes lowercase names and returns a map from lowercase name to
	// the service's unique-id string.
	UUIDs(ctx context.Context, names []string) (map[string]string, error)
}

// HTTPLookup resolves names through a profile endpoint that accepts a JSON
// array of names and answers with an array of {name, id} objects. The whole
// batch travels in one round-trip.
type HTTPLookup struct {
	url    string
	client *http.Client
}

// NewHTTPLookup creates a lookup client. An empty url yields a client that
// resolves nothing, which leaves legacy rows for the next startup.
func NewHTTPLookup(url string, timeout time.Duration) *HTTPLookup {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLookup{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type lookupProfile struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// UUIDs implements LookupService.
func (l *HTTPLookup) UUIDs(ctx context.Context, names []string) (map[string]string, error) {
	result := make(map[string]string, len(names))
	if l.url == "" || len(names) == 0 {
		return result, nil
	}

	body, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("failed to encode name batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup request failed: status %d", resp.StatusCode)
	}

	var profiles []lookupProfile
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	for _, p := range profiles {
		if p.Name == "" || p.ID == "" {
			continue
		}
		result[strings.ToLower(p.Name)] = p.ID
	}
	return result, nil
}
