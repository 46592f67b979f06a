package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// JSONPatcher is the part of httpclient.CircuitBreakerClient the profile
// client needs.
type JSONPatcher interface {
	PatchJSON(ctx context.Context, url string, body, dst any) error
}

type profilePayload struct {
	Address string `json:"address"`
}

// ProfileClient updates customer profiles on the commerce API.
type ProfileClient struct {
	http    JSONPatcher
	baseURL string
}

// NewProfileClient creates a profile client for the commerce API at baseURL.
func NewProfileClient(http JSONPatcher, baseURL string) *ProfileClient {
	return &ProfileClient{http: http, baseURL: strings.TrimRight(baseURL, "/")}
}

// UpdateAddress stores address as the customer's profile address.
func (c *ProfileClient) UpdateAddress(ctx context.Context, userID, address string) error {
	endpoint := c.baseURL + "/users/" + url.PathEscape(userID)
	if err := c.http.PatchJSON(ctx, endpoint, profilePayload{Address: address}, nil); err != nil {
		return fmt.Errorf("update profile address: %w", err)
	}
	return nil
}
