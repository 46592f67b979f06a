// Package checkout submits orders to the commerce API.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Fanatic033/shoro-market/internal/domain"
)

// JSONPoster is the part of httpclient.CircuitBreakerClient the client needs.
type JSONPoster interface {
	PostJSON(ctx context.Context, url string, body, dst any) error
}

// Submission is everything the commerce API needs to place an order.
type Submission struct {
	UserID       int64
	ClientGUID   string
	Customer     domain.Customer
	DeliveryDate string
	Payment      domain.PaymentMethod
	Comment      string
	Items        []domain.LineItem
	Total        int64
}

// Receipt is the commerce API's acknowledgement.
type Receipt struct {
	// Reference is the upstream order id, empty when none was returned.
	Reference string
}

// Submitter places orders upstream.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (Receipt, error)
}

type clientPayload struct {
	GUID    *string `json:"guid"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone"`
}

type productPayload struct {
	GUID     string  `json:"guid"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type orderPayload struct {
	UserID          int64            `json:"userId"`
	Client          clientPayload    `json:"client"`
	Date            string           `json:"date"`
	Payment         int              `json:"payment"`
	Description     string           `json:"description,omitempty"`
	ContactPhone    string           `json:"contactPhone"`
	DeliveryAddress string           `json:"deliveryAddress"`
	Products        []productPayload `json:"products"`
}

type orderResponse struct {
	ID json.RawMessage `json:"id"`
}

// Client is the commerce API order submitter.
type Client struct {
	http    JSONPoster
	baseURL string
}

// NewClient creates a submitter for the commerce API at baseURL.
func NewClient(http JSONPoster, baseURL string) *Client {
	return &Client{http: http, baseURL: strings.TrimRight(baseURL, "/")}
}

// Submit posts the order. It is never retried: a failed call may still
// have created the order upstream.
func (c *Client) Submit(ctx context.Context, s Submission) (Receipt, error) {
	var resp orderResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/orders/create", buildPayload(s), &resp); err != nil {
		return Receipt{}, fmt.Errorf("create order: %w", err)
	}
	return Receipt{Reference: reference(resp.ID)}, nil
}

func buildPayload(s Submission) orderPayload {
	var guid *string
	if s.ClientGUID != "" {
		guid = &s.ClientGUID
	}

	products := make([]productPayload, 0, len(s.Items))
	for _, it := range s.Items {
		products = append(products, productPayload{
			GUID:     it.GUID,
			Price:    float64(it.UnitPrice) / 100,
			Quantity: it.Quantity,
		})
	}

	return orderPayload{
		UserID: s.UserID,
		Client: clientPayload{
			GUID:    guid,
			Name:    s.Customer.Name,
			Address: s.Customer.Address,
			Phone:   s.Customer.Phone,
		},
		Date:            s.DeliveryDate,
		Payment:         s.Payment.Code(),
		Description:     s.Comment,
		ContactPhone:    s.Customer.Phone,
		DeliveryAddress: s.Customer.Address,
		Products:        products,
	}
}

// reference renders the upstream id, which may be a number or a string.
func reference(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
