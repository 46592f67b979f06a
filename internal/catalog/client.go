// Package catalog loads the product catalog and the client's price list
// from the commerce API, merges them into cart-ready products and serves
// them from an in-memory cache.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Fanatic033/shoro-market/internal/domain"
)

// DefaultCategory is assigned to price-list entries with no catalog match.
const DefaultCategory = "popular"

// JSONGetter is the part of httpclient.CircuitBreakerClient the client needs.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, dst any) error
}

// Source supplies the merged product list.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

type rawProduct struct {
	GUID            string          `json:"guid"`
	Name            string          `json:"name"`
	Value           *float64        `json:"value"`
	Weight          *float64        `json:"weight"`
	InPackage       json.RawMessage `json:"inpackage"`
	ProductCategory string          `json:"productCategory"`
}

type rawPrice struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type priceList struct {
	Client struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"client"`
	Products []rawPrice `json:"products"`
}

// Client reads the catalog and price list from the commerce API.
type Client struct {
	http     JSONGetter
	baseURL  string
	clientID int64
	images   domain.ImageResolver
}

// NewClient creates a commerce API catalog client. clientID selects the
// price list.
func NewClient(http JSONGetter, baseURL string, clientID int64, images domain.ImageResolver) *Client {
	if images == nil {
		images = domain.DefaultImageResolver
	}
	return &Client{
		http:     http,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		images:   images,
	}
}

// Products fetches the catalog and the price list concurrently and merges them.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var (
		catalog []rawProduct
		prices  priceList
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.http.GetJSON(gctx, c.baseURL+"/product/forNurs", &catalog); err != nil {
			return fmt.Errorf("fetch catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		q := url.Values{"clientId": {strconv.FormatInt(c.clientID, 10)}}
		if err := c.http.GetJSON(gctx, c.baseURL+"/pricelist/findByClient?"+q.Encode(), &prices); err != nil {
			return fmt.Errorf("fetch price list: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(catalog, prices.Products, c.images), nil
}

// merge joins price-list entries to catalog records by trimmed name. The
// price list drives the result: its id is the product id and its order is
// kept. Entries without a catalog match still appear, in DefaultCategory.
func merge(catalog []rawProduct, prices []rawPrice, images domain.ImageResolver) []domain.Product {
	byName := make(map[string]rawProduct, len(catalog))
	for _, p := range catalog {
		byName[strings.TrimSpace(p.Name)] = p
	}

	products := make([]domain.Product, 0, len(prices))
	for _, p := range prices {
		product := domain.Product{
			ProductID:   p.ID,
			Title:       p.Name,
			UnitPrice:   toMinorUnits(p.Price),
			Category:    DefaultCategory,
			PackageSize: 1,
			ImageRef:    images(p.Name),
			InStock:     true,
		}
		if match, ok := byName[strings.TrimSpace(p.Name)]; ok {
			product.GUID = match.GUID
			product.PackageSize = domain.NormalizePackageSize(match.InPackage)
			if match.ProductCategory != "" {
				product.Category = match.ProductCategory
			}
		}
		products = append(products, product)
	}
	return products
}

// toMinorUnits converts a price in som to tyiyn.
func toMinorUnits(price float64) int64 {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return int64(math.Round(price * 100))
}
