package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Fanatic033/shoro-market/internal/domain"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
)

// refreshTimeout bounds one shared upstream fetch.
const refreshTimeout = 30 * time.Second

// Catalog caches the merged product list. A failed refresh keeps serving
// the previous list; only an empty cache turns the failure into an error.
type Catalog struct {
	source Source
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	products  []domain.Product
	byID      map[int64]domain.Product
	fetchedAt time.Time
}

// New creates a catalog cache over source. Entries older than ttl are
// refreshed on the next read.
func New(source Source, ttl time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
		byID:   map[int64]domain.Product{},
	}
}

// Products returns every product in upstream order.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// Product looks a product up by id.
func (c *Catalog) Product(ctx context.Context, id int64) (domain.Product, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return domain.Product{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", fmt.Sprint(id))
	}
	return p, nil
}

// Refresh reloads the product list from the source. Concurrent callers
// share one upstream fetch, which runs detached from any single caller's
// cancellation and is bounded by refreshTimeout. A caller whose ctx ends
// first returns early without aborting the fetch for the others.
func (c *Catalog) Refresh(ctx context.Context) error {
	ch := c.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		products, err := c.source.Products(fetchCtx)
		if err != nil {
			return nil, err
		}

		byID := make(map[int64]domain.Product, len(products))
		for _, p := range products {
			byID[p.ProductID] = p
		}

		c.mu.Lock()
		c.products = products
		c.byID = byID
		c.fetchedAt = c.now()
		c.mu.Unlock()

		c.logger.InfoContext(fetchCtx, "catalog refreshed", slog.Int("products", len(products)))
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run refreshes the catalog every interval until ctx is cancelled.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.WarnContext(ctx, "catalog refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Ready reports whether a product list has been loaded.
func (c *Catalog) Ready(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fetchedAt.IsZero() {
		return fmt.Errorf("catalog not loaded")
	}
	return nil
}

func (c *Catalog) ensureFresh(ctx context.Context) error {
	c.mu.RLock()
	loaded := !c.fetchedAt.IsZero()
	stale := !loaded || (c.ttl > 0 && c.now().Sub(c.fetchedAt) > c.ttl)
	c.mu.RUnlock()

	if !stale {
		return nil
	}

	err := c.Refresh(ctx)
	if err == nil {
		return nil
	}
	if loaded {
		c.logger.WarnContext(ctx, "serving stale catalog", slog.String("error", err.Error()))
		return nil
	}
	return apperrors.Unavailable("catalog", err)
}
