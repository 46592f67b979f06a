package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/ledger"
	"github.com/Fanatic033/shoro-market/internal/repository"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
)

// DefaultSessionCacheSize bounds the number of carts kept in memory.
const DefaultSessionCacheSize = 10_000

// EventPublisher publishes cart and order events.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, userID string, snap domain.Snapshot) error
	PublishCartCleared(ctx context.Context, userID string) error
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
}

// ProductLookup resolves catalog products by id.
type ProductLookup interface {
	Product(ctx context.Context, id int64) (domain.Product, error)
}

// SnapshotMirror hands out the persistence observer for a customer's cart.
type SnapshotMirror interface {
	Observer(userID string) ledger.Observer
}

// session is one customer's live ledger. mu serialises every access to it.
type session struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	changed bool

	refs int // guarded by CartService.mu
}

// CartService owns the in-memory ledgers, one per customer, restored from
// the snapshot store on first use and mirrored back on every change.
type CartService struct {
	store   repository.SnapshotStore
	mirror  SnapshotMirror
	catalog ProductLookup
	events  EventPublisher
	policy  ledger.Policy
	logger  *slog.Logger

	mu       sync.Mutex
	sessions *lru.Cache[string, *session]
	active   map[string]*session
}

// NewCartService creates a cart service holding at most cacheSize carts in memory.
func NewCartService(
	store repository.SnapshotStore,
	mirror SnapshotMirror,
	catalog ProductLookup,
	events EventPublisher,
	policy ledger.Policy,
	cacheSize int,
	logger *slog.Logger,
) (*CartService, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultSessionCacheSize
	}
	sessions, err := lru.New[string, *session](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	return &CartService{
		store:    store,
		mirror:   mirror,
		catalog:  catalog,
		events:   events,
		policy:   policy,
		logger:   logger,
		sessions: sessions,
		active:   make(map[string]*session),
	}, nil
}

// GetCart returns the customer's cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (domain.Snapshot, error) {
	return s.withCart(ctx, userID, nil)
}

// AddItem adds one step of a catalog product to the cart.
func (s *CartService) AddItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("lookup product: %w", err)
	}
	if !product.InStock {
		return domain.Snapshot{}, apperrors.Conflict(fmt.Sprintf("product %d is out of stock", productID))
	}

	snap, err := s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		if !l.CanAdd(product) {
			return quantityLimitError()
		}
		l.AddItem(product)
		return nil
	})
	if err != nil {
		return snap, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.Int64("product_id", productID),
	)
	return snap, nil
}

// IncreaseItem adds one step to a line. Unknown products are ignored.
func (s *CartService) IncreaseItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	return s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		if l.IsInCart(productID) && !l.CanIncrease(productID) {
			return quantityLimitError()
		}
		l.IncreaseItem(productID)
		return nil
	})
}

// DecreaseItem removes one step from a line. Unknown products are ignored.
func (s *CartService) DecreaseItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	return s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		l.DecreaseItem(productID)
		return nil
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) (domain.Snapshot, error) {
	if quantity > domain.MaxLineQuantity {
		return domain.Snapshot{}, quantityLimitError()
	}
	return s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		l.UpdateQuantity(productID, quantity)
		return nil
	})
}

// RemoveItem deletes a line. Unknown products are ignored.
func (s *CartService) RemoveItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	return s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		l.RemoveItem(productID)
		return nil
	})
}

// ItemQuantity reports a product's quantity and whether it is in the cart.
func (s *CartService) ItemQuantity(ctx context.Context, userID string, productID int64) (int, bool, error) {
	var (
		qty    int
		inCart bool
	)
	_, err := s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		qty, inCart = l.GetItemQuantity(productID), l.IsInCart(productID)
		return nil
	})
	return qty, inCart, err
}

// ClearCart empties the cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) (domain.Snapshot, error) {
	snap, err := s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		l.ClearCart()
		return nil
	})
	if err != nil {
		return snap, err
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))
	return snap, nil
}

// ReplayOrder folds a past order's lines into the cart. Merged lines are
// clamped to domain.MaxLineQuantity.
func (s *CartService) ReplayOrder(ctx context.Context, userID string, lines []domain.OrderLine) (domain.Snapshot, error) {
	return s.withCart(ctx, userID, func(l *ledger.Ledger) error {
		l.ReplayOrder(lines)
		return nil
	})
}

// withCart runs fn against the customer's ledger under its session lock and
// returns the resulting snapshot. A nil fn only reads. A cart.updated or
// cart.cleared event is published when fn changed the cart.
func (s *CartService) withCart(ctx context.Context, userID string, fn func(*ledger.Ledger) error) (domain.Snapshot, error) {
	sess, err := s.acquire(ctx, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer s.release(userID, sess)

	sess.mu.Lock()
	sess.changed = false
	if fn != nil {
		if err := fn(sess.ledger); err != nil {
			sess.mu.Unlock()
			return domain.Snapshot{}, err
		}
	}
	snap := sess.ledger.Snapshot()
	changed := sess.changed
	sess.mu.Unlock()

	if changed {
		s.publishCartChanged(ctx, userID, snap)
	}
	return snap, nil
}

func (s *CartService) publishCartChanged(ctx context.Context, userID string, snap domain.Snapshot) {
	var err error
	if snap.IsEmpty() {
		err = s.events.PublishCartCleared(ctx, userID)
	} else {
		err = s.events.PublishCartUpdated(ctx, userID, snap)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// acquire returns the customer's live ledger, restoring it from the store on
// first use, and pins it until release. A pinned session survives eviction
// from the cache so a customer never has two live ledgers. The store is read
// outside the cache lock.
func (s *CartService) acquire(ctx context.Context, userID string) (*session, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	s.mu.Lock()
	if sess := s.lookupLocked(userID); sess != nil {
		s.pinLocked(userID, sess)
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	l, err := s.restore(ctx, userID)
	if err != nil {
		return nil, err
	}

	fresh := &session{ledger: l}
	l.Observe(ledger.ObserverFunc(func(domain.Snapshot) { fresh.changed = true }))
	if s.mirror != nil {
		l.Observe(s.mirror.Observer(userID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.lookupLocked(userID); existing != nil {
		s.pinLocked(userID, existing)
		return existing, nil
	}
	s.sessions.Add(userID, fresh)
	s.pinLocked(userID, fresh)
	return fresh, nil
}

// release unpins a session taken by acquire. An idle session that was
// evicted while pinned goes back into the cache as the most recent entry.
func (s *CartService) release(userID string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.refs--
	if sess.refs > 0 {
		return
	}
	delete(s.active, userID)
	if !s.sessions.Contains(userID) {
		s.sessions.Add(userID, sess)
	}
}

func (s *CartService) lookupLocked(userID string) *session {
	if sess, ok := s.active[userID]; ok {
		return sess
	}
	if sess, ok := s.sessions.Get(userID); ok {
		return sess
	}
	return nil
}

func (s *CartService) pinLocked(userID string, sess *session) {
	sess.refs++
	s.active[userID] = sess
}

// restore builds a ledger from the stored snapshot. A missing snapshot gives
// an empty cart. A corrupt one is discarded and also gives an empty cart.
func (s *CartService) restore(ctx context.Context, userID string) (*ledger.Ledger, error) {
	l := ledger.New(s.policy)

	snap, err := s.store.Load(ctx, userID)
	switch {
	case err == nil:
		l.Restore(snap)
	case errors.Is(err, apperrors.ErrNotFound):
	case errors.Is(err, repository.ErrCorruptSnapshot):
		corruptSnapshots.Inc()
		s.logger.WarnContext(ctx, "discarding corrupt cart snapshot",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		if err := s.store.Delete(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete corrupt cart snapshot",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	default:
		return nil, apperrors.Unavailable("cart store", err)
	}

	return l, nil
}

func quantityLimitError() error {
	return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", domain.MaxLineQuantity))
}
