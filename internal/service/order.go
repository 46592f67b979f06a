package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fanatic033/shoro-market/internal/checkout"
	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/ledger"
	"github.com/Fanatic033/shoro-market/internal/repository"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
	"github.com/Fanatic033/shoro-market/pkg/validator"
)

// CheckoutInput holds the delivery details for placing an order. A blank
// delivery address falls back to the customer's default address.
type CheckoutInput struct {
	CustomerName    string `json:"customer_name" validate:"required,max=200"`
	ContactPhone    string `json:"contact_phone" validate:"required,phone"`
	DeliveryAddress string `json:"delivery_address" validate:"max=500"`
	DeliveryDate    string `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Payment         string `json:"payment" validate:"required"`
	Comment         string `json:"comment" validate:"max=1000"`
	ClientGUID      string `json:"client_guid" validate:"max=64"`
}

// DefaultAddressSource resolves a customer's default delivery address.
type DefaultAddressSource interface {
	Default(ctx context.Context, userID string) (*domain.Address, error)
}

// OrderService places orders from the cart and serves the order history.
type OrderService struct {
	carts     *CartService
	submitter checkout.Submitter
	repo      repository.OrderRepository
	addresses DefaultAddressSource
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderService creates an order service.
func NewOrderService(
	carts *CartService,
	submitter checkout.Submitter,
	repo repository.OrderRepository,
	addresses DefaultAddressSource,
	events EventPublisher,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		carts:     carts,
		submitter: submitter,
		repo:      repo,
		addresses: addresses,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout submits the customer's cart to the commerce API. The cart is
// locked for the whole submission and cleared only once the order is
// accepted; on failure it is left untouched.
func (s *OrderService) Checkout(ctx context.Context, userID string, input CheckoutInput) (*domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	payment, ok := domain.ParsePaymentMethod(input.Payment)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment method %q", input.Payment))
	}
	numericID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || numericID <= 0 {
		return nil, apperrors.InvalidInput("user id must be numeric")
	}

	address := strings.TrimSpace(input.DeliveryAddress)
	if address == "" {
		if address, err = s.defaultAddress(ctx, userID); err != nil {
			return nil, err
		}
	}

	customer := domain.Customer{
		Name:    strings.TrimSpace(input.CustomerName),
		Phone:   strings.TrimSpace(input.ContactPhone),
		Address: address,
	}
	comment := strings.TrimSpace(input.Comment)

	var order *domain.Order
	_, err = s.carts.withCart(ctx, userID, func(l *ledger.Ledger) error {
		snap := l.Snapshot()
		if snap.IsEmpty() {
			return apperrors.InvalidInput("cart is empty")
		}

		receipt, err := s.submitter.Submit(ctx, checkout.Submission{
			UserID:       numericID,
			ClientGUID:   input.ClientGUID,
			Customer:     customer,
			DeliveryDate: input.DeliveryDate,
			Payment:      payment,
			Comment:      comment,
			Items:        snap.Items,
			Total:        snap.Total,
		})
		if err != nil {
			return fmt.Errorf("submit order: %w", err)
		}

		order = &domain.Order{
			ID:           uuid.NewString(),
			UserID:       userID,
			RemoteRef:    receipt.Reference,
			Customer:     customer,
			DeliveryDate: input.DeliveryDate,
			Payment:      payment,
			Comment:      comment,
			Items:        domain.OrderLinesFromItems(snap.Items),
			Subtotal:     snap.Subtotal,
			DeliveryCost: snap.DeliveryCost,
			Total:        snap.Total,
			CreatedAt:    s.now().UTC(),
		}
		l.ClearCart()
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "checkout failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to store placed order",
			slog.String("order_id", order.ID),
			slog.String("remote_ref", order.RemoteRef),
			slog.String("error", err.Error()),
		)
	}
	if err := s.events.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.String("remote_ref", order.RemoteRef),
		slog.Int64("total", order.Total),
	)
	return order, nil
}

// ListOrders returns one page of the customer's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, page pagination.Params) (pagination.Result[domain.Order], error) {
	orders, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewResult(orders, total, page), nil
}

// GetOrder returns one of the customer's orders. Orders of other customers
// are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

// Reorder replays a past order's lines into the customer's cart.
func (s *OrderService) Reorder(ctx context.Context, userID, orderID string) (domain.Snapshot, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap, err := s.carts.ReplayOrder(ctx, userID, order.Items)
	if err != nil {
		return domain.Snapshot{}, err
	}

	s.logger.InfoContext(ctx, "order replayed into cart",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
		slog.Int("lines", len(order.Items)),
	)
	return snap, nil
}

func (s *OrderService) defaultAddress(ctx context.Context, userID string) (string, error) {
	if s.addresses == nil {
		return "", apperrors.InvalidInput("delivery address is required")
	}
	a, err := s.addresses.Default(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.InvalidInput("delivery address is required: no default address saved")
		}
		return "", fmt.Errorf("lookup default address: %w", err)
	}
	return a.FullAddress, nil
}
