package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/pkg/database"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
)

const (
	insertOrderSQL = `
		INSERT INTO orders (id, user_id, remote_ref, customer_name, customer_phone, delivery_address, delivery_date, payment, comment, subtotal, delivery_cost, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	insertLineSQL = `
		INSERT INTO order_lines (order_id, position, product_id, guid, title, price, quantity, category, package_size, image_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	// orderColumns selects one order with its lines folded into a JSON array.
	orderColumns = `
		o.id, o.user_id, o.remote_ref, o.customer_name, o.customer_phone, o.delivery_address,
		to_char(o.delivery_date, 'YYYY-MM-DD'), o.payment, o.comment,
		o.subtotal, o.delivery_cost, o.total, o.created_at,
		COALESCE(
			JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'product_id', l.product_id,
					'guid', l.guid,
					'title', l.title,
					'price', l.price,
					'quantity', l.quantity,
					'category', l.category,
					'package_size', l.package_size,
					'image_ref', l.image_ref
				) ORDER BY l.position
			) FILTER (WHERE l.order_id IS NOT NULL),
			'[]'::jsonb
		) AS lines`

	getOrderSQL = `
		SELECT` + orderColumns + `
		FROM orders o
		LEFT JOIN order_lines l ON l.order_id = o.id
		WHERE o.id = $1
		GROUP BY o.id`

	listOrdersSQL = `
		SELECT` + orderColumns + `,
			count(*) OVER() AS total_count
		FROM orders o
		LEFT JOIN order_lines l ON l.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts an order and its lines in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", insertOrderSQL)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID,
		o.UserID,
		o.RemoteRef,
		o.Customer.Name,
		o.Customer.Phone,
		o.Customer.Address,
		o.DeliveryDate,
		string(o.Payment),
		o.Comment,
		o.Subtotal,
		o.DeliveryCost,
		o.Total,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, line := range o.Items {
		_, err = tx.Exec(ctx, insertLineSQL,
			o.ID,
			i,
			line.ProductID,
			line.GUID,
			line.Title,
			line.Price,
			line.Quantity,
			line.Category,
			line.PackageSize,
			line.ImageRef,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID returns one order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrder", getOrderSQL)
	defer func() { end(err) }()

	var (
		o         domain.Order
		payment   string
		linesJSON []byte
	)
	err = r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID,
		&o.UserID,
		&o.RemoteRef,
		&o.Customer.Name,
		&o.Customer.Phone,
		&o.Customer.Address,
		&o.DeliveryDate,
		&payment,
		&o.Comment,
		&o.Subtotal,
		&o.DeliveryCost,
		&o.Total,
		&o.CreatedAt,
		&linesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.Payment = domain.PaymentMethod(payment)

	if o.Items, err = decodeLines(linesJSON); err != nil {
		return nil, err
	}

	return &o, nil
}

// ListByUser returns one page of a customer's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page pagination.Params) (_ []domain.Order, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrders", listOrdersSQL)
	defer func() { end(err) }()

	limit := page.PerPage
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, listOrdersSQL, userID, limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o         domain.Order
			payment   string
			linesJSON []byte
		)
		if err = rows.Scan(
			&o.ID,
			&o.UserID,
			&o.RemoteRef,
			&o.Customer.Name,
			&o.Customer.Phone,
			&o.Customer.Address,
			&o.DeliveryDate,
			&payment,
			&o.Comment,
			&o.Subtotal,
			&o.DeliveryCost,
			&o.Total,
			&o.CreatedAt,
			&linesJSON,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		o.Payment = domain.PaymentMethod(payment)

		if o.Items, err = decodeLines(linesJSON); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, totalCount, nil
}

func decodeLines(data []byte) ([]domain.OrderLine, error) {
	lines := []domain.OrderLine{}
	if len(data) == 0 || string(data) == "null" {
		return lines, nil
	}
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}
	return lines, nil
}
