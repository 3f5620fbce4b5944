package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lherbier/vetiver/internal/domain"
)

const insertOrderSQL = `
INSERT INTO orders (id, order_number, payment_intent_id, user_id, subtotal, tax_amount, total, currency, payment_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at`

const insertOrderItemSQL = `
INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, variant_name, image_url, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const selectOrderByPaymentIntentSQL = `
SELECT id, order_number, payment_intent_id, user_id, subtotal, tax_amount, total, currency, payment_status, created_at
FROM orders
WHERE payment_intent_id = $1`

const selectOrdersByUserSQL = `
SELECT id, order_number, payment_intent_id, user_id, subtotal, tax_amount, total, currency, payment_status, created_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC`

const selectOrderItemsSQL = `
SELECT id, order_id, product_id, variant_id, product_name, variant_name, image_url, quantity, unit_price
FROM order_items
WHERE order_id = ANY($1)
ORDER BY id`

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

var _ domain.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a new PostgreSQL-backed order store.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// CreateOrder inserts an order and its line items in one transaction.
// Duplicate payment intent ids hit the UNIQUE constraint on
// orders.payment_intent_id and map to ErrPaymentAlreadyProcessed, so
// concurrent webhook deliveries race safely without a pre-check.
func (s *OrderStore) CreateOrder(ctx context.Context, params domain.CreateOrderParams) (*domain.Order, error) {
	const op = "order.create"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     params.OrderNumber,
		PaymentIntentID: params.PaymentIntentID,
		UserID:          params.UserID,
		Subtotal:        params.Subtotal,
		TaxAmount:       params.TaxAmount,
		Total:           params.Total,
		Currency:        params.Currency,
		PaymentStatus:   domain.PaymentStatusPaid,
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		order.ID, order.OrderNumber, order.PaymentIntentID, order.UserID,
		order.Subtotal, order.TaxAmount, order.Total, order.Currency, order.PaymentStatus,
	).Scan(&order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPaymentAlreadyProcessed
		}
		return nil, domain.Internal(err, op, "failed to insert order")
	}

	order.Items = make([]domain.OrderLineItem, len(params.Items))
	for i, item := range params.Items {
		line := domain.OrderLineItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			ImageURL:    item.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			line.ID, line.OrderID, line.ProductID, line.VariantID,
			line.ProductName, line.VariantName, line.ImageURL, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to insert order item")
		}
		order.Items[i] = line
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPaymentAlreadyProcessed
		}
		return nil, domain.Internal(err, op, "failed to commit order")
	}

	return order, nil
}

// OrderByPaymentIntentID loads an order with its items.
func (s *OrderStore) OrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	const op = "order.by_payment_intent"

	row := s.pool.QueryRow(ctx, selectOrderByPaymentIntentSQL, paymentIntentID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	items, err := s.orderItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}
	order.Items = items[order.ID]

	return order, nil
}

// OrdersByUser lists a user's orders newest-first with their items.
func (s *OrderStore) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const op = "order.by_user"

	rows, err := s.pool.Query(ctx, selectOrdersByUserSQL, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to query orders")
	}
	defer rows.Close()

	var orders []domain.Order
	var orderIDs []uuid.UUID
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan order")
		}
		orders = append(orders, *order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read orders")
	}

	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	items, err := s.orderItems(ctx, orderIDs)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (s *OrderStore) orderItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderLineItem, error) {
	rows, err := s.pool.Query(ctx, selectOrderItemsSQL, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.OrderLineItem)
	for rows.Next() {
		var item domain.OrderLineItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
			&item.ProductName, &item.VariantName, &item.ImageURL, &item.Quantity, &item.UnitPrice)
		if err != nil {
			return nil, err
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(&order.ID, &order.OrderNumber, &order.PaymentIntentID, &order.UserID,
		&order.Subtotal, &order.TaxAmount, &order.Total, &order.Currency,
		&order.PaymentStatus, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
