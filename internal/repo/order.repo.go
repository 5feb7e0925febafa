package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dopetechnp-dotcom/dopetechnp/internal/domain"
)

type PersistStage string

const (
	StageOrder PersistStage = "order"
	StageItems PersistStage = "items"
)

// PersistError tags a database failure with the pipeline stage that hit
// it, so the handler can tell an order-insert failure apart from an
// item-insert failure.
type PersistError struct {
	Stage PersistStage
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Stage, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

type OrderRepo interface {
	// CreateOrderWithItems inserts the order row and its item rows in a
	// single transaction and returns the server-assigned order id. On
	// failure nothing is stored and the error is a *PersistError.
	CreateOrderWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	CountItems(ctx context.Context, orderID int64) (int64, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateOrderWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistError{Stage: StageOrder, Err: err}
	}
	defer tx.Rollback()

	id, err := r.insertOrder(ctx, tx, order)
	if err != nil {
		return 0, &PersistError{Stage: StageOrder, Err: err}
	}

	if err := r.insertItems(ctx, tx, id, items); err != nil {
		return 0, &PersistError{Stage: StageItems, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &PersistError{Stage: StageOrder, Err: err}
	}

	order.ID = id
	return id, nil
}

func (r *orderRepo) insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) (int64, error) {
	query := `
		INSERT INTO orders (
			order_id, customer_name, customer_email, customer_phone,
			customer_city, customer_state, customer_zip_code, customer_address,
			total_amount, payment_option, payment_status, order_status,
			receipt_url, receipt_file_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	var id int64
	err := tx.QueryRowContext(ctx, query,
		order.OrderID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.CustomerCity, order.CustomerState, order.CustomerZipCode, order.CustomerAddress,
		order.TotalAmount, order.PaymentOption, order.PaymentStatus, order.OrderStatus,
		order.ReceiptURL, order.ReceiptFileName,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *orderRepo) insertItems(ctx context.Context, tx *sql.Tx, orderID int64, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ")
	args := make([]interface{}, 0, len(items)*4)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, orderID, item.ProductID, item.Quantity, item.Price)
	}

	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *orderRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, order_id, customer_name, customer_email, customer_phone,
			customer_city, customer_state, customer_zip_code, customer_address,
			total_amount, payment_option, payment_status, order_status,
			receipt_url, receipt_file_name, created_at
		FROM orders WHERE id = $1
	`
	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.OrderID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
		&order.CustomerCity, &order.CustomerState, &order.CustomerZipCode, &order.CustomerAddress,
		&order.TotalAmount, &order.PaymentOption, &order.PaymentStatus, &order.OrderStatus,
		&order.ReceiptURL, &order.ReceiptFileName, &order.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) CountItems(ctx context.Context, orderID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_items WHERE order_id = $1", orderID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
