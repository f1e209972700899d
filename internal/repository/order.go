package repository

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/repository/postgres"
	"github.com/shopspring/decimal"
	"time"
)

const pgErrUniqueViolationCode = "23505"

const orderColumns = `id, user_id, type, first_name, last_name, email, phone, amount::text, wallet_address,
						token_contract, token_decimals, status, card_status, status_changed_by, status_changed_at,
						card_details, operations_message_ref, settlement_tx_ref, created_at, expires_at, paid_at`

const (
	insertOrderQuery = `
						INSERT INTO orders (id, user_id, type, first_name, last_name, email, phone, amount,
						                    wallet_address, token_contract, token_decimals, status, card_status,
						                    created_at, expires_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, $9, $10, $11, $12, $13, $14, $15)
`
	selectOrderByIDQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE id = $1
`
	selectOrdersByUserIDQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE user_id = $1
						ORDER BY created_at DESC
						OFFSET $2 LIMIT $3
`
	countOrdersByUserIDQuery = `
						SELECT count(*) FROM orders
						WHERE user_id = $1
`
	selectLastUserOrderQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE user_id = $1
						ORDER BY created_at DESC
						LIMIT 1
`
	selectOrdersByStatusQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE status = $1
						ORDER BY created_at DESC
`
	markPaidQuery = `
						UPDATE orders
						SET status = 'paid', card_status = 'inprocess', paid_at = $2
						WHERE id = $1 AND status = 'pending'
`
	markExpiredQuery = `
						UPDATE orders
						SET status = 'expired'
						WHERE id = $1 AND status = 'pending'
`
	expireOverdueQuery = `
						UPDATE orders
						SET status = 'expired'
						WHERE status = 'pending' AND expires_at <= $1
`
	setOperationsMessageQuery = `
						UPDATE orders
						SET operations_message_ref = $2
						WHERE id = $1
`
	clearOperationsMessageQuery = `
						UPDATE orders
						SET operations_message_ref = 0
						WHERE id = $1 AND operations_message_ref = $2 AND operations_message_ref <> 0
`
	setSettlementTxQuery = `
						UPDATE orders
						SET settlement_tx_ref = $2
						WHERE id = $1
`
	updateCardStatusQuery = `
						UPDATE orders
						SET card_status = $3, status_changed_by = $4, status_changed_at = $5,
						    card_details = COALESCE($6, card_details)
						WHERE id = $1 AND status = 'paid' AND card_status = $2
`
)

// OrderRepository implements OrderRepository interface
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts new order to database
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := or.db.Exec(ctx, insertOrderQuery,
		order.ID, order.UserID, order.Type,
		order.Inputs.FirstName, order.Inputs.LastName, order.Inputs.Email, order.Inputs.Phone,
		order.Amount.String(), order.WalletAddress, order.Token.Contract, order.Token.Decimals,
		order.Status, order.CardStatus, order.CreatedAt, order.ExpiresAt)
	if err != nil {
		if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return models.ErrConflictData
		}
		return err
	}

	return nil
}

// GetOrder returns order by id
func (or *OrderRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := scanOrder(or.db.QueryRow(ctx, selectOrderByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return order, nil
}

// GetLastUserOrder returns the most recent order of user
func (or *OrderRepository) GetLastUserOrder(ctx context.Context, userID int64) (*models.Order, error) {
	order, err := scanOrder(or.db.QueryRow(ctx, selectLastUserOrderQuery, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return order, nil
}

// GetOrdersByUserID returns page of user orders, newest first, and total count
func (or *OrderRepository) GetOrdersByUserID(ctx context.Context, userID int64, offset, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := or.db.QueryRow(ctx, countOrdersByUserIDQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	orders, err := or.queryOrders(ctx, selectOrdersByUserIDQuery, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetPendingOrders returns orders waiting for payment
func (or *OrderRepository) GetPendingOrders(ctx context.Context) ([]models.Order, error) {
	return or.queryOrders(ctx, selectOrdersByStatusQuery, models.PaymentStatusPending)
}

// GetPaidOrders returns paid orders, newest first
func (or *OrderRepository) GetPaidOrders(ctx context.Context) ([]models.Order, error) {
	return or.queryOrders(ctx, selectOrdersByStatusQuery, models.PaymentStatusPaid)
}

// MarkPaid moves pending order to paid and its card to inprocess.
// Returns false if order was not pending.
func (or *OrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	cmd, err := or.db.Exec(ctx, markPaidQuery, id, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkExpired moves pending order to expired.
// Returns false if order was not pending.
func (or *OrderRepository) MarkExpired(ctx context.Context, id string) (bool, error) {
	cmd, err := or.db.Exec(ctx, markExpiredQuery, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// ExpireOverdue expires every pending order whose deadline is not after now
func (or *OrderRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := or.db.Exec(ctx, expireOverdueQuery, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// SetOperationsMessage stores reference of operations channel message
func (or *OrderRepository) SetOperationsMessage(ctx context.Context, id string, ref int) error {
	return or.execOne(ctx, setOperationsMessageQuery, id, ref)
}

// ClearOperationsMessage clears stored reference if it still equals ref
func (or *OrderRepository) ClearOperationsMessage(ctx context.Context, id string, ref int) (bool, error) {
	cmd, err := or.db.Exec(ctx, clearOperationsMessageQuery, id, ref)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// SetSettlementTx stores id of settlement transaction
func (or *OrderRepository) SetSettlementTx(ctx context.Context, id, txID string) error {
	return or.execOne(ctx, setSettlementTxQuery, id, txID)
}

// UpdateCardStatus advances card status of paid order from one status to another.
// Details are stored when given. Returns false if order is not paid or not in from status.
func (or *OrderRepository) UpdateCardStatus(ctx context.Context, id string, from, to models.CardStatus, by string, at time.Time, details *models.CardDetails) (bool, error) {
	var detailsJSON []byte
	if details != nil {
		var err error
		if detailsJSON, err = json.Marshal(details); err != nil {
			return false, err
		}
	}

	cmd, err := or.db.Exec(ctx, updateCardStatusQuery, id, from, to, by, at, detailsJSON)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (or *OrderRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := or.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}

	return nil
}

func (or *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := or.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order   models.Order
		amount  string
		details []byte
	)

	err := row.Scan(&order.ID, &order.UserID, &order.Type,
		&order.Inputs.FirstName, &order.Inputs.LastName, &order.Inputs.Email, &order.Inputs.Phone,
		&amount, &order.WalletAddress, &order.Token.Contract, &order.Token.Decimals,
		&order.Status, &order.CardStatus, &order.StatusChangedBy, &order.StatusChangedAt,
		&details, &order.OperationsMessageRef, &order.SettlementTxRef,
		&order.CreatedAt, &order.ExpiresAt, &order.PaidAt)
	if err != nil {
		return nil, err
	}

	if order.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}

	if len(details) > 0 {
		order.CardDetails = &models.CardDetails{}
		if err := json.Unmarshal(details, order.CardDetails); err != nil {
			return nil, err
		}
	}

	return &order, nil
}
