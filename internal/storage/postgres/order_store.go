package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/idgen"
)

const orderColumns = `id, customer_name, customer_email, items, total, status, created_at`

type orderStore struct {
	store *Store
	ids   domain.IDGenerator
}

// NewOrderStore создаёт PostgreSQL-реализацию OrderStore.
// Позиции заказа хранятся снимком в JSONB-колонке items.
func NewOrderStore(store *Store, ids domain.IDGenerator) domain.OrderStore {
	return &orderStore{store: store, ids: ids}
}

func (s *orderStore) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = s.ids.NewID()
	}
	pk, err := idgen.Parse(order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("encode order items: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.store.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		pk, order.CustomerName, order.CustomerEmail, items,
		order.Total, string(order.Status), order.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, domain.ErrOrderExists
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order.Clone(), nil
}

func (s *orderStore) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func (s *orderStore) Get(ctx context.Context, id string) (domain.Order, error) {
	pk, err := idgen.Parse(id)
	if err != nil {
		return domain.Order{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(s.store.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, pk))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

// UpdateStatus обновляет только строки с другим статусом; при нуле затронутых строк
// отдельным запросом отличает "не найден" от "не изменён".
func (s *orderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	pk, err := idgen.Parse(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1 WHERE id = $2 AND status <> $1`,
			string(status), pk)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			return nil
		}

		exists, err := orderExistsTx(ctx, tx, pk)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderStatusUnchanged
	})
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, pk int64) (bool, error) {
	var found int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, pk).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		pk     int64
		items  []byte
		status string
	)
	if err := row.Scan(&pk, &order.CustomerName, &order.CustomerEmail, &items,
		&order.Total, &status, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("scan order row: %w", err)
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %d items: %w", pk, err)
	}
	order.ID = strconv.FormatInt(pk, 10)
	order.Status = domain.OrderStatus(status)
	return order, nil
}

var _ domain.OrderStore = (*orderStore)(nil)
