package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/idgen"
)

const productColumns = `id, name, description, price, image, slug, image_hint, available_quantity, is_visible`

type productStore struct {
	store *Store
	ids   domain.IDGenerator
}

// NewProductStore создаёт PostgreSQL-реализацию ProductStore.
// Новые ID выдаёт ids; порядок каталога задаёт колонка seq.
func NewProductStore(store *Store, ids domain.IDGenerator) domain.ProductStore {
	return &productStore{store: store, ids: ids}
}

func (s *productStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// InsertMany вставляет пачку в одной транзакции, сохраняя заданные ID (например, сидовые "1".."8").
func (s *productStore) InsertMany(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range products {
			if p.ID == "" {
				p.ID = s.ids.NewID()
			}
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *productStore) List(ctx context.Context, includeHidden bool) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products`
	if !includeHidden {
		query += ` WHERE is_visible`
	}
	query += ` ORDER BY seq`

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func (s *productStore) Get(ctx context.Context, id string) (domain.Product, error) {
	pk, err := idgen.Parse(id)
	if err != nil {
		return domain.Product{}, err
	}
	return s.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, pk)
}

// FindBySlug возвращает самый ранний товар с таким slug.
func (s *productStore) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return s.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1 ORDER BY seq LIMIT 1`, slug)
}

func (s *productStore) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	product.ID = s.ids.NewID()
	if err := insertProduct(ctx, s.store.db, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// ApplyPatch блокирует строку через SELECT ... FOR UPDATE: параллельное
// списание ждёт коммита и применяется к уже обновлённой записи.
func (s *productStore) ApplyPatch(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, domain.Product, error) {
	pk, err := idgen.Parse(id)
	if err != nil {
		return domain.Product{}, domain.Product{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var before, after domain.Product
	err = s.store.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanProduct(tx.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, pk))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("lock product: %w", err)
		}
		before = current
		after = patch.Apply(current)
		if _, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = $1,
			    description = $2,
			    price = $3,
			    image = $4,
			    slug = $5,
			    image_hint = $6,
			    available_quantity = $7,
			    is_visible = $8
			WHERE id = $9
		`,
			after.Name, after.Description, after.Price, after.Image,
			after.Slug, after.ImageHint, after.AvailableQuantity, after.IsVisible, pk,
		); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, domain.Product{}, err
	}
	return before, after, nil
}

func (s *productStore) Delete(ctx context.Context, id string) (domain.Product, error) {
	pk, err := idgen.Parse(id)
	if err != nil {
		return domain.Product{}, err
	}
	return s.queryOne(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, pk)
}

// DecreaseStock списывает остатки в одной транзакции: available = GREATEST(available - qty, 0).
func (s *productStore) DecreaseStock(ctx context.Context, items []domain.StockDecrement) error {
	type decrement struct {
		pk  int64
		qty int
	}
	batch := make([]decrement, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		pk, err := idgen.Parse(item.ProductID)
		if err != nil {
			continue
		}
		batch = append(batch, decrement{pk: pk, qty: item.Quantity})
	}
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range batch {
			if _, err := tx.ExecContext(ctx, `
				UPDATE products
				SET available_quantity = GREATEST(available_quantity - $1, 0)
				WHERE id = $2
			`, d.qty, d.pk); err != nil {
				return fmt.Errorf("decrease stock for product %d: %w", d.pk, err)
			}
		}
		return nil
	})
}

func (s *productStore) queryOne(ctx context.Context, query string, args ...interface{}) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p, err := scanProduct(s.store.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func insertProduct(ctx context.Context, db execer, p domain.Product) error {
	pk, err := idgen.Parse(p.ID)
	if err != nil {
		return fmt.Errorf("product id %q: %w", p.ID, err)
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		pk, p.Name, p.Description, p.Price, p.Image,
		p.Slug, p.ImageHint, p.AvailableQuantity, p.IsVisible,
	); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p  domain.Product
		pk int64
	)
	if err := row.Scan(
		&pk, &p.Name, &p.Description, &p.Price, &p.Image,
		&p.Slug, &p.ImageHint, &p.AvailableQuantity, &p.IsVisible,
	); err != nil {
		return domain.Product{}, err
	}
	p.ID = strconv.FormatInt(pk, 10)
	return p, nil
}

var _ domain.ProductStore = (*productStore)(nil)
