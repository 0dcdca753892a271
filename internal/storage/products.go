package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates a missing record.
var ErrNotFound = errors.New("record not found")

// DB is the query interface satisfied by both *sql.DB and *sql.Tx, so
// repositories work inside and outside transactions.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ProductRepository handles product persistence.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a product repository over db.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Insert stores a new product and fills in its generated ID and
// CreatedAt. Inside a transaction the row stays invisible to other
// readers until the transaction commits.
func (r *ProductRepository) Insert(ctx context.Context, product *Product) error {
	tags, err := json.Marshal(product.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	product.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO products (name, description, image_path, price, category, tags, rarity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = r.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.ImagePath, product.Price,
		product.Category, string(tags), product.Rarity, product.CreatedAt,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// SetImagePath records the web-servable image reference for a product.
func (r *ProductRepository) SetImagePath(ctx context.Context, id int64, imagePath string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_path = $1 WHERE id = $2`, imagePath, id)
	if err != nil {
		return fmt.Errorf("set image path: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set image path: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, name, description, image_path, price, category, tags, rarity, created_at
		FROM products WHERE id = $1
	`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, id))
}

// ListAll returns every product ordered by creation time, newest first.
// An empty store yields an empty slice.
func (r *ProductRepository) ListAll(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT id, name, description, image_path, price, category, tags, rarity, created_at
		FROM products ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		product := &Product{}
		var tags string
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.ImagePath,
			&product.Price, &product.Category, &tags, &product.Rarity, &product.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &product.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for product %d: %w", product.ID, err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) scanProduct(row *sql.Row) (*Product, error) {
	product := &Product{}
	var tags string
	err := row.Scan(
		&product.ID, &product.Name, &product.Description, &product.ImagePath,
		&product.Price, &product.Category, &tags, &product.Rarity, &product.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &product.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for product %d: %w", product.ID, err)
	}
	return product, nil
}
