package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
)

// Repository is a PostgreSQL-backed Store. Workspaces and partners are kept
// as JSON text columns.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRepository creates a catalog repository over pool.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "catalog_repository")),
	}
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const productColumns = `id, name, brand, model, description, url, category, count, workspaces, often_with`

// GetByID implements Reader.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, dserrors.ErrNotFound)
		}
		return nil, unavailable("get product", err)
	}
	return p, nil
}

// ListByCategory implements Reader. Products come back in insertion order.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]*Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY id`, category)
	if err != nil {
		return nil, unavailable("list products", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list products", err)
	}
	return products, nil
}

// ListCategories implements Reader.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, display_name, slot_position FROM categories ORDER BY slot_position`)
	if err != nil {
		return nil, unavailable("list categories", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayName, &c.SlotPosition); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ReplaceAll implements Writer. Products are swapped in a single transaction
// and the given categories are upserted. A nil categories slice leaves the
// categories table untouched.
func (r *Repository) ReplaceAll(ctx context.Context, products []*Product, categories []Category) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin transaction", err)
	}
	defer tx.Rollback(ctx) // nolint: errcheck

	for _, c := range categories {
		_, err := tx.Exec(ctx, `
			INSERT INTO categories (name, display_name, slot_position)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE
			SET display_name = EXCLUDED.display_name, slot_position = EXCLUDED.slot_position
		`, c.Name, c.DisplayName, c.SlotPosition)
		if err != nil {
			return fmt.Errorf("failed to upsert category %s: %w", c.Name, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	rows := make([][]any, 0, len(products))
	for _, p := range products {
		row, err := productRow(p)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"name", "brand", "model", "description", "url", "category", "count", "workspaces", "often_with"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Catalog replaced",
		logging.F("products", copied),
		logging.F("categories", len(categories)))
	return nil
}

func productRow(p *Product) ([]any, error) {
	workspaces, err := json.Marshal(nonNilStrings(p.Workspaces))
	if err != nil {
		return nil, fmt.Errorf("encoding workspaces for %q: %w", p.Name, err)
	}
	oftenWith, err := json.Marshal(nonNilPartners(p.OftenWith))
	if err != nil {
		return nil, fmt.Errorf("encoding partners for %q: %w", p.Name, err)
	}
	count := p.Count
	if count < 1 {
		count = 1
	}
	return []any{
		p.Name, nullIfEmpty(p.Brand), nullIfEmpty(p.Model), nullIfEmpty(p.Description),
		nullIfEmpty(p.URL), p.Category, count, string(workspaces), string(oftenWith),
	}, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p                              Product
		brand, model, description, url *string
		workspacesJSON, oftenWithJSON  string
	)
	if err := row.Scan(&p.ID, &p.Name, &brand, &model, &description, &url,
		&p.Category, &p.Count, &workspacesJSON, &oftenWithJSON); err != nil {
		return nil, err
	}

	p.Brand, p.Model, p.Description, p.URL = deref(brand), deref(model), deref(description), deref(url)
	if err := decodeJSONColumn(workspacesJSON, &p.Workspaces); err != nil {
		return nil, fmt.Errorf("decoding workspaces of product %d: %w", p.ID, err)
	}
	if err := decodeJSONColumn(oftenWithJSON, &p.OftenWith); err != nil {
		return nil, fmt.Errorf("decoding partners of product %d: %w", p.ID, err)
	}
	p.Workspaces = nonNilStrings(p.Workspaces)
	p.OftenWith = nonNilPartners(p.OftenWith)
	return &p, nil
}

func decodeJSONColumn(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, dserrors.ErrUnavailable, err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPartners(p []Partner) []Partner {
	if p == nil {
		return []Partner{}
	}
	return p
}
