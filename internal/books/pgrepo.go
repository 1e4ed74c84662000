package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookhub/internal/normalize"
	"bookhub/pkg/models"
)

// PGRepo is the PostgreSQL Store.
type PGRepo struct {
	Pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{Pool: pool}
}

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTxWriter struct {
	q pgQuerier
}

func (r *PGRepo) InTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTxWriter{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PGRepo) Close() error {
	r.Pool.Close()
	return nil
}

func (r *PGRepo) Ping(ctx context.Context) error {
	return r.Pool.Ping(ctx)
}

func scanPGProduct(row pgx.Row, extra ...any) (models.Product, error) {
	var (
		p    models.Product
		isbn *string
		year *int32
	)
	dest := append([]any{
		&p.ID, &p.Title, &p.Author, &isbn, &p.Publisher, &year,
		&p.Genre, &p.Description, &p.ImageURL, &p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	if isbn != nil {
		p.ISBN = *isbn
	}
	if year != nil {
		y := int(*year)
		p.Year = &y
	}
	return p, nil
}

func (w *pgTxWriter) FindByISBN(ctx context.Context, isbn string) (*models.Product, error) {
	if isbn == "" {
		return nil, nil
	}
	row := w.q.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.isbn_clean = $1
	`, isbn)

	p, err := scanPGProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find by isbn: %w", err)
	}
	return &p, nil
}

func (w *pgTxWriter) FindCandidatesByTitle(ctx context.Context, normTitle string, limit int) ([]models.Product, error) {
	if normTitle == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	rows, err := w.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.title_key LIKE '%' || $1 || '%'
		   OR p.title_norm LIKE '%' || $2 || '%'
		ORDER BY p.id
		LIMIT $3
	`, strings.ReplaceAll(normTitle, " ", ""), normTitle, limit)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	defer rows.Close()

	out := make([]models.Product, 0, limit)
	for rows.Next() {
		p, err := scanPGProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (w *pgTxWriter) CreateProduct(ctx context.Context, p models.Product) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var isbn *string
	if p.ISBN != "" {
		isbn = &p.ISBN
	}

	var id int64
	err := w.q.QueryRow(ctx, `
		INSERT INTO products
		(canonical_name, title_norm, title_key, author, isbn_clean, publisher, year, genre, description, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		p.Title,
		normalize.Text(p.Title),
		normalize.TitleKey(p.Title),
		p.Author,
		isbn,
		p.Publisher,
		p.Year,
		p.Genre,
		p.Description,
		p.ImageURL,
		p.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

func (w *pgTxWriter) CreateOffer(ctx context.Context, o models.Offer) (int64, error) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := w.q.QueryRow(ctx, `
		INSERT INTO offers
		(product_id, website_name, price, old_price, discount, url, city, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		o.ProductID,
		o.Source,
		o.Price,
		o.OldPrice,
		o.Discount,
		o.URL,
		o.City,
		o.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert offer for product %d: %w", o.ProductID, err)
	}
	return id, nil
}

func (r *PGRepo) AggregateListing(ctx context.Context, q ListQuery) ([]models.BookRow, int, error) {
	var (
		where string
		args  []any
	)
	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = ` WHERE (p.canonical_name ILIKE $1 OR p.author ILIKE $1)`
		args = append(args, "%"+escapeLike(kw)+"%")
	}

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scan: %w", err)
	}

	order := " ORDER BY p.created_at DESC, p.id DESC"
	if where != "" {
		order = " ORDER BY p.canonical_name ASC, p.id ASC"
	}
	limit, offset := clampPage(q)
	n := len(args)
	args = append(args, limit, offset)

	rows, err := r.Pool.Query(ctx, fmt.Sprintf(`
		SELECT `+productColumns+`, MIN(o.price) AS min_price, COUNT(o.id) AS offers_count
		FROM products p
		LEFT JOIN offers o ON o.product_id = p.id`+where+`
		GROUP BY p.id`+order+`
		LIMIT $%d OFFSET $%d`, n+1, n+2), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.BookRow, 0, limit)
	for rows.Next() {
		var (
			minPrice *float64
			count    int64
		)
		p, err := scanPGProduct(rows, &minPrice, &count)
		if err != nil {
			return nil, 0, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, models.BookRow{Product: p, MinPrice: minPrice, OffersCount: int(count)})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func (r *PGRepo) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *PGRepo) CountOffers(ctx context.Context) (int, error) {
	var n int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return n, nil
}

func (r *PGRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	row := r.Pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.id = $1
	`, id)

	p, err := scanPGProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *PGRepo) ListOffers(ctx context.Context, productID int64) ([]models.Offer, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, product_id, website_name, price, old_price, discount, url, city, created_at
		FROM offers
		WHERE product_id = $1
		ORDER BY price ASC NULLS FIRST, id ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Source, &o.Price, &o.OldPrice, &o.Discount, &o.URL, &o.City, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
