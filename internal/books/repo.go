package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookhub/internal/normalize"
	"bookhub/pkg/models"
)

// Repo is the SQLite Store.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txWriter runs the ingestion statements on a transaction.
type txWriter struct {
	q querier
}

func (r *Repo) InTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txWriter{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repo) Close() error {
	return r.DB.Close()
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

const productColumns = `p.id, p.canonical_name, p.author, p.isbn_clean, p.publisher, p.year,
	p.genre, p.description, p.image_url, p.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, extra ...any) (models.Product, error) {
	var (
		p    models.Product
		isbn sql.NullString
		year sql.NullInt64
	)
	dest := append([]any{
		&p.ID, &p.Title, &p.Author, &isbn, &p.Publisher, &year,
		&p.Genre, &p.Description, &p.ImageURL, &p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	p.ISBN = isbn.String
	if year.Valid {
		y := int(year.Int64)
		p.Year = &y
	}
	return p, nil
}

func (w *txWriter) FindByISBN(ctx context.Context, isbn string) (*models.Product, error) {
	if isbn == "" {
		return nil, nil
	}
	row := w.q.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.isbn_clean = ?
	`, isbn)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find by isbn: %w", err)
	}
	return &p, nil
}

func (w *txWriter) FindCandidatesByTitle(ctx context.Context, normTitle string, limit int) ([]models.Product, error) {
	if normTitle == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	rows, err := w.q.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.title_key LIKE '%' || ? || '%'
		   OR p.title_norm LIKE '%' || ? || '%'
		ORDER BY p.id
		LIMIT ?
	`, strings.ReplaceAll(normTitle, " ", ""), normTitle, limit)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	defer rows.Close()

	out := make([]models.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
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

func (w *txWriter) CreateProduct(ctx context.Context, p models.Product) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var year sql.NullInt64
	if p.Year != nil {
		year = sql.NullInt64{Int64: int64(*p.Year), Valid: true}
	}

	res, err := w.q.ExecContext(ctx, `
		INSERT INTO products
		(canonical_name, title_norm, title_key, author, isbn_clean, publisher, year, genre, description, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.Title,
		normalize.Text(p.Title),
		normalize.TitleKey(p.Title),
		p.Author,
		nullString(p.ISBN),
		p.Publisher,
		year,
		p.Genre,
		p.Description,
		p.ImageURL,
		p.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("product id: %w", err)
	}
	return id, nil
}

func (w *txWriter) CreateOffer(ctx context.Context, o models.Offer) (int64, error) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	res, err := w.q.ExecContext(ctx, `
		INSERT INTO offers
		(product_id, website_name, price, old_price, discount, url, city, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.ProductID,
		o.Source,
		nullFloat(o.Price),
		nullFloat(o.OldPrice),
		o.Discount,
		o.URL,
		o.City,
		o.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert offer for product %d: %w", o.ProductID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("offer id: %w", err)
	}
	return id, nil
}

func (r *Repo) AggregateListing(ctx context.Context, q ListQuery) ([]models.BookRow, int, error) {
	countSQL, countArgs := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scan: %w", err)
	}

	sqlStr, args := buildListSQL(q, false)
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.BookRow, 0, max(q.Limit, 0))
	for rows.Next() {
		var (
			minPrice sql.NullFloat64
			count    int
		)
		p, err := scanProduct(rows, &minPrice, &count)
		if err != nil {
			return nil, 0, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, models.BookRow{
			Product:     p,
			MinPrice:    floatPtr(minPrice),
			OffersCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// buildListSQL builds either the COUNT(*) or the aggregated page query.
// The search filter folds case with ulower(), see database.DriverName.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	var where string
	var args []any

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = ` WHERE (ulower(p.canonical_name) LIKE ? ESCAPE '\' OR ulower(p.author) LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
		args = append(args, pattern, pattern)
	}

	if countOnly {
		return `SELECT COUNT(*) FROM products p` + where, args
	}

	sqlStr := `
		SELECT ` + productColumns + `, MIN(o.price) AS min_price, COUNT(o.id) AS offers_count
		FROM products p
		LEFT JOIN offers o ON o.product_id = p.id` + where + `
		GROUP BY p.id`
	if strings.TrimSpace(q.Q) != "" {
		sqlStr += " ORDER BY p.canonical_name ASC, p.id ASC"
	} else {
		sqlStr += " ORDER BY p.created_at DESC, p.id DESC"
	}
	sqlStr += " LIMIT ? OFFSET ?"
	limit, offset := clampPage(q)
	args = append(args, limit, offset)

	return sqlStr, args
}

func (r *Repo) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *Repo) CountOffers(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return n, nil
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.id = ?
	`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *Repo) ListOffers(ctx context.Context, productID int64) ([]models.Offer, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, product_id, website_name, price, old_price, discount, url, city, created_at
		FROM offers
		WHERE product_id = ?
		ORDER BY price ASC, id ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		var (
			o        models.Offer
			price    sql.NullFloat64
			oldPrice sql.NullFloat64
		)
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Source, &price, &oldPrice, &o.Discount, &o.URL, &o.City, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		o.Price = floatPtr(price)
		o.OldPrice = floatPtr(oldPrice)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func clampPage(q ListQuery) (int, int) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
