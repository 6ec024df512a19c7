package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kisanmitra/kisan/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements storage.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs
// migrations. Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) MarketPrices(ctx context.Context, q storage.MarketPriceQuery) ([]storage.MarketPrice, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, commodity, mandi_name, mandi_district, mandi_state,
		       modal_price, min_price, max_price, price_unit, price_date
		FROM market_prices
		WHERE commodity LIKE '%' || ? || '%' COLLATE NOCASE`
	args := []any{q.Commodity}

	if q.State != "" {
		query += ` AND mandi_state LIKE '%' || ? || '%' COLLATE NOCASE`
		args = append(args, q.State)
	}
	if q.Mandi != "" {
		query += ` AND mandi_name LIKE '%' || ? || '%' COLLATE NOCASE`
		args = append(args, q.Mandi)
	}

	query += ` ORDER BY price_date DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying market prices: %w", err)
	}
	defer rows.Close()

	var prices []storage.MarketPrice
	for rows.Next() {
		var p storage.MarketPrice
		if err := rows.Scan(&p.ID, &p.Commodity, &p.MandiName, &p.MandiDistrict, &p.MandiState,
			&p.ModalPrice, &p.MinPrice, &p.MaxPrice, &p.PriceUnit, &p.PriceDate); err != nil {
			return nil, fmt.Errorf("scanning price row: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func (s *SQLiteStore) SearchSchemes(ctx context.Context, q storage.SchemeQuery) ([]storage.Scheme, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}

	// Crop and state terms widen the match rather than narrow it: a scheme
	// that mentions either the query or the crop is still relevant.
	terms := []string{q.Query}
	if q.Crop != "" {
		terms = append(terms, q.Crop)
	}
	if q.State != "" {
		terms = append(terms, q.State)
	}

	query := `
		SELECT id, scheme_name, ministry, description, benefits,
		       eligibility_criteria, application_url, valid_until, is_active
		FROM govt_schemes
		WHERE is_active = 1 AND (`
	var args []any
	for i, term := range terms {
		if i > 0 {
			query += ` OR `
		}
		query += `scheme_name LIKE '%' || ? || '%' COLLATE NOCASE
			OR description LIKE '%' || ? || '%' COLLATE NOCASE
			OR benefits LIKE '%' || ? || '%' COLLATE NOCASE`
		args = append(args, term, term, term)
	}
	query += `) LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying schemes: %w", err)
	}
	defer rows.Close()

	var schemes []storage.Scheme
	for rows.Next() {
		var sc storage.Scheme
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Ministry, &sc.Description, &sc.Benefits,
			&sc.Eligibility, &sc.ApplicationURL, &sc.ValidUntil, &sc.IsActive); err != nil {
			return nil, fmt.Errorf("scanning scheme row: %w", err)
		}
		schemes = append(schemes, sc)
	}
	return schemes, rows.Err()
}

// InsertMarketPrice adds a price row. Used by seeding and tests.
func (s *SQLiteStore) InsertMarketPrice(ctx context.Context, p storage.MarketPrice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_prices (commodity, mandi_name, mandi_district, mandi_state,
			modal_price, min_price, max_price, price_unit, price_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Commodity, p.MandiName, p.MandiDistrict, p.MandiState,
		p.ModalPrice, p.MinPrice, p.MaxPrice, p.PriceUnit,
		p.PriceDate.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("inserting market price: %w", err)
	}
	return nil
}

// InsertScheme adds a scheme row. Used by seeding and tests.
func (s *SQLiteStore) InsertScheme(ctx context.Context, sc storage.Scheme) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO govt_schemes (scheme_name, ministry, description, benefits,
			eligibility_criteria, application_url, valid_until, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.Name, sc.Ministry, sc.Description, sc.Benefits,
		sc.Eligibility, sc.ApplicationURL, sc.ValidUntil, sc.IsActive,
	)
	if err != nil {
		return fmt.Errorf("inserting scheme: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
