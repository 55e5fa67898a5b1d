package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

const dateLayout = "2006-01-02"

var _ domain.HistoricalSalesReader = (*SalesRepository)(nil)

// SalesRepository reads and records aggregated daily sales. It is the sqlite
// implementation of domain.HistoricalSalesReader.
type SalesRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(db *sql.DB, log zerolog.Logger) *SalesRepository {
	return &SalesRepository{
		db:  db,
		log: log.With().Str("repo", "sales").Logger(),
	}
}

// GetDailySales returns one row per day with recorded sales, ordered by date.
func (r *SalesRepository) GetDailySales(ctx context.Context, entityID string, since time.Time) ([]domain.SalesPoint, error) {
	query := `
		SELECT sale_date, quantity, revenue
		FROM daily_sales
		WHERE entity_id = ? AND sale_date >= ?
		ORDER BY sale_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, entityID, since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	defer rows.Close()

	var points []domain.SalesPoint
	for rows.Next() {
		var dateStr string
		var p domain.SalesPoint
		if err := rows.Scan(&dateStr, &p.Quantity, &p.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan sales row: %w", err)
		}
		p.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid sale_date %q: %w", dateStr, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales rows: %w", err)
	}

	return points, nil
}

// RecordSale upserts a day of aggregated sales for an entity.
func (r *SalesRepository) RecordSale(ctx context.Context, entityID string, day time.Time, quantity, revenue float64) error {
	query := `
		INSERT INTO daily_sales (entity_id, sale_date, quantity, revenue)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entity_id, sale_date)
		DO UPDATE SET quantity = quantity + excluded.quantity,
		              revenue  = revenue + excluded.revenue
	`

	if _, err := r.db.ExecContext(ctx, query, entityID, day.Format(dateLayout), quantity, revenue); err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}

	return nil
}
