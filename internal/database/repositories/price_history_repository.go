package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

var _ domain.PriceHistoryReader = (*PriceHistoryRepository)(nil)

// PriceHistoryRepository stores recorded marketplace asks and serves the
// trailing windows used for market-condition classification. It is the sqlite
// implementation of domain.PriceHistoryReader.
type PriceHistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(db *sql.DB, log zerolog.Logger) *PriceHistoryRepository {
	return &PriceHistoryRepository{
		db:  db,
		log: log.With().Str("repo", "price_history").Logger(),
	}
}

// GetRecentAsks returns the lowest asks recorded over the trailing window,
// oldest first.
func (r *PriceHistoryRepository) GetRecentAsks(ctx context.Context, entityID string, days int) ([]float64, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)

	query := `
		SELECT lowest_ask
		FROM market_price_history
		WHERE entity_id = ? AND recorded_at >= ? AND lowest_ask IS NOT NULL
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, entityID, since.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var asks []float64
	for rows.Next() {
		var ask float64
		if err := rows.Scan(&ask); err != nil {
			return nil, fmt.Errorf("failed to scan ask row: %w", err)
		}
		asks = append(asks, ask)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ask rows: %w", err)
	}

	return asks, nil
}

// RecordSnapshot appends a snapshot's bid/ask to the history.
func (r *PriceHistoryRepository) RecordSnapshot(ctx context.Context, entityID string, snap *domain.MarketSnapshot) error {
	query := `
		INSERT OR REPLACE INTO market_price_history (entity_id, recorded_at, lowest_ask, highest_bid)
		VALUES (?, ?, ?, ?)
	`

	recordedAt := snap.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, entityID, recordedAt.Format(time.RFC3339),
		snap.LowestAsk, snap.HighestBid); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	return nil
}
