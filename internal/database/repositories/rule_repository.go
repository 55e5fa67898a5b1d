package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

var _ domain.PricingRuleReader = (*RuleRepository)(nil)

// RuleRepository reads active price-adjustment rules. It is the sqlite
// implementation of domain.PricingRuleReader.
type RuleRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB, log zerolog.Logger) *RuleRepository {
	return &RuleRepository{
		db:  db,
		log: log.With().Str("repo", "rules").Logger(),
	}
}

// GetActiveRules returns rules scoped to the query in descending priority
// order. A rule with an empty scope column matches any value.
func (r *RuleRepository) GetActiveRules(ctx context.Context, q domain.RuleQuery) ([]domain.PriceRule, error) {
	query := `
		SELECT name, adjustment_type, value, priority,
		       COALESCE(brand, ''), COALESCE(category, ''),
		       COALESCE(platform, ''), COALESCE(condition, '')
		FROM price_rules
		WHERE active = 1
		  AND (brand IS NULL OR brand = '' OR brand = ?)
		  AND (category IS NULL OR category = '' OR category = ?)
		  AND (platform IS NULL OR platform = '' OR platform = ?)
		  AND (condition IS NULL OR condition = '' OR condition = ?)
		ORDER BY priority DESC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, q.Brand, q.Category, q.Platform, string(q.Condition))
	if err != nil {
		return nil, fmt.Errorf("failed to query price rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.PriceRule
	for rows.Next() {
		var rule domain.PriceRule
		var adjType, condition string
		if err := rows.Scan(&rule.Name, &adjType, &rule.Value, &rule.Priority,
			&rule.Brand, &rule.Category, &rule.Platform, &condition); err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		rule.Type = domain.AdjustmentType(adjType)
		rule.Condition = domain.Condition(condition)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule rows: %w", err)
	}

	return rules, nil
}

// Upsert creates or replaces a rule by name.
func (r *RuleRepository) Upsert(ctx context.Context, rule domain.PriceRule, active bool) error {
	query := `
		INSERT INTO price_rules
		(name, adjustment_type, value, priority, brand, category, platform, condition, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			adjustment_type = excluded.adjustment_type,
			value           = excluded.value,
			priority        = excluded.priority,
			brand           = excluded.brand,
			category        = excluded.category,
			platform        = excluded.platform,
			condition       = excluded.condition,
			active          = excluded.active
	`

	activeInt := 0
	if active {
		activeInt = 1
	}
	if _, err := r.db.ExecContext(ctx, query, rule.Name, string(rule.Type), rule.Value, rule.Priority,
		rule.Brand, rule.Category, rule.Platform, string(rule.Condition), activeInt); err != nil {
		return fmt.Errorf("failed to upsert rule %q: %w", rule.Name, err)
	}

	return nil
}
