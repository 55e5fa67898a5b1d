package domain

import (
	"fmt"
	"time"
)

// InsufficientHistoryError indicates a series is too short for the chosen
// forecast model. Recoverable by falling back to a simpler model.
type InsufficientHistoryError struct {
	EntityID string
	Need     int
	Got      int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %q: need %d days, got %d", e.EntityID, e.Need, e.Got)
}

// DataQualityError indicates a series has too many gaps or invalid values.
type DataQualityError struct {
	EntityID string
	Reason   string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality check failed for %q: %s", e.EntityID, e.Reason)
}

// NoStrategyError indicates no pricing strategy's preconditions were met.
type NoStrategyError struct {
	EntityID string
	Tried    []string
}

func (e *NoStrategyError) Error() string {
	return fmt.Sprintf("no pricing strategy applicable for %q (tried %v)", e.EntityID, e.Tried)
}

// RateLimitedError is returned when the upstream marketplace rejects a request
// for exceeding its rate ceiling. Transient: callers retry with backoff before
// surfacing it.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by marketplace, retry after %s", e.RetryAfter)
	}
	return "rate limited by marketplace"
}

// NotFoundError indicates the marketplace has no listing for an entity.
type NotFoundError struct {
	EntityID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no market data found for %q", e.EntityID)
}

// ModelFitError indicates a numeric fitting failure (non-convergence,
// degenerate inputs). Recoverable only by switching model.
type ModelFitError struct {
	Model  string
	Reason string
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model %s failed to fit: %s", e.Model, e.Reason)
}
