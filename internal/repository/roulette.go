package repository

import (
	"context"
	"fmt"

	"photobooth-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RouletteRepository handles database operations for roulette results
type RouletteRepository struct {
	db *pgxpool.Pool
}

// NewRouletteRepository creates a new roulette repository
func NewRouletteRepository(db *pgxpool.Pool) *RouletteRepository {
	return &RouletteRepository{db: db}
}

// SaveSpin deactivates any previous active result and inserts the new one
// in a single transaction, so exactly one result is active afterwards.
func (r *RouletteRepository) SaveSpin(ctx context.Context, result *models.RouletteResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE roulette_results SET is_active = false, updated_at = now() WHERE is_active = true`,
	); err != nil {
		return fmt.Errorf("failed to deactivate previous results: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO roulette_results (selected_category, category_label, is_active)
		VALUES ($1, $2, true)
		RETURNING id, created_at, updated_at
	`, result.SelectedCategory, result.CategoryLabel).Scan(
		&result.ID, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert roulette result: %w", err)
	}
	result.IsActive = true

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit roulette spin: %w", err)
	}
	return nil
}

// Current retrieves the newest active roulette result
func (r *RouletteRepository) Current(ctx context.Context) (*models.RouletteResult, error) {
	query := `
		SELECT id, selected_category, category_label, is_active, created_at, updated_at
		FROM roulette_results
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`
	var result models.RouletteResult
	err := r.db.QueryRow(ctx, query).Scan(
		&result.ID, &result.SelectedCategory, &result.CategoryLabel,
		&result.IsActive, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get current roulette result: %w", err)
	}
	return &result, nil
}
