package repository

import (
	"context"
	"fmt"

	"photobooth-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PromptRepository handles database operations for prompts
type PromptRepository struct {
	db *pgxpool.Pool
}

// NewPromptRepository creates a new prompt repository
func NewPromptRepository(db *pgxpool.Pool) *PromptRepository {
	return &PromptRepository{db: db}
}

const promptColumns = `id, title, prompt, person_count, category, created_at, updated_at`

// Create inserts a new prompt
func (r *PromptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	query := `
		INSERT INTO prompts (title, prompt, person_count, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		prompt.Title, prompt.Prompt, prompt.PersonCount, prompt.Category,
	).Scan(&prompt.ID, &prompt.CreatedAt, &prompt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}
	return nil
}

// GetByID retrieves a prompt by ID
func (r *PromptRepository) GetByID(ctx context.Context, id int64) (*models.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts WHERE id = $1`
	prompt, err := scanPrompt(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return prompt, nil
}

// List retrieves prompts, optionally filtered by category, title-ascending
func (r *PromptRepository) List(ctx context.Context, category *models.MediaCategory) ([]models.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts`
	args := []any{}
	if category != nil {
		query += ` WHERE category = $1`
		args = append(args, *category)
	}
	query += ` ORDER BY title ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	return collectPrompts(rows)
}

// Random retrieves one uniformly random prompt
func (r *PromptRepository) Random(ctx context.Context) (*models.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts ORDER BY RANDOM() LIMIT 1`
	prompt, err := scanPrompt(r.db.QueryRow(ctx, query))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to pick random prompt: %w", err)
	}
	return prompt, nil
}

// RandomByCategory retrieves one random prompt from a category
func (r *PromptRepository) RandomByCategory(ctx context.Context, category models.MediaCategory) (*models.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts WHERE category = $1 ORDER BY RANDOM() LIMIT 1`
	prompt, err := scanPrompt(r.db.QueryRow(ctx, query, category))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to pick random prompt by category: %w", err)
	}
	return prompt, nil
}

// DistinctCategories lists the categories that have prompts
func (r *PromptRepository) DistinctCategories(ctx context.Context) ([]models.MediaCategory, error) {
	query := `SELECT DISTINCT category FROM prompts WHERE category IS NOT NULL ORDER BY category`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.MediaCategory
	for rows.Next() {
		var c models.MediaCategory
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// Update replaces a prompt's mutable fields
func (r *PromptRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	query := `
		UPDATE prompts
		SET title = $1, prompt = $2, person_count = $3, category = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		prompt.Title, prompt.Prompt, prompt.PersonCount, prompt.Category, prompt.ID,
	).Scan(&prompt.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	return nil
}

// Delete removes a prompt by ID
func (r *PromptRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPrompt(row rowScanner) (*models.Prompt, error) {
	var prompt models.Prompt
	err := row.Scan(
		&prompt.ID, &prompt.Title, &prompt.Prompt, &prompt.PersonCount,
		&prompt.Category, &prompt.CreatedAt, &prompt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

func collectPrompts(rows pgx.Rows) ([]models.Prompt, error) {
	var prompts []models.Prompt
	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, *prompt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prompts: %w", err)
	}
	return prompts, nil
}
