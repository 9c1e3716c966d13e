package repository

import (
	"context"
	"fmt"
	"time"

	"photobooth-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create inserts a new photo and fills in its generated id and timestamps.
// Timestamps are assigned by the database so created_at follows insertion
// order, which the feed cursor relies on.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (path, likes, kind, prompt_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		photo.Path, photo.Likes, photo.Kind, photo.PromptID,
	).Scan(&photo.ID, &photo.CreatedAt, &photo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo with its prompt by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id int64) (*models.Photo, *models.Prompt, error) {
	query := `
		SELECT p.id, p.path, p.likes, p.kind, p.created_at, p.updated_at, p.prompt_id,
		       pr.id, pr.title, pr.prompt
		FROM photos p
		LEFT JOIN prompts pr ON pr.id = p.prompt_id
		WHERE p.id = $1
	`
	photo, prompt, err := scanPhotoRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return photo, prompt, nil
}

// List retrieves photos newest-first with their prompts
func (r *PhotoRepository) List(ctx context.Context, limit, offset int) ([]PhotoWithPrompt, int, error) {
	countQuery := `SELECT COUNT(*) FROM photos WHERE path <> ''`
	var total int
	if err := r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count photos: %w", err)
	}

	query := `
		SELECT p.id, p.path, p.likes, p.kind, p.created_at, p.updated_at, p.prompt_id,
		       pr.id, pr.title, pr.prompt
		FROM photos p
		LEFT JOIN prompts pr ON pr.id = p.prompt_id
		WHERE p.path <> ''
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	photos, err := collectPhotoRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}

// ListByKind retrieves photos of one kind, newest-first
func (r *PhotoRepository) ListByKind(ctx context.Context, kind models.PhotoKind) ([]PhotoWithPrompt, error) {
	query := `
		SELECT p.id, p.path, p.likes, p.kind, p.created_at, p.updated_at, p.prompt_id,
		       pr.id, pr.title, pr.prompt
		FROM photos p
		LEFT JOIN prompts pr ON pr.id = p.prompt_id
		WHERE p.kind = $1 AND p.path <> ''
		ORDER BY p.created_at DESC, p.id DESC
	`
	rows, err := r.db.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos by kind: %w", err)
	}
	defer rows.Close()

	return collectPhotoRows(rows)
}

// ListSince retrieves photos created strictly after the given time,
// ascending, for the polling fallback.
func (r *PhotoRepository) ListSince(ctx context.Context, since time.Time) ([]PhotoWithPrompt, error) {
	query := `
		SELECT p.id, p.path, p.likes, p.kind, p.created_at, p.updated_at, p.prompt_id,
		       pr.id, pr.title, pr.prompt
		FROM photos p
		LEFT JOIN prompts pr ON pr.id = p.prompt_id
		WHERE p.created_at > $1 AND p.path <> ''
		ORDER BY p.created_at ASC, p.id ASC
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos since %s: %w", since, err)
	}
	defer rows.Close()

	return collectPhotoRows(rows)
}

// IncrementLikes atomically bumps a photo's like count and returns the
// updated row with its prompt. Likes are never decremented.
func (r *PhotoRepository) IncrementLikes(ctx context.Context, id int64) (*models.Photo, *models.Prompt, error) {
	query := `
		UPDATE photos
		SET likes = likes + 1, updated_at = now()
		WHERE id = $1
		RETURNING id, path, likes, kind, created_at, updated_at, prompt_id
	`
	var photo models.Photo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&photo.ID, &photo.Path, &photo.Likes, &photo.Kind,
		&photo.CreatedAt, &photo.UpdatedAt, &photo.PromptID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to increment likes: %w", err)
	}

	if photo.PromptID == nil {
		return &photo, nil, nil
	}

	var prompt models.Prompt
	promptQuery := `SELECT id, title, prompt FROM prompts WHERE id = $1`
	err = r.db.QueryRow(ctx, promptQuery, *photo.PromptID).Scan(&prompt.ID, &prompt.Title, &prompt.Prompt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &photo, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load photo prompt: %w", err)
	}
	return &photo, &prompt, nil
}

// PhotoWithPrompt pairs a photo row with its optional prompt
type PhotoWithPrompt struct {
	Photo  models.Photo
	Prompt *models.Prompt
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhotoRow(row rowScanner) (*models.Photo, *models.Prompt, error) {
	var photo models.Photo
	var promptID *int64
	var promptTitle, promptText *string
	err := row.Scan(
		&photo.ID, &photo.Path, &photo.Likes, &photo.Kind,
		&photo.CreatedAt, &photo.UpdatedAt, &photo.PromptID,
		&promptID, &promptTitle, &promptText,
	)
	if err != nil {
		return nil, nil, err
	}
	if promptID == nil {
		return &photo, nil, nil
	}
	return &photo, &models.Prompt{ID: *promptID, Title: *promptTitle, Prompt: *promptText}, nil
}

func collectPhotoRows(rows pgx.Rows) ([]PhotoWithPrompt, error) {
	var out []PhotoWithPrompt
	for rows.Next() {
		photo, prompt, err := scanPhotoRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		out = append(out, PhotoWithPrompt{Photo: *photo, Prompt: prompt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return out, nil
}
