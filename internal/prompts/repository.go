package prompts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles prompt_history PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new history Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save appends a prompt to the history log.
func (r *Repository) Save(ctx context.Context, prompt string) (*Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx,
		`INSERT INTO prompt_history (id, prompt) VALUES ($1, $2)
		 RETURNING id, prompt, created_at`, uuid.New(), prompt,
	).Scan(&e.ID, &e.Prompt, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("saving prompt: %w", err)
	}
	return &e, nil
}

// ListRecent returns the newest entries, most recent first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, prompt, created_at FROM prompt_history
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing prompt history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Prompt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt history: %w", err)
	}
	return entries, nil
}
