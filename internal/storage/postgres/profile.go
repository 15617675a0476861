package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/farkle/internal/game/profile"
)

// ProfileRepository stores each profile as one JSONB document. It
// implements profile.Store.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	if db == nil {
		panic("postgres.NewProfileRepository: db must not be nil")
	}
	return &ProfileRepository{db: db}
}

// Load returns the profile stored under id.
//
// Postcondition: returns profile.ErrNotFound when no row exists.
func (r *ProfileRepository) Load(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM profiles WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, profile.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", id, err)
	}
	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", id, err)
	}
	p.ID = id
	return &p, nil
}

// Save upserts p.
func (r *ProfileRepository) Save(ctx context.Context, p *profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile %s: %w", p.ID, err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO profiles (id, data)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		p.ID, data,
	)
	if err != nil {
		return fmt.Errorf("saving profile %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes the profile stored under id. Deleting a missing profile
// is not an error.
func (r *ProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	return nil
}
