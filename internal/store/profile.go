package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Profile represents a named set of threshold overrides for one
// exercise. Params holds a JSON object whose keys match the
// exercise's threshold fields; absent keys keep their defaults.
type Profile struct {
	ID        string
	Exercise  string
	Name      string
	Params    json.RawMessage
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileRepository provides CRUD operations for threshold profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a new profile into the database.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	params := p.Params
	if params == nil {
		params = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO profiles (id, exercise, name, params, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Exercise, p.Name, string(params), p.IsDefault, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	row := r.db.QueryRow(
		`SELECT id, exercise, name, params, is_default, created_at, updated_at
		 FROM profiles WHERE id = ?`,
		id,
	)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByName retrieves a profile by its exercise and name.
// Returns nil, nil if no such profile exists.
func (r *ProfileRepository) GetByName(exercise, name string) (*Profile, error) {
	row := r.db.QueryRow(
		`SELECT id, exercise, name, params, is_default, created_at, updated_at
		 FROM profiles WHERE exercise = ? AND name = ?`,
		exercise, name,
	)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Silent skip - no profile with that name
		}
		return nil, err
	}
	return p, nil
}

// GetDefault retrieves the default profile for an exercise.
// Returns nil, nil if the exercise has no default profile.
func (r *ProfileRepository) GetDefault(exercise string) (*Profile, error) {
	row := r.db.QueryRow(
		`SELECT id, exercise, name, params, is_default, created_at, updated_at
		 FROM profiles WHERE exercise = ? AND is_default = 1`,
		exercise,
	)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Silent skip - no default configured
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all profiles, newest first.
func (r *ProfileRepository) List() ([]*Profile, error) {
	return r.list(
		`SELECT id, exercise, name, params, is_default, created_at, updated_at
		 FROM profiles ORDER BY created_at DESC`,
	)
}

// ListByExercise retrieves all profiles for one exercise, newest first.
func (r *ProfileRepository) ListByExercise(exercise string) ([]*Profile, error) {
	return r.list(
		`SELECT id, exercise, name, params, is_default, created_at, updated_at
		 FROM profiles WHERE exercise = ? ORDER BY created_at DESC`,
		exercise,
	)
}

func (r *ProfileRepository) list(query string, args ...any) ([]*Profile, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile in the database.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	params := p.Params
	if params == nil {
		params = json.RawMessage("{}")
	}

	result, err := r.db.Exec(
		`UPDATE profiles SET exercise = ?, name = ?, params = ?, is_default = ?, updated_at = ?
		 WHERE id = ?`,
		p.Exercise, p.Name, string(params), p.IsDefault, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetDefault marks one profile as its exercise's default, clearing
// the flag from any other profile of the same exercise.
func (r *ProfileRepository) SetDefault(id string) error {
	p, err := r.GetByID(id)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE profiles SET is_default = 0 WHERE exercise = ?`, p.Exercise); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE profiles SET is_default = 1 WHERE id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a profile from the database by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var params string
	var isDefault int

	err := row.Scan(&p.ID, &p.Exercise, &p.Name, &params, &isDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Params = json.RawMessage(params)
	p.IsDefault = isDefault != 0
	return p, nil
}
