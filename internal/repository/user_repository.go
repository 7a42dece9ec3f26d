package repository

import (
	"database/sql"

	"casetrack/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, unit_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.UnitID,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, name, role, unit_id, is_active, created_at
		FROM users WHERE email = $1
	`
	return r.scanUser(r.db.QueryRow(query, email))
}

func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, name, role, unit_id, is_active, created_at
		FROM users WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(query, id))
}

// Suspend deactivates the account. Cases and notifications owned by the
// user are kept.
func (r *UserRepository) Suspend(id uuid.UUID) error {
	query := `UPDATE users SET is_active = FALSE WHERE id = $1`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var unitID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&unitID,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	if unitID.Valid {
		uid, err := uuid.Parse(unitID.String)
		if err != nil {
			return nil, err
		}
		user.UnitID = &uid
	}

	return user, nil
}
