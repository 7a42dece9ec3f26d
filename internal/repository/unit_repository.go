package repository

import (
	"database/sql"

	"casetrack/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UnitRepository struct {
	db *sql.DB
}

func NewUnitRepository(db *sql.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

func (r *UnitRepository) Create(unit *model.Unit) error {
	query := `
		INSERT INTO units (id, name, is_active, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(query, unit.ID, unit.Name, unit.IsActive, unit.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UnitRepository) FindAll() ([]model.Unit, error) {
	query := `SELECT id, name, is_active, created_at FROM units ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// Deactivate soft-disables a unit. Cases already assigned to it keep their
// reference; the unit just stops being a valid assignment target.
func (r *UnitRepository) Deactivate(id uuid.UUID) error {
	query := `UPDATE units SET is_active = FALSE WHERE id = $1`
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
