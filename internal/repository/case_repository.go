package repository

import (
	"database/sql"
	"fmt"

	"casetrack/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CaseRepository struct {
	db     *sql.DB
	outbox *OutboxRepository
}

func NewCaseRepository(db *sql.DB, outbox *OutboxRepository) *CaseRepository {
	return &CaseRepository{db: db, outbox: outbox}
}

const caseColumns = `
	c.id, c.case_ref, c.description, c.location_text, c.latitude, c.longitude,
	c.incident_time, c.report_time, c.event_type, c.severity, c.status,
	c.is_fake, c.reporter_id, c.assigned_unit_id, c.client_ref, c.updated_at,
	u.id, u.name, u.is_active`

// Create persists the case, its media references and the staged submission
// notification in one transaction.
func (r *CaseRepository) Create(c *model.Case, media []model.MediaFile, notify *model.CaseEventMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO cases (id, case_ref, description, location_text, latitude, longitude,
			incident_time, report_time, event_type, severity, status, is_fake,
			reporter_id, client_ref, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.Exec(query,
		c.ID,
		c.CaseRef,
		c.Description,
		c.LocationText,
		c.Latitude,
		c.Longitude,
		c.IncidentTime,
		c.ReportTime,
		c.EventType,
		c.Severity,
		c.Status,
		c.IsFake,
		c.ReporterID,
		c.ClientRef,
		c.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrAlreadyExists
		}
		return err
	}

	for i := range media {
		_, err = tx.Exec(
			`INSERT INTO media_files (id, case_id, url, kind, created_at) VALUES ($1, $2, $3, $4, $5)`,
			media[i].ID, media[i].CaseID, media[i].URL, media[i].Kind, media[i].CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	if notify != nil {
		if err := r.outbox.CreateInTransaction(tx, "case."+notify.Event, notify); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CaseRepository) FindByRef(ref string) (*model.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM cases c
		LEFT JOIN units u ON c.assigned_unit_id = u.id
		WHERE c.case_ref = $1
	`
	c, err := r.scanCase(r.db.QueryRow(query, ref))
	if err != nil {
		return nil, err
	}

	media, err := r.loadMedia(c.ID)
	if err != nil {
		return nil, err
	}
	c.Media = media

	return c, nil
}

// FindByClientRef looks up the reporter's own case for a dedupe key. The
// key is scoped per reporter, so the same client_ref used by two citizens
// names two different cases.
func (r *CaseRepository) FindByClientRef(reporterID uuid.UUID, clientRef string) (*model.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM cases c
		LEFT JOIN units u ON c.assigned_unit_id = u.id
		WHERE c.reporter_id = $1 AND c.client_ref = $2
	`
	return r.scanCase(r.db.QueryRow(query, reporterID, clientRef))
}

// FindAll returns cases newest report_time first, capped at 50, with
// optional free-text, event type and status filters.
func (r *CaseRepository) FindAll(filter model.CaseFilter) ([]model.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM cases c
		LEFT JOIN units u ON c.assigned_unit_id = u.id
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if filter.Query != "" {
		query += fmt.Sprintf(` AND (c.description ILIKE $%d OR c.location_text ILIKE $%d OR c.case_ref ILIKE $%d)`,
			argIndex, argIndex, argIndex)
		args = append(args, "%"+filter.Query+"%")
		argIndex++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND c.event_type = $%d", argIndex)
		args = append(args, filter.EventType)
		argIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND c.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	query += " ORDER BY c.report_time DESC LIMIT 50"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanCases(rows)
}

func (r *CaseRepository) FindByReporter(reporterID uuid.UUID) ([]model.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM cases c
		LEFT JOIN units u ON c.assigned_unit_id = u.id
		WHERE c.reporter_id = $1
		ORDER BY c.report_time DESC
	`
	rows, err := r.db.Query(query, reporterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanCases(rows)
}

// UpdateFields updates the citizen-mutable fields only. Status, case_ref,
// report_time and reporter are never touched here. The update carries the
// same status guard as ApplyTransition, so a concurrent accept or assign
// landing after the service's check cannot be overwritten by a stale edit.
func (r *CaseRepository) UpdateFields(id uuid.UUID, req *model.UpdateCaseRequest) error {
	query := `UPDATE cases SET updated_at = NOW()`
	args := []interface{}{}
	argIndex := 1

	appendSet := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	if req.Description != nil {
		appendSet("description", *req.Description)
	}
	if req.LocationText != nil {
		appendSet("location_text", *req.LocationText)
	}
	if req.Latitude != nil {
		appendSet("latitude", *req.Latitude)
	}
	if req.Longitude != nil {
		appendSet("longitude", *req.Longitude)
	}
	if req.IncidentTime != nil {
		appendSet("incident_time", *req.IncidentTime)
	}
	if req.Severity != nil {
		appendSet("severity", *req.Severity)
	}

	editableStatuses := []string{string(model.StatusDraft), string(model.StatusSubmitted)}
	query += fmt.Sprintf(" WHERE id = $%d AND status = ANY($%d)", argIndex, argIndex+1)
	args = append(args, id, pq.Array(editableStatuses))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		var status string
		err := r.db.QueryRow(`SELECT status FROM cases WHERE id = $1`, id).Scan(&status)
		if err == sql.ErrNoRows {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		return model.ErrInvalidTransition
	}

	return nil
}

// ApplyTransition commits one lifecycle mutation atomically. The UPDATE is
// guarded by the expected statuses; zero rows affected means the case is
// gone or another transition won the race.
func (r *CaseRepository) ApplyTransition(t *model.CaseTransition) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE cases SET updated_at = NOW()`
	args := []interface{}{}
	argIndex := 1

	if t.NewStatus != nil {
		query += fmt.Sprintf(", status = $%d", argIndex)
		args = append(args, *t.NewStatus)
		argIndex++
	}
	if t.AssignUnitID != nil {
		query += fmt.Sprintf(", assigned_unit_id = $%d", argIndex)
		args = append(args, *t.AssignUnitID)
		argIndex++
	}
	if t.MarkFake {
		query += ", is_fake = TRUE"
	}

	fromStatuses := make([]string, len(t.FromStatuses))
	for i, s := range t.FromStatuses {
		fromStatuses[i] = string(s)
	}
	query += fmt.Sprintf(" WHERE id = $%d AND status = ANY($%d)", argIndex, argIndex+1)
	args = append(args, t.CaseID, pq.Array(fromStatuses))

	result, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		var status string
		err := tx.QueryRow(`SELECT status FROM cases WHERE id = $1`, t.CaseID).Scan(&status)
		if err == sql.ErrNoRows {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		return model.ErrInvalidTransition
	}

	if t.Assignment != nil {
		_, err = tx.Exec(
			`INSERT INTO case_assignments (id, case_id, unit_id, actor_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
			t.Assignment.ID, t.Assignment.CaseID, t.Assignment.UnitID, t.Assignment.ActorID, t.Assignment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	if t.Notify != nil {
		if err := r.outbox.CreateInTransaction(tx, "case."+t.Notify.Event, t.Notify); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CaseRepository) ListAssignments(caseID uuid.UUID) ([]model.Assignment, error) {
	query := `
		SELECT id, case_id, unit_id, actor_id, created_at
		FROM case_assignments
		WHERE case_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.CaseID, &a.UnitID, &a.ActorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func (r *CaseRepository) loadMedia(caseID uuid.UUID) ([]model.MediaFile, error) {
	query := `
		SELECT id, case_id, url, kind, created_at
		FROM media_files
		WHERE case_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var media []model.MediaFile
	for rows.Next() {
		var m model.MediaFile
		if err := rows.Scan(&m.ID, &m.CaseID, &m.URL, &m.Kind, &m.CreatedAt); err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *CaseRepository) scanCase(row rowScanner) (*model.Case, error) {
	c := &model.Case{}
	var locationText, severity, clientRef sql.NullString
	var lat, lng sql.NullFloat64
	var incidentTime sql.NullTime
	var assignedUnitID sql.NullString
	var unitID, unitName sql.NullString
	var unitActive sql.NullBool

	err := row.Scan(
		&c.ID,
		&c.CaseRef,
		&c.Description,
		&locationText,
		&lat,
		&lng,
		&incidentTime,
		&c.ReportTime,
		&c.EventType,
		&severity,
		&c.Status,
		&c.IsFake,
		&c.ReporterID,
		&assignedUnitID,
		&clientRef,
		&c.UpdatedAt,
		&unitID,
		&unitName,
		&unitActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	if locationText.Valid {
		c.LocationText = &locationText.String
	}
	if lat.Valid {
		c.Latitude = &lat.Float64
	}
	if lng.Valid {
		c.Longitude = &lng.Float64
	}
	if incidentTime.Valid {
		t := incidentTime.Time
		c.IncidentTime = &t
	}
	if severity.Valid {
		c.Severity = &severity.String
	}
	if clientRef.Valid {
		c.ClientRef = &clientRef.String
	}
	if assignedUnitID.Valid {
		uid, err := uuid.Parse(assignedUnitID.String)
		if err != nil {
			return nil, err
		}
		c.AssignedUnitID = &uid
	}
	if unitID.Valid && unitName.Valid {
		uid, err := uuid.Parse(unitID.String)
		if err != nil {
			return nil, err
		}
		c.AssignedUnit = &model.Unit{ID: uid, Name: unitName.String, IsActive: unitActive.Bool}
	}

	return c, nil
}

func (r *CaseRepository) scanCases(rows *sql.Rows) ([]model.Case, error) {
	var cases []model.Case
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}
