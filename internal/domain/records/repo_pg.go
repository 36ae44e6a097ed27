package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentiva/clinic/internal/platform/db"
)

// ErrNotFound is returned when a clinical record does not exist.
var ErrNotFound = errors.New("clinical record not found")

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// -- Observations --

type observationRepoPG struct {
	pool *pgxpool.Pool
}

func NewObservationRepo(pool *pgxpool.Pool) ObservationRepository {
	return &observationRepoPG{pool: pool}
}

const obsCols = `id, patient_id, tooth_numbers, condition, severity, notes,
	recorded_at, created_at, updated_at`

func (r *observationRepoPG) Create(ctx context.Context, o *Observation) error {
	o.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO observation (
			id, patient_id, tooth_numbers, condition, severity, notes, recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.PatientID, o.ToothNumbers, o.Condition, o.Severity, o.Notes, o.RecordedAt,
	)
	return err
}

func (r *observationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Observation, error) {
	return scanObservation(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+obsCols+` FROM observation WHERE id = $1`, id))
}

func (r *observationRepoPG) Update(ctx context.Context, o *Observation) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE observation SET
			tooth_numbers=$2, condition=$3, severity=$4, notes=$5, recorded_at=$6,
			updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.ToothNumbers, o.Condition, o.Severity, o.Notes, o.RecordedAt,
	)
	return err
}

func (r *observationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM observation WHERE id = $1`, id)
	return err
}

func (r *observationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Observation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+obsCols+` FROM observation
		WHERE patient_id = $1
		ORDER BY recorded_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []*Observation
	for rows.Next() {
		o := &Observation{}
		if err := rows.Scan(
			&o.ID, &o.PatientID, &o.ToothNumbers, &o.Condition, &o.Severity,
			&o.Notes, &o.RecordedAt, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

func scanObservation(row pgx.Row) (*Observation, error) {
	o := &Observation{}
	err := row.Scan(
		&o.ID, &o.PatientID, &o.ToothNumbers, &o.Condition, &o.Severity,
		&o.Notes, &o.RecordedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// -- Procedures --

type procedureRepoPG struct {
	pool *pgxpool.Pool
}

func NewProcedureRepo(pool *pgxpool.Pool) ProcedureRepository {
	return &procedureRepoPG{pool: pool}
}

const procCols = `id, patient_id, tooth_numbers, name, code, status,
	scheduled_at, completed_at, observation_id, created_at, updated_at`

func (r *procedureRepoPG) Create(ctx context.Context, p *Procedure) error {
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = StatusPlanned
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO procedure (
			id, patient_id, tooth_numbers, name, code, status,
			scheduled_at, completed_at, observation_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.PatientID, p.ToothNumbers, p.Name, p.Code, p.Status,
		p.ScheduledAt, p.CompletedAt, p.ObservationID,
	)
	return err
}

func (r *procedureRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return scanProcedure(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+procCols+` FROM procedure WHERE id = $1`, id))
}

func (r *procedureRepoPG) Update(ctx context.Context, p *Procedure) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE procedure SET
			tooth_numbers=$2, name=$3, code=$4, status=$5,
			scheduled_at=$6, completed_at=$7, observation_id=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.ToothNumbers, p.Name, p.Code, p.Status,
		p.ScheduledAt, p.CompletedAt, p.ObservationID,
	)
	return err
}

func (r *procedureRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM procedure WHERE id = $1`, id)
	return err
}

func (r *procedureRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Procedure, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+procCols+` FROM procedure
		WHERE patient_id = $1
		ORDER BY scheduled_at NULLS LAST`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var procedures []*Procedure
	for rows.Next() {
		p := &Procedure{}
		if err := rows.Scan(
			&p.ID, &p.PatientID, &p.ToothNumbers, &p.Name, &p.Code, &p.Status,
			&p.ScheduledAt, &p.CompletedAt, &p.ObservationID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

func scanProcedure(row pgx.Row) (*Procedure, error) {
	p := &Procedure{}
	err := row.Scan(
		&p.ID, &p.PatientID, &p.ToothNumbers, &p.Name, &p.Code, &p.Status,
		&p.ScheduledAt, &p.CompletedAt, &p.ObservationID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// -- Attachments --

type attachmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepo(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepoPG{pool: pool}
}

const attCols = `id, patient_id, observation_id, procedure_id, kind, caption,
	taken_at, storage_url, created_at`

func (r *attachmentRepoPG) Create(ctx context.Context, a *Attachment) error {
	a.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO attachment (
			id, patient_id, observation_id, procedure_id, kind, caption,
			taken_at, storage_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.ObservationID, a.ProcedureID, a.Kind, a.Caption,
		a.TakenAt, a.StorageURL,
	)
	return err
}

func (r *attachmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	a := &Attachment{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+attCols+` FROM attachment WHERE id = $1`, id).Scan(
		&a.ID, &a.PatientID, &a.ObservationID, &a.ProcedureID, &a.Kind, &a.Caption,
		&a.TakenAt, &a.StorageURL, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *attachmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM attachment WHERE id = $1`, id)
	return err
}

func (r *attachmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Attachment, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+attCols+` FROM attachment
		WHERE patient_id = $1
		ORDER BY created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*Attachment
	for rows.Next() {
		a := &Attachment{}
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.ObservationID, &a.ProcedureID, &a.Kind,
			&a.Caption, &a.TakenAt, &a.StorageURL, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
