package casestudy

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentiva/clinic/internal/platform/db"
	"github.com/dentiva/clinic/internal/platform/genai"
)

// ErrNotFound is returned when a case study does not exist.
var ErrNotFound = errors.New("case study not found")

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const caseStudyCols = `id, patient_id, title, chief_complaint, sections, model,
	total_tokens, cost, observation_ids, procedure_ids, attachment_ids,
	created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, cs *CaseStudy) error {
	cs.ID = uuid.New()
	sections, err := json.Marshal(cs.Sections)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO case_study (
			id, patient_id, title, chief_complaint, sections, model,
			total_tokens, cost, observation_ids, procedure_ids, attachment_ids
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		cs.ID, cs.PatientID, cs.Title, cs.ChiefComplaint, sections, cs.Model,
		cs.TotalTokens, cs.Cost, cs.ObservationIDs, cs.ProcedureIDs, cs.AttachmentIDs,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*CaseStudy, error) {
	return scanCaseStudy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseStudyCols+` FROM case_study WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, cs *CaseStudy) error {
	sections, err := json.Marshal(cs.Sections)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE case_study SET
			title=$2, chief_complaint=$3, sections=$4, model=$5,
			total_tokens=$6, cost=$7, updated_at=NOW()
		WHERE id = $1`,
		cs.ID, cs.Title, cs.ChiefComplaint, sections, cs.Model,
		cs.TotalTokens, cs.Cost,
	)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CaseStudy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM case_study WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+caseStudyCols+` FROM case_study
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*CaseStudy
	for rows.Next() {
		cs, err := scanCaseStudyRow(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, cs)
	}
	return list, total, rows.Err()
}

func scanCaseStudy(row pgx.Row) (*CaseStudy, error) {
	cs, err := scanCaseStudyRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func scanCaseStudyRow(row pgx.Row) (*CaseStudy, error) {
	cs := &CaseStudy{}
	var sections []byte
	if err := row.Scan(
		&cs.ID, &cs.PatientID, &cs.Title, &cs.ChiefComplaint, &sections, &cs.Model,
		&cs.TotalTokens, &cs.Cost, &cs.ObservationIDs, &cs.ProcedureIDs, &cs.AttachmentIDs,
		&cs.CreatedAt, &cs.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &cs.Sections); err != nil {
			return nil, err
		}
	} else {
		cs.Sections = genai.Sections{}
	}
	return cs, nil
}
