package casestudy

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists generated case studies along with the record id lists
// they were built from.
type Repository interface {
	Create(ctx context.Context, cs *CaseStudy) error
	GetByID(ctx context.Context, id uuid.UUID) (*CaseStudy, error)
	Update(ctx context.Context, cs *CaseStudy) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CaseStudy, int, error)
}
