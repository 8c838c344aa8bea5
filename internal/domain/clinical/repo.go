package clinical

import (
	"context"

	"github.com/google/uuid"
)

type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error)
	// ReassignUnregistered points records held by a shadow patient at the
	// registered patient. Already-moved rows are skipped, so a retry after a
	// partial failure is safe. Returns the number of rows moved.
	ReassignUnregistered(ctx context.Context, unregisteredID, patientID uuid.UUID) (int64, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)
	ReassignUnregistered(ctx context.Context, unregisteredID, patientID uuid.UUID) (int64, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ReassignUnregistered(ctx context.Context, unregisteredID, patientID uuid.UUID) (int64, error)
}
