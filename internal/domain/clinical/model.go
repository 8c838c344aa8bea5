package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Clinical records reference either a registered patient or a shadow record,
// never both. When the shadow patient later registers, the migration moves
// the reference over and keeps unregistered_patient_id for audit.

// Consultation maps to the consultation table.
type Consultation struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	PatientID             *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	UnregisteredPatientID *uuid.UUID `db:"unregistered_patient_id" json:"unregistered_patient_id,omitempty"`
	OrganizationID        *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	ClinicianID           *uuid.UUID `db:"clinician_id" json:"clinician_id,omitempty"`
	Reason                string     `db:"reason" json:"reason"`
	Notes                 *string    `db:"notes" json:"notes,omitempty"`
	OccurredAt            time.Time  `db:"occurred_at" json:"occurred_at"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

// Prescription maps to the prescription table.
type Prescription struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	PatientID             *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	UnregisteredPatientID *uuid.UUID `db:"unregistered_patient_id" json:"unregistered_patient_id,omitempty"`
	ConsultationID        *uuid.UUID `db:"consultation_id" json:"consultation_id,omitempty"`
	Medication            string     `db:"medication" json:"medication"`
	Dosage                *string    `db:"dosage" json:"dosage,omitempty"`
	Instructions          *string    `db:"instructions" json:"instructions,omitempty"`
	IssuedAt              time.Time  `db:"issued_at" json:"issued_at"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

const (
	AppointmentScheduled = "SCHEDULED"
	AppointmentCompleted = "COMPLETED"
	AppointmentCanceled  = "CANCELED"
)

// Appointment maps to the appointment table.
type Appointment struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	PatientID             *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	UnregisteredPatientID *uuid.UUID `db:"unregistered_patient_id" json:"unregistered_patient_id,omitempty"`
	OrganizationID        *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	ClinicianID           *uuid.UUID `db:"clinician_id" json:"clinician_id,omitempty"`
	Status                string     `db:"status" json:"status"`
	ScheduledAt           time.Time  `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}
