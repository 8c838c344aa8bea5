package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	consultations ConsultationRepository
	prescriptions PrescriptionRepository
	appointments  AppointmentRepository
}

func NewService(consultations ConsultationRepository, prescriptions PrescriptionRepository, appointments AppointmentRepository) *Service {
	return &Service{
		consultations: consultations,
		prescriptions: prescriptions,
		appointments:  appointments,
	}
}

func (s *Service) CreateConsultation(ctx context.Context, c *Consultation) error {
	if c.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if (c.PatientID == nil) == (c.UnregisteredPatientID == nil) {
		return fmt.Errorf("exactly one of patient_id or unregistered_patient_id must be set")
	}
	if c.OccurredAt.IsZero() {
		c.OccurredAt = time.Now()
	}
	return s.consultations.Create(ctx, c)
}

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.Medication == "" {
		return fmt.Errorf("medication is required")
	}
	if (p.PatientID == nil) == (p.UnregisteredPatientID == nil) {
		return fmt.Errorf("exactly one of patient_id or unregistered_patient_id must be set")
	}
	if p.IssuedAt.IsZero() {
		p.IssuedAt = time.Now()
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if (a.PatientID == nil) == (a.UnregisteredPatientID == nil) {
		return fmt.Errorf("exactly one of patient_id or unregistered_patient_id must be set")
	}
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) PatientHistory(ctx context.Context, patientID uuid.UUID) ([]*Consultation, []*Prescription, []*Appointment, error) {
	consultations, err := s.consultations.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, nil, err
	}
	prescriptions, err := s.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, nil, err
	}
	appointments, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, nil, err
	}
	return consultations, prescriptions, appointments, nil
}
