package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no subscription matches the lookup.
var ErrNotFound = errors.New("subscription not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const subscriptionCols = `id, organization_id, patient_id, plan, status, seats,
	trial_ends_at, canceled_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.OrganizationID, &s.PatientID, &s.Plan, &s.Status, &s.Seats,
		&s.TrialEndsAt, &s.CanceledAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Subscription) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscription (id, organization_id, patient_id, plan, status, seats, trial_ends_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.OrganizationID, s.PatientID, s.Plan, s.Status, s.Seats, s.TrialEndsAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscription WHERE id = $1`, id))
}

func (r *repoPG) GetByOrganization(ctx context.Context, orgID uuid.UUID) (*Subscription, error) {
	return scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscription
		 WHERE organization_id = $1 AND status != 'CANCELED'
		 ORDER BY created_at DESC LIMIT 1`, orgID))
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Subscription, error) {
	return scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscription
		 WHERE patient_id = $1 AND status != 'CANCELED'
		 ORDER BY created_at DESC LIMIT 1`, patientID))
}

func (r *repoPG) Update(ctx context.Context, s *Subscription) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE subscription SET plan=$2, status=$3, seats=$4, trial_ends_at=$5, canceled_at=$6,
			updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Plan, s.Status, s.Seats, s.TrialEndsAt, s.CanceledAt)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subscription WHERE id = $1`, id)
	return err
}
