package organization

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no organization matches the lookup.
	ErrNotFound = errors.New("organization not found")
	// ErrInvitationNotFound is returned when no invitation matches the lookup.
	ErrInvitationNotFound = errors.New("invitation not found")
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const orgCols = `id, name, tax_id, phone, email, address_line1, city, state, country,
	specialist_seats, active, created_at, updated_at`

func scanOrganization(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.TaxID, &o.Phone, &o.Email, &o.AddressLine1,
		&o.City, &o.State, &o.Country, &o.SpecialistSeats, &o.Active, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO organization (id, name, tax_id, phone, email, address_line1,
			city, state, country, specialist_seats, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.Name, o.TaxID, o.Phone, o.Email, o.AddressLine1,
		o.City, o.State, o.Country, o.SpecialistSeats, o.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return scanOrganization(r.pool.QueryRow(ctx,
		`SELECT `+orgCols+` FROM organization WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, o *Organization) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE organization SET name=$2, tax_id=$3, phone=$4, email=$5, address_line1=$6,
			city=$7, state=$8, country=$9, specialist_seats=$10, active=$11, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.Name, o.TaxID, o.Phone, o.Email, o.AddressLine1,
		o.City, o.State, o.Country, o.SpecialistSeats, o.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM organization WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organization`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+orgCols+` FROM organization ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

// ------- Invitation repository -------

type invitationRepoPG struct{ pool *pgxpool.Pool }

func NewInvitationRepoPG(pool *pgxpool.Pool) InvitationRepository {
	return &invitationRepoPG{pool: pool}
}

const inviteCols = `id, organization_id, email, role, token, expires_at, accepted_at, created_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	var i Invitation
	err := row.Scan(&i.ID, &i.OrganizationID, &i.Email, &i.Role, &i.Token,
		&i.ExpiresAt, &i.AcceptedAt, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *invitationRepoPG) Create(ctx context.Context, i *Invitation) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invitation (id, organization_id, email, role, token, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		i.ID, i.OrganizationID, i.Email, i.Role, i.Token, i.ExpiresAt)
	return err
}

func (r *invitationRepoPG) GetByToken(ctx context.Context, token string) (*Invitation, error) {
	return scanInvitation(r.pool.QueryRow(ctx,
		`SELECT `+inviteCols+` FROM invitation WHERE token = $1`, token))
}

func (r *invitationRepoPG) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*Invitation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+inviteCols+` FROM invitation WHERE organization_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *invitationRepoPG) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE invitation SET accepted_at = NOW() WHERE id = $1 AND accepted_at IS NULL`, id)
	return err
}

func (r *invitationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM invitation WHERE id = $1`, id)
	return err
}
