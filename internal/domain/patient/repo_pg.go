package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no patient matches the lookup.
	ErrNotFound = errors.New("patient not found")
	// ErrUnregisteredNotFound is returned when no shadow record matches.
	ErrUnregisteredNotFound = errors.New("unregistered patient not found")
	// ErrFamilyGroupNotFound is returned when no family group matches.
	ErrFamilyGroupNotFound = errors.New("family group not found")
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, identifier, first_name, last_name, birth_date, sex, phone, email,
	organization_id, family_group_id, unregistered_patient_id, active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Identifier, &p.FirstName, &p.LastName, &p.BirthDate, &p.Sex,
		&p.Phone, &p.Email, &p.OrganizationID, &p.FamilyGroupID, &p.UnregisteredPatientID,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, identifier, first_name, last_name, birth_date, sex, phone, email,
			organization_id, family_group_id, unregistered_patient_id, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.Identifier, p.FirstName, p.LastName, p.BirthDate, p.Sex, p.Phone, p.Email,
		p.OrganizationID, p.FamilyGroupID, p.UnregisteredPatientID, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) GetByIdentifier(ctx context.Context, identifier string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE identifier = $1 AND active`, identifier))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patient SET first_name=$2, last_name=$3, birth_date=$4, sex=$5, phone=$6, email=$7,
			organization_id=$8, family_group_id=$9, unregistered_patient_id=$10, active=$11,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.BirthDate, p.Sex, p.Phone, p.Email,
		p.OrganizationID, p.FamilyGroupID, p.UnregisteredPatientID, p.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

type unregisteredRepoPG struct{ pool *pgxpool.Pool }

func NewUnregisteredRepoPG(pool *pgxpool.Pool) UnregisteredRepository {
	return &unregisteredRepoPG{pool: pool}
}

const unregisteredCols = `id, identifier, first_name, last_name, birth_date, phone,
	organization_id, created_at`

func scanUnregistered(row pgx.Row) (*UnregisteredPatient, error) {
	var u UnregisteredPatient
	err := row.Scan(&u.ID, &u.Identifier, &u.FirstName, &u.LastName, &u.BirthDate, &u.Phone,
		&u.OrganizationID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnregisteredNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *unregisteredRepoPG) Create(ctx context.Context, u *UnregisteredPatient) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO unregistered_patient (id, identifier, first_name, last_name, birth_date, phone,
			organization_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Identifier, u.FirstName, u.LastName, u.BirthDate, u.Phone, u.OrganizationID)
	return err
}

func (r *unregisteredRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*UnregisteredPatient, error) {
	return scanUnregistered(r.pool.QueryRow(ctx,
		`SELECT `+unregisteredCols+` FROM unregistered_patient WHERE id = $1`, id))
}

func (r *unregisteredRepoPG) GetByIdentifier(ctx context.Context, identifier string) (*UnregisteredPatient, error) {
	return scanUnregistered(r.pool.QueryRow(ctx,
		`SELECT `+unregisteredCols+` FROM unregistered_patient WHERE identifier = $1`, identifier))
}

func (r *unregisteredRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM unregistered_patient WHERE id = $1`, id)
	return err
}

type familyGroupRepoPG struct{ pool *pgxpool.Pool }

func NewFamilyGroupRepoPG(pool *pgxpool.Pool) FamilyGroupRepository {
	return &familyGroupRepoPG{pool: pool}
}

func (r *familyGroupRepoPG) Create(ctx context.Context, g *FamilyGroup) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO family_group (id, name, owner_account_id) VALUES ($1,$2,$3)`,
		g.ID, g.Name, g.OwnerAccountID)
	return err
}

func (r *familyGroupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*FamilyGroup, error) {
	var g FamilyGroup
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, owner_account_id, created_at FROM family_group WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.OwnerAccountID, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFamilyGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *familyGroupRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM family_group WHERE id = $1`, id)
	return err
}
