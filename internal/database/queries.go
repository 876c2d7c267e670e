package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from the initial schema migration.
const (
	constraintCompanyName    = "company_company_name_key"
	constraintApplicantEmail = "applicant_email_key"
)

const pgUniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries implements core.Queries on any DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries running directly on db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const companyColumns = `id, company_name, area_of_service, created_at`

func scanCompany(row pgx.Row) (core.Company, error) {
	var c core.Company
	err := row.Scan(&c.ID, &c.CompanyName, &c.AreaOfService, &c.CreatedAt)
	return c, err
}

func (q *Queries) FindCompanyByName(ctx context.Context, name string) (core.Company, error) {
	c, err := scanCompany(q.db.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM company WHERE company_name = $1`, name))
	if err != nil {
		return core.Company{}, translate(err)
	}
	return c, nil
}

func (q *Queries) FindCompanyByID(ctx context.Context, id uuid.UUID) (core.Company, error) {
	c, err := scanCompany(q.db.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM company WHERE id = $1`, id))
	if err != nil {
		return core.Company{}, translate(err)
	}
	return c, nil
}

func (q *Queries) InsertCompany(ctx context.Context, arg core.NewCompany) (core.Company, error) {
	c, err := scanCompany(q.db.QueryRow(ctx, `
		INSERT INTO company (company_name, area_of_service)
		VALUES ($1, $2)
		RETURNING `+companyColumns,
		arg.CompanyName, arg.AreaOfService,
	))
	if err != nil {
		return core.Company{}, translate(err)
	}
	return c, nil
}

const applicantColumns = `id, company_id, full_name, email, phone, submitted_at`

func scanApplicant(row pgx.Row) (core.Applicant, error) {
	var a core.Applicant
	err := row.Scan(&a.ID, &a.CompanyID, &a.FullName, &a.Email, &a.Phone, &a.SubmittedAt)
	return a, err
}

func (q *Queries) InsertApplicant(ctx context.Context, arg core.NewApplicant) (core.Applicant, error) {
	a, err := scanApplicant(q.db.QueryRow(ctx, `
		INSERT INTO applicant (company_id, full_name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING `+applicantColumns,
		arg.CompanyID, arg.FullName, arg.Email, arg.Phone,
	))
	if err != nil {
		return core.Applicant{}, translate(err)
	}
	return a, nil
}

func (q *Queries) ListApplicants(ctx context.Context, companyID uuid.UUID) ([]core.Applicant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+applicantColumns+`
		FROM applicant
		WHERE company_id = $1
		ORDER BY submitted_at, id`, companyID)
	if err != nil {
		return nil, translate(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Applicant, error) {
		return scanApplicant(row)
	})
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

const fileColumns = `id, company_id, file_name, file_url, uploaded_at`

func scanFile(row pgx.Row) (core.UploadedFile, error) {
	var f core.UploadedFile
	err := row.Scan(&f.ID, &f.CompanyID, &f.FileName, &f.FileURL, &f.UploadedAt)
	return f, err
}

func (q *Queries) InsertFile(ctx context.Context, arg core.NewUploadedFile) (core.UploadedFile, error) {
	f, err := scanFile(q.db.QueryRow(ctx, `
		INSERT INTO uploaded_file (company_id, file_name, file_url)
		VALUES ($1, $2, $3)
		RETURNING `+fileColumns,
		arg.CompanyID, arg.FileName, arg.FileURL,
	))
	if err != nil {
		return core.UploadedFile{}, translate(err)
	}
	return f, nil
}

func (q *Queries) ListFiles(ctx context.Context, companyID uuid.UUID) ([]core.UploadedFile, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+fileColumns+`
		FROM uploaded_file
		WHERE company_id = $1
		ORDER BY uploaded_at, id`, companyID)
	if err != nil {
		return nil, translate(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.UploadedFile, error) {
		return scanFile(row)
	})
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

// DeleteCompanyCascade locks the company, collects its file rows and deletes
// it. Applicants and file rows go with it through ON DELETE CASCADE.
func (q *Queries) DeleteCompanyCascade(ctx context.Context, id uuid.UUID) ([]core.UploadedFile, error) {
	var locked uuid.UUID
	if err := q.db.QueryRow(ctx,
		`SELECT id FROM company WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return nil, translate(err)
	}

	files, err := q.ListFiles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	if _, err := q.db.Exec(ctx, `DELETE FROM company WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return files, nil
}

// translate maps driver errors onto core sentinels. The original error
// stays in the chain for logging.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintCompanyName:
			return fmt.Errorf("%w: %w", core.ErrDuplicateCompany, err)
		case constraintApplicantEmail:
			return fmt.Errorf("%w: %w", core.ErrDuplicateEmail, err)
		}
	}
	return err
}
