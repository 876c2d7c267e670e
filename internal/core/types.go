package core

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/registrar/internal/filestore"
	"github.com/google/uuid"
)

// Company is the registered organisation. Names are unique across all companies.
type Company struct {
	ID            uuid.UUID `json:"id"`
	CompanyName   string    `json:"company_name"`
	AreaOfService *string   `json:"area_of_service"`
	CreatedAt     time.Time `json:"created_at"`
}

// Applicant is the person who submitted a registration. Emails are unique
// across all applicants, not per company.
type Applicant struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// UploadedFile records a document stored for a company. FileURL is the
// locator returned by the file store.
type UploadedFile struct {
	ID         uuid.UUID `json:"id"`
	CompanyID  uuid.UUID `json:"company_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CompanyDetail is a company together with everything it owns.
type CompanyDetail struct {
	Company
	Applicants []Applicant    `json:"applicants"`
	Files      []UploadedFile `json:"files"`
}

// NewCompany holds the columns supplied by the caller on insert.
type NewCompany struct {
	CompanyName   string
	AreaOfService *string
}

type NewApplicant struct {
	CompanyID uuid.UUID
	FullName  string
	Email     string
	Phone     *string
}

type NewUploadedFile struct {
	CompanyID uuid.UUID
	FileName  string
	FileURL   string
}

// ApplicantInput is the applicant part of a registration request.
type ApplicantInput struct {
	FullName string `json:"full_name" validate:"required,text,max=255"`
	Email    string `json:"email" validate:"required,text,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,text,max=50"`
}

// RegistrationInput is a registration request after transport decoding.
type RegistrationInput struct {
	CompanyName   string         `json:"company_name" validate:"required,text,max=255"`
	AreaOfService string         `json:"area_of_service" validate:"omitempty,text,max=255"`
	Applicant     ApplicantInput `json:"applicant"`
}

// Normalize trims surrounding whitespace from every field.
func (in RegistrationInput) Normalize() RegistrationInput {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.AreaOfService = strings.TrimSpace(in.AreaOfService)
	in.Applicant.FullName = strings.TrimSpace(in.Applicant.FullName)
	in.Applicant.Email = strings.TrimSpace(in.Applicant.Email)
	in.Applicant.Phone = strings.TrimSpace(in.Applicant.Phone)
	return in
}

// FileUpload is one file part of a registration. Open is called once, when
// the file is copied into the store.
type FileUpload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Queries is the set of data operations available inside a unit of work.
// Implementations translate constraint violations into ErrDuplicateCompany
// and ErrDuplicateEmail, and missing rows into ErrNotFound.
type Queries interface {
	FindCompanyByName(ctx context.Context, name string) (Company, error)
	FindCompanyByID(ctx context.Context, id uuid.UUID) (Company, error)
	InsertCompany(ctx context.Context, c NewCompany) (Company, error)
	InsertApplicant(ctx context.Context, a NewApplicant) (Applicant, error)
	InsertFile(ctx context.Context, f NewUploadedFile) (UploadedFile, error)
	ListApplicants(ctx context.Context, companyID uuid.UUID) ([]Applicant, error)
	ListFiles(ctx context.Context, companyID uuid.UUID) ([]UploadedFile, error)

	// DeleteCompanyCascade removes the company and, through the storage
	// engine's cascade, its applicants and file rows. It returns the file
	// rows that were removed so their bytes can be deleted.
	DeleteCompanyCascade(ctx context.Context, id uuid.UUID) ([]UploadedFile, error)
}

// Repository owns the connection lifecycle. WithTx runs fn in a single
// transaction: it commits when fn returns nil and rolls back otherwise.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error
	Ping(ctx context.Context) error
}

// FileStore persists uploaded bytes under generated names.
type FileStore interface {
	Store(ctx context.Context, originalName string, r io.Reader) (filestore.Object, error)
	Delete(ctx context.Context, locator string) (bool, error)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
