package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/registrar/internal/config"
	"github.com/JonMunkholm/registrar/internal/filestore"
	"github.com/JonMunkholm/registrar/internal/logging"
	"github.com/JonMunkholm/registrar/internal/metrics"
	"github.com/google/uuid"
)

// cleanupTimeout bounds best-effort deletion of orphaned files after a
// failed registration. It applies even when the request context is gone.
const cleanupTimeout = 30 * time.Second

// Service provides the registration operations.
type Service struct {
	repo    Repository
	store   FileStore
	limiter *RegistrationLimiter
	timeout time.Duration
}

// NewService wires a repository and file store together under the given
// registration policy.
func NewService(repo Repository, store FileStore, cfg config.RegisterConfig) (*Service, error) {
	if repo == nil {
		return nil, errors.New("new service: repository is nil")
	}
	if store == nil {
		return nil, errors.New("new service: file store is nil")
	}

	return &Service{
		repo:    repo,
		store:   store,
		limiter: NewRegistrationLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		timeout: cfg.Timeout,
	}, nil
}

// RegisterCompany creates a company, its applicant and its files atomically
// and returns the new company ID.
func (s *Service) RegisterCompany(ctx context.Context, in RegistrationInput, files []FileUpload) (uuid.UUID, error) {
	const op = "register company"
	start := time.Now()

	in = in.Normalize()
	if err := ValidateRegistration(in); err != nil {
		metrics.ObserveRegistration(KindValidation.String(), time.Since(start))
		return uuid.Nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		err = classify(op, err)
		metrics.ObserveRegistration(KindOf(err).String(), time.Since(start))
		return uuid.Nil, err
	}
	metrics.RegistrationsInFlight.Inc()
	defer func() {
		metrics.RegistrationsInFlight.Dec()
		s.limiter.Release()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := logging.WithFields(ctx,
		"company_name", in.CompanyName,
		"files", len(files),
		"client_ip", IPAddressFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)
	logger.Info("registration started")

	var (
		companyID uuid.UUID
		written   []string
	)

	err := s.repo.WithTx(ctx, func(ctx context.Context, q Queries) error {
		if _, err := q.FindCompanyByName(ctx, in.CompanyName); err == nil {
			return ErrDuplicateCompany
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("find company by name: %w", err)
		}

		company, err := q.InsertCompany(ctx, NewCompany{
			CompanyName:   in.CompanyName,
			AreaOfService: optional(in.AreaOfService),
		})
		if err != nil {
			return fmt.Errorf("insert company: %w", err)
		}

		if _, err := q.InsertApplicant(ctx, NewApplicant{
			CompanyID: company.ID,
			FullName:  in.Applicant.FullName,
			Email:     in.Applicant.Email,
			Phone:     optional(in.Applicant.Phone),
		}); err != nil {
			return fmt.Errorf("insert applicant: %w", err)
		}

		for i, f := range files {
			obj, err := s.storeFile(ctx, f)
			if err != nil {
				return &Error{
					Kind: KindStorage,
					Op:   fmt.Sprintf("store file %d of %d", i+1, len(files)),
					Err:  err,
				}
			}
			written = append(written, obj.Locator)
			metrics.FileStored(obj.Size)

			if _, err := q.InsertFile(ctx, NewUploadedFile{
				CompanyID: company.ID,
				FileName:  obj.FileName,
				FileURL:   obj.Locator,
			}); err != nil {
				return fmt.Errorf("insert file: %w", err)
			}
		}

		companyID = company.ID
		return nil
	})
	if err != nil {
		err = classify(op, err)
		s.removeFiles(ctx, written)

		kind := KindOf(err)
		metrics.ObserveRegistration(kind.String(), time.Since(start))
		if IsClientError(err) {
			logger.Info("registration rejected", "kind", kind.String(), "error", err)
		} else {
			logger.Error("registration failed", "kind", kind.String(), "error", err, "files_written", len(written))
		}
		return uuid.Nil, err
	}

	metrics.ObserveRegistration("success", time.Since(start))
	logger.Info("registration committed",
		"company_id", companyID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return companyID, nil
}

// storeFile copies one upload into the file store.
func (s *Service) storeFile(ctx context.Context, f FileUpload) (obj filestore.Object, err error) {
	if f.Open == nil {
		return obj, fmt.Errorf("file %q has no content", f.Name)
	}

	rc, err := f.Open()
	if err != nil {
		return obj, fmt.Errorf("open %q: %w", f.Name, err)
	}
	defer rc.Close()

	return s.store.Store(ctx, f.Name, rc)
}

// removeFiles deletes stored files whose database rows never committed.
func (s *Service) removeFiles(ctx context.Context, locators []string) {
	if len(locators) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	logger := logging.FromContext(ctx)
	for _, loc := range locators {
		existed, err := s.store.Delete(ctx, loc)
		switch {
		case err != nil:
			metrics.FileCleanup("failed")
			logger.Warn("orphaned file not removed", "locator", loc, "error", err)
		case !existed:
			metrics.FileCleanup("missing")
		default:
			metrics.FileCleanup("deleted")
		}
	}
}

// GetCompany returns a company with its applicants and files.
func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (CompanyDetail, error) {
	const op = "get company"

	var detail CompanyDetail
	err := s.repo.WithTx(ctx, func(ctx context.Context, q Queries) error {
		company, err := q.FindCompanyByID(ctx, id)
		if err != nil {
			return err
		}

		applicants, err := q.ListApplicants(ctx, id)
		if err != nil {
			return fmt.Errorf("list applicants: %w", err)
		}

		files, err := q.ListFiles(ctx, id)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}

		detail = CompanyDetail{Company: company, Applicants: applicants, Files: files}
		return nil
	})
	if err != nil {
		return CompanyDetail{}, classify(op, err)
	}

	if detail.Applicants == nil {
		detail.Applicants = []Applicant{}
	}
	if detail.Files == nil {
		detail.Files = []UploadedFile{}
	}
	return detail, nil
}

// DeleteCompany removes a company together with its applicants and file
// rows, then deletes the stored bytes of those files.
func (s *Service) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	const op = "delete company"

	var removed []UploadedFile
	err := s.repo.WithTx(ctx, func(ctx context.Context, q Queries) error {
		files, err := q.DeleteCompanyCascade(ctx, id)
		if err != nil {
			return err
		}
		removed = files
		return nil
	})
	if err != nil {
		return classify(op, err)
	}

	locators := make([]string, len(removed))
	for i, f := range removed {
		locators[i] = f.FileURL
	}
	s.removeFiles(ctx, locators)

	logging.FromContext(ctx).Info("company deleted", "company_id", id, "files", len(removed))
	return nil
}

// Ping reports whether the repository is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// LimiterStatus returns the current registration slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRegistrations blocks until in-flight registrations finish or ctx ends.
func (s *Service) WaitForRegistrations(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
