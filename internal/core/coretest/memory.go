// Package coretest provides in-memory implementations of the core storage
// interfaces for tests.
package coretest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/JonMunkholm/registrar/internal/filestore"
	"github.com/google/uuid"
)

type state struct {
	companies  map[uuid.UUID]core.Company
	applicants map[uuid.UUID]core.Applicant
	files      map[uuid.UUID]core.UploadedFile
}

func (s state) clone() state {
	return state{
		companies:  maps.Clone(s.companies),
		applicants: maps.Clone(s.applicants),
		files:      maps.Clone(s.files),
	}
}

// Repository is a core.Repository held in memory. Units of work are
// serialized and commit by replacing the whole state.
type Repository struct {
	mu    sync.Mutex
	state state

	// BeforeCommit, if set, runs inside each unit of work after fn succeeds.
	// Returning an error aborts the commit.
	BeforeCommit func() error
	// PingErr is returned by Ping.
	PingErr error
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{state: state{
		companies:  make(map[uuid.UUID]core.Company),
		applicants: make(map[uuid.UUID]core.Applicant),
		files:      make(map[uuid.UUID]core.UploadedFile),
	}}
}

func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, q core.Queries) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &queries{state: r.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if r.BeforeCommit != nil {
		if err := r.BeforeCommit(); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.state = tx.state
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.PingErr != nil {
		return r.PingErr
	}
	return ctx.Err()
}

// Counts returns the committed number of companies, applicants and files.
func (r *Repository) Counts() (companies, applicants, files int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.companies), len(r.state.applicants), len(r.state.files)
}

// Files returns every committed file row.
func (r *Repository) Files() []core.UploadedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Collect(maps.Values(r.state.files))
}

type queries struct {
	state state
}

func (q *queries) FindCompanyByName(_ context.Context, name string) (core.Company, error) {
	for _, c := range q.state.companies {
		if c.CompanyName == name {
			return c, nil
		}
	}
	return core.Company{}, core.ErrNotFound
}

func (q *queries) FindCompanyByID(_ context.Context, id uuid.UUID) (core.Company, error) {
	c, ok := q.state.companies[id]
	if !ok {
		return core.Company{}, core.ErrNotFound
	}
	return c, nil
}

func (q *queries) InsertCompany(ctx context.Context, c core.NewCompany) (core.Company, error) {
	if _, err := q.FindCompanyByName(ctx, c.CompanyName); err == nil {
		return core.Company{}, core.ErrDuplicateCompany
	}

	row := core.Company{
		ID:            uuid.New(),
		CompanyName:   c.CompanyName,
		AreaOfService: c.AreaOfService,
		CreatedAt:     time.Now().UTC(),
	}
	q.state.companies[row.ID] = row
	return row, nil
}

func (q *queries) InsertApplicant(_ context.Context, a core.NewApplicant) (core.Applicant, error) {
	if _, ok := q.state.companies[a.CompanyID]; !ok {
		return core.Applicant{}, fmt.Errorf("insert applicant: company %s does not exist", a.CompanyID)
	}
	for _, existing := range q.state.applicants {
		if existing.Email == a.Email {
			return core.Applicant{}, core.ErrDuplicateEmail
		}
	}

	row := core.Applicant{
		ID:          uuid.New(),
		CompanyID:   a.CompanyID,
		FullName:    a.FullName,
		Email:       a.Email,
		Phone:       a.Phone,
		SubmittedAt: time.Now().UTC(),
	}
	q.state.applicants[row.ID] = row
	return row, nil
}

func (q *queries) InsertFile(_ context.Context, f core.NewUploadedFile) (core.UploadedFile, error) {
	if _, ok := q.state.companies[f.CompanyID]; !ok {
		return core.UploadedFile{}, fmt.Errorf("insert file: company %s does not exist", f.CompanyID)
	}

	row := core.UploadedFile{
		ID:         uuid.New(),
		CompanyID:  f.CompanyID,
		FileName:   f.FileName,
		FileURL:    f.FileURL,
		UploadedAt: time.Now().UTC(),
	}
	q.state.files[row.ID] = row
	return row, nil
}

func (q *queries) ListApplicants(_ context.Context, companyID uuid.UUID) ([]core.Applicant, error) {
	var out []core.Applicant
	for _, a := range q.state.applicants {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b core.Applicant) int { return a.SubmittedAt.Compare(b.SubmittedAt) })
	return out, nil
}

func (q *queries) ListFiles(_ context.Context, companyID uuid.UUID) ([]core.UploadedFile, error) {
	var out []core.UploadedFile
	for _, f := range q.state.files {
		if f.CompanyID == companyID {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b core.UploadedFile) int {
		if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
			return c
		}
		return strings.Compare(a.FileName, b.FileName)
	})
	return out, nil
}

func (q *queries) DeleteCompanyCascade(ctx context.Context, id uuid.UUID) ([]core.UploadedFile, error) {
	if _, ok := q.state.companies[id]; !ok {
		return nil, core.ErrNotFound
	}

	files, _ := q.ListFiles(ctx, id)
	for _, f := range files {
		delete(q.state.files, f.ID)
	}
	for aid, a := range q.state.applicants {
		if a.CompanyID == id {
			delete(q.state.applicants, aid)
		}
	}
	delete(q.state.companies, id)
	return files, nil
}

// ErrInjected is returned by FailingStore when it is told to fail.
var ErrInjected = errors.New("injected store failure")

// FailingStore wraps a file store and fails the FailOn-th call to Store
// (counting from 1). Zero never fails.
type FailingStore struct {
	core.FileStore

	mu     sync.Mutex
	calls  int
	FailOn int
}

// NewFailingStore wraps store.
func NewFailingStore(store core.FileStore, failOn int) *FailingStore {
	return &FailingStore{FileStore: store, FailOn: failOn}
}

func (s *FailingStore) Store(ctx context.Context, name string, r io.Reader) (filestore.Object, error) {
	s.mu.Lock()
	s.calls++
	fail := s.calls == s.FailOn
	s.mu.Unlock()

	if fail {
		return filestore.Object{}, ErrInjected
	}
	return s.FileStore.Store(ctx, name, r)
}

// Calls returns how many times Store was called.
func (s *FailingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
