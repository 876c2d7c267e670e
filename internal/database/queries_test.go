package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "no rows",
			err:  pgx.ErrNoRows,
			want: core.ErrNotFound,
		},
		{
			name: "company name unique violation",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "company_company_name_key"},
			want: core.ErrDuplicateCompany,
		},
		{
			name: "wrapped email unique violation",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "applicant_email_key"}),
			want: core.ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "driver error must stay in the chain")
		})
	}
}

func TestTranslate_Passthrough(t *testing.T) {
	assert.NoError(t, translate(nil))

	other := &pgconn.PgError{Code: "23505", ConstraintName: "some_other_key"}
	got := translate(other)
	assert.Same(t, other, got)
	assert.False(t, errors.Is(got, core.ErrDuplicateCompany))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "applicant_company_id_fkey"}
	assert.Same(t, fk, translate(fk))
}

func TestTranslate_Kind(t *testing.T) {
	err := translate(&pgconn.PgError{Code: "23505", ConstraintName: "applicant_email_key"})
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	err = translate(&pgconn.PgError{Code: "23505", ConstraintName: "company_company_name_key"})
	assert.Equal(t, core.KindDuplicateCompany, core.KindOf(err))
}

func TestNewRepository_NilPool(t *testing.T) {
	_, err := NewRepository(nil)
	assert.Error(t, err)
}

func TestMigrationFiles(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	assert.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Contains(t, names, "000001_initial_schema.up.sql")
	assert.Contains(t, names, "000001_initial_schema.down.sql")
}
