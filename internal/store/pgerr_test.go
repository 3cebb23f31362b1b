package store

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationTrue(t *testing.T) {
	err := &pgconn.PgError{Code: uniqueViolationCode}
	if !isUniqueViolation(err) {
		t.Error("expected a 23505 PgError to be recognized as a unique violation")
	}
}

func TestIsUniqueViolationWrapped(t *testing.T) {
	err := errors.Wrap(&pgconn.PgError{Code: uniqueViolationCode}, "insert segment")
	if !isUniqueViolation(err) {
		t.Error("expected a wrapped 23505 PgError to still be recognized")
	}
}

func TestIsUniqueViolationFalseForOtherCode(t *testing.T) {
	err := &pgconn.PgError{Code: "23503"} // foreign key violation
	if isUniqueViolation(err) {
		t.Error("expected a non-23505 PgError not to be classified as a unique violation")
	}
}

func TestIsUniqueViolationNil(t *testing.T) {
	if isUniqueViolation(nil) {
		t.Error("expected nil error not to be a unique violation")
	}
}

func TestIsUniqueViolationUnrelatedError(t *testing.T) {
	if isUniqueViolation(errors.New("boom")) {
		t.Error("expected an unrelated error not to be classified as a unique violation")
	}
}
