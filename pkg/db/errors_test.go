package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := errors.New(`ERROR: duplicate key value violates unique constraint "ux_ledger_entries_transaction_ref" (SQLSTATE 23505)`)
	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected generic postgres duplicate to match")
	}
	if !IsUniqueViolation(pgErr, "ux_ledger_entries_transaction_ref") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(pgErr, "ux_other_constraint") {
		t.Fatal("unrelated constraint name must not match")
	}

	sqliteErr := errors.New("UNIQUE constraint failed: ledger_entries.transaction_ref")
	if !IsUniqueViolation(sqliteErr, "") {
		t.Fatal("expected sqlite duplicate to match")
	}

	if IsUniqueViolation(nil, "anything") {
		t.Fatal("nil error is not a violation")
	}
}
