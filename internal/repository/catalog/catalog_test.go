package catalog

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/curator-labs/curator/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Error("expected true for unique_violation code")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("expected false for foreign key violation")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Error("expected false for non-pq error")
	}
}

func TestMapRowError(t *testing.T) {
	if err := mapRowError(sql.ErrNoRows, "get"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("sql.ErrNoRows should map to ErrNotFound, got %v", err)
	}

	orig := errors.New("connection reset")
	err := mapRowError(orig, "get paper")
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("unexpected ErrNotFound for transport error")
	}
	if !errors.Is(err, orig) {
		t.Error("original error should be wrapped")
	}
}

func TestNullTime(t *testing.T) {
	if nt := nullTime(time.Time{}); nt.Valid {
		t.Error("zero time should be NULL")
	}
	now := time.Now()
	if nt := nullTime(now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("non-zero time should be valid, got %+v", nt)
	}
}
