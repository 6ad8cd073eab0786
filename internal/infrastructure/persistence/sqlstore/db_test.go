package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		query   string
		want    string
	}{
		{DialectSQLite, "SELECT * FROM cases WHERE id = ? AND version = ?", "SELECT * FROM cases WHERE id = ? AND version = ?"},
		{DialectPostgres, "SELECT * FROM cases WHERE id = ? AND version = ?", "SELECT * FROM cases WHERE id = $1 AND version = $2"},
		{DialectPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.dialect, tt.query), func(t *testing.T) {
			db := NewDB(nil, tt.dialect, zap.NewNop())
			if got := db.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite primary key", fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}), true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"postgres unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, true},
		{"postgres fk", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, false},
		{"other", errors.New("disk full"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSerializationFailure(t *testing.T) {
	if !IsSerializationFailure(&pgconn.PgError{Code: pgerrcode.SerializationFailure}) {
		t.Error("serialization failure not detected")
	}
	if !IsSerializationFailure(sqlite3.Error{Code: sqlite3.ErrBusy}) {
		t.Error("busy database not detected")
	}
	if IsSerializationFailure(errors.New("timeout")) {
		t.Error("plain error reported as serialization failure")
	}
}
