package repos

import (
  "errors"
  "strings"

  "github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Postgres surfaces SQLSTATE 23505 through pgconn; the sqlite driver used in
// tests only exposes the message text.
func IsUniqueViolation(err error) bool {
  if err == nil {
    return false
  }
  var pgErr *pgconn.PgError
  if errors.As(err, &pgErr) {
    return pgErr.Code == "23505"
  }
  return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
    strings.Contains(err.Error(), "duplicate key value")
}
