package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound signals a record that is absent or owned by another user.
	// The two cases are deliberately indistinguishable to the caller.
	ErrNotFound = errors.New("record not found")
	// ErrForbidden signals an ownership re-check failure on a row the scoped
	// query already returned. It should not occur unless scoping is bypassed.
	ErrForbidden = errors.New("forbidden")
	// ErrSelfToggle signals an attempt to favorite or like one's own item.
	ErrSelfToggle = errors.New("cannot favorite your own item")
	// ErrUserExists signals the username is already taken.
	ErrUserExists = errors.New("username already taken")
	// ErrEmailExists signals the email is already registered.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Page bounds a list query. Zero values fall back to the defaults.
type Page struct {
	Number int
	Size   int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func (p Page) limitOffset() (limit, offset int) {
	size := p.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	number := p.Number
	if number <= 0 {
		number = 1
	}
	return size, (number - 1) * size
}

// orderClause maps a caller-supplied ordering key onto a whitelisted ORDER BY
// expression. A leading '-' selects descending order.
func orderClause(ordering string, allowed map[string]string, fallback string) string {
	dir := "ASC"
	key := strings.TrimSpace(ordering)
	if strings.HasPrefix(key, "-") {
		dir = "DESC"
		key = key[1:]
	}
	col, ok := allowed[key]
	if !ok {
		return fallback
	}
	return col + " " + dir
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
