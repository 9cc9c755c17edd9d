// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// It mirrors the document store closely enough for local development and
// tests: identifiers are ObjectIDs generated on insert, rows come back in
// insertion order, and updates report how many rows actually changed.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"

	_ "github.com/mattn/go-sqlite3"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// patchColumns maps the dotted document paths produced by
// types.StudentPatch.Fields to table columns, in a fixed order so that
// generated statements are stable.
var patchColumns = []struct {
	field  string
	column string
}{
	{field: "name", column: "name"},
	{field: "age", column: "age"},
	{field: "address.city", column: "city"},
	{field: "address.country", column: "country"},
}

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db    *sql.DB
	table string
}

// New opens the SQLite database at cfg.Storage.Path, creates the students
// table (named after cfg.Storage.Collection) if it does not already exist,
// and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	table := cfg.Storage.Collection
	if table == "" {
		table = "students"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("sqlite.New: invalid table name %q", table)
	}

	db, err := sql.Open("sqlite3", cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// seq keeps insertion order; id is the public ObjectID in hex form.
	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq     INTEGER PRIMARY KEY AUTOINCREMENT,
			id      TEXT    NOT NULL UNIQUE,
			name    TEXT    NOT NULL,
			age     INTEGER NOT NULL,
			city    TEXT    NOT NULL,
			country TEXT    NOT NULL
		)
	`, table))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db, table: table}, nil
}

func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	stmt, err := s.Db.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, name, age, city, country) VALUES (?, ?, ?, ?, ?)", s.table,
	))
	if err != nil {
		return "", fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	id := primitive.NewObjectID()

	_, err = stmt.ExecContext(ctx, id.Hex(), student.Name, student.Age,
		student.Address.City, student.Address.Country)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return id.Hex(), nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		hex     string
	)

	if err := row.Scan(
		&hex,
		&student.Name,
		&student.Age,
		&student.Address.City,
		&student.Address.Country,
	); err != nil {
		return types.Student{}, err
	}

	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return types.Student{}, fmt.Errorf("stored id %q: %w", hex, err)
	}
	student.ID = id

	return student, nil
}

func (s *SQLite) GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	var (
		where []string
		args  []any
	)
	if filter.Country != "" {
		where = append(where, "country = ?")
		args = append(args, filter.Country)
	}
	if filter.MinAge != nil {
		where = append(where, "age >= ?")
		args = append(args, *filter.MinAge)
	}

	query := fmt.Sprintf("SELECT id, name, age, city, country FROM %s", s.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

func (s *SQLite) GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, fmt.Sprintf(
		"SELECT id, name, age, city, country FROM %s WHERE id = ? LIMIT 1", s.table,
	))
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRowContext(ctx, id.Hex()))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// UpdateStudentByID only touches the row when at least one patched column
// actually differs, so RowsAffected matches the document store's
// "modified" count rather than its "matched" count.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id primitive.ObjectID, patch types.StudentPatch) (int64, error) {
	fields := patch.Fields()

	var (
		sets    []string
		changed []string
		setArgs []any
		cmpArgs []any
	)
	for _, pc := range patchColumns {
		value, ok := fields[pc.field]
		if !ok {
			continue
		}
		sets = append(sets, pc.column+" = ?")
		changed = append(changed, pc.column+" IS NOT ?")
		setArgs = append(setArgs, value)
		cmpArgs = append(cmpArgs, value)
	}
	if len(sets) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND (%s)",
		s.table, strings.Join(sets, ", "), strings.Join(changed, " OR "))

	args := append(setArgs, id.Hex())
	args = append(args, cmpArgs...)

	result, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	modified, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}

	return modified, nil
}

func (s *SQLite) DeleteStudentByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	stmt, err := s.Db.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table))
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id.Hex())
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}

	return deleted, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.Db.PingContext(ctx); err != nil {
		return fmt.Errorf("Ping: %w", err)
	}
	return nil
}

func (s *SQLite) Close(context.Context) error {
	if err := s.Db.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}
