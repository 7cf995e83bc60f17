package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresStore keeps the same contract as FileStore but delegates the
// read-modify-write problem to the database. Insertion order survives
// through the pos column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the courses table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS courses (
			pos           BIGSERIAL PRIMARY KEY,
			code          TEXT NOT NULL,
			name          TEXT NOT NULL,
			instructor    TEXT NOT NULL,
			semester      TEXT NOT NULL DEFAULT '',
			schedule      TEXT NOT NULL DEFAULT '',
			classroom     TEXT NOT NULL DEFAULT '',
			prerequisites TEXT NOT NULL DEFAULT 'None',
			grading       TEXT NOT NULL DEFAULT 'Not specified',
			description   TEXT NOT NULL DEFAULT 'No description provided'
		)
	`)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Course, error) {
	var out []Course

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, selectCourses+` ORDER BY pos ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Course, 0, 16)
		for rows.Next() {
			c, err := scanCourse(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Find(ctx context.Context, code string) (Course, bool, error) {
	var c Course

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx,
			selectCourses+` WHERE code = $1 ORDER BY pos ASC LIMIT 1`, code)
		var err error
		c, err = scanCourse(row)
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, false, nil
	}
	if err != nil {
		return Course{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) Append(ctx context.Context, c Course) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM courses WHERE code = $1)`, c.Code).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, c.Code)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO courses
				(code, name, instructor, semester, schedule, classroom, prerequisites, grading, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, c.Code, c.Name, c.Instructor, c.Semester, c.Schedule, c.Classroom,
			c.Prerequisites, c.Grading, c.Description)
		if err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (s *PostgresStore) Remove(ctx context.Context, code string) (bool, error) {
	var removed bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE code = $1`, code)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})

	if err != nil {
		return false, err
	}
	return removed, nil
}

const selectCourses = `
	SELECT code, name, instructor, semester, schedule, classroom, prerequisites, grading, description
	FROM courses`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (Course, error) {
	var c Course
	err := row.Scan(&c.Code, &c.Name, &c.Instructor, &c.Semester, &c.Schedule,
		&c.Classroom, &c.Prerequisites, &c.Grading, &c.Description)
	return c, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
