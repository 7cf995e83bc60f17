package catalog

import (
	"context"
	"errors"
)

// Course is a single catalog entry, identified by its code.
type Course struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Instructor    string `json:"instructor"`
	Semester      string `json:"semester"`
	Schedule      string `json:"schedule"`
	Classroom     string `json:"classroom"`
	Prerequisites string `json:"prerequisites"`
	Grading       string `json:"grading"`
	Description   string `json:"description"`
}

// ErrDuplicateCode is returned by Append when a course with the same
// code is already present. Codes are the only identity a course has,
// so duplicates would make later lookups ambiguous.
var ErrDuplicateCode = errors.New("course code already exists")

type Store interface {
	Ping(ctx context.Context) error

	// List returns every course in insertion order. A store that has
	// never been written to returns an empty slice, not an error.
	List(ctx context.Context) ([]Course, error)

	// Find returns the first course whose code matches.
	Find(ctx context.Context, code string) (Course, bool, error)

	// Append adds a course at the end of the catalog. Fails with
	// ErrDuplicateCode if the code is already taken.
	Append(ctx context.Context, c Course) error

	// Remove deletes every course whose code matches and reports
	// whether anything was deleted.
	Remove(ctx context.Context, code string) (bool, error)
}
