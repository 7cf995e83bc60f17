package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/gookit/color"

	"CoursePortal/internal/catalog"
	"CoursePortal/internal/config"
)

var samples = []catalog.Course{
	{
		Code:          "CS101",
		Name:          "Introduction to Computer Science",
		Instructor:    "Dr. Grace Hopper",
		Semester:      "Fall 2026",
		Schedule:      "Mon/Wed 10:00-11:30",
		Classroom:     "Hall A-204",
		Prerequisites: "None",
		Grading:       "60% exams, 40% assignments",
		Description:   "Fundamentals of programming and computational thinking.",
	},
	{
		Code:          "MA201",
		Name:          "Linear Algebra",
		Instructor:    "Dr. Emmy Noether",
		Semester:      "Fall 2026",
		Schedule:      "Tue/Thu 13:00-14:30",
		Classroom:     "Hall B-110",
		Prerequisites: "None",
		Grading:       "Not specified",
		Description:   "Vector spaces, linear maps and matrix decompositions.",
	},
	{
		Code:          "PH150",
		Name:          "Classical Mechanics",
		Instructor:    "Dr. Richard Feynman",
		Semester:      "Spring 2027",
		Schedule:      "Mon/Fri 09:00-10:30",
		Classroom:     "Physics Lab 2",
		Prerequisites: "MA201",
		Grading:       "Weekly problem sets and a final exam",
		Description:   "Newtonian mechanics from first principles.",
	},
}

func main() {
	if err := run(); err != nil {
		color.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(getenv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	added := 0
	for _, c := range samples {
		err := store.Append(ctx, c)
		if errors.Is(err, catalog.ErrDuplicateCode) {
			color.Yellow.Printf("skipped %s (already present)\n", c.Code)
			continue
		}
		if err != nil {
			return err
		}
		color.Green.Printf("added %s %s\n", c.Code, c.Name)
		added++
	}

	color.Printf("seeded %d courses\n", added)
	return nil
}

func openStore(cfg *config.Config) (catalog.Store, error) {
	if cfg.Store.Driver == config.DriverPostgres {
		db, err := sql.Open("pgx", cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		store := catalog.NewPostgresStore(db)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return catalog.NewFileStore(cfg.Store.Path), nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
