package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const activeRecordsQuery = `SELECT day_of_week, time_start, time_end FROM recurring_classes WHERE is_active = true ORDER BY day_of_week, time_start`

// Repository reads and writes recurring_classes in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListActiveRecords returns active classes ordered by weekday then start time.
func (r *Repository) ListActiveRecords(ctx context.Context) ([]ClassRecord, error) {
	rows, err := r.db.QueryContext(ctx, activeRecordsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClassRecord
	for rows.Next() {
		var (
			day        int
			start, end string
		)
		if err := rows.Scan(&day, &start, &end); err != nil {
			return nil, err
		}
		rec, err := newRecord(day, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListClasses returns the class catalogue, optionally including deactivated classes.
func (r *Repository) ListClasses(ctx context.Context, includeInactive bool) ([]RecurringClass, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(instructor, ''), day_of_week, time_start, time_end, capacity, is_active
		FROM recurring_classes
		WHERE is_active = true OR $1
		ORDER BY day_of_week, time_start
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecurringClass
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetClass fetches one class by id.
func (r *Repository) GetClass(ctx context.Context, id string) (RecurringClass, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(instructor, ''), day_of_week, time_start, time_end, capacity, is_active
		FROM recurring_classes
		WHERE id = $1
	`, id)
	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RecurringClass{}, ErrClassNotFound
	}
	return c, err
}

// CreateClass inserts a class and returns it with its id.
func (r *Repository) CreateClass(ctx context.Context, c RecurringClass) (RecurringClass, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_classes (id, name, instructor, day_of_week, time_start, time_end, capacity, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
	`, c.ID, c.Name, c.Instructor, c.DayOfWeek, c.Start.SQL(), c.End.SQL(), c.Capacity, c.IsActive)
	return c, err
}

// UpdateClass overwrites the editable fields of a class.
func (r *Repository) UpdateClass(ctx context.Context, c RecurringClass) (RecurringClass, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_classes
		SET name = $2, instructor = NULLIF($3, ''), day_of_week = $4, time_start = $5, time_end = $6, capacity = $7, is_active = $8
		WHERE id = $1
	`, c.ID, c.Name, c.Instructor, c.DayOfWeek, c.Start.SQL(), c.End.SQL(), c.Capacity, c.IsActive)
	if err != nil {
		return RecurringClass{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return RecurringClass{}, ErrClassNotFound
	}
	return c, nil
}

// SetActive toggles is_active.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_classes SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClassNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClass(s scanner) (RecurringClass, error) {
	var (
		c          RecurringClass
		start, end string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Instructor, &c.DayOfWeek, &start, &end, &c.Capacity, &c.IsActive); err != nil {
		return RecurringClass{}, err
	}
	rec, err := newRecord(c.DayOfWeek, start, end)
	if err != nil {
		return RecurringClass{}, fmt.Errorf("class %s: %w", c.ID, err)
	}
	c.Start, c.End = rec.Start, rec.End
	return c, nil
}

func newRecord(day int, start, end string) (ClassRecord, error) {
	s, err := ParseClock(start)
	if err != nil {
		return ClassRecord{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return ClassRecord{}, err
	}
	return ClassRecord{DayOfWeek: day, Start: s, End: e, IsActive: true}, nil
}
