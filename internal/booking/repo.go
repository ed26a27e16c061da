package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"tayoga/internal/schedule"
)

// Repository persists bookings in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts b. With capacity > 0 the class row is locked and the
// insert is refused once the occurrence holds capacity bookings.
func (r *Repository) Create(ctx context.Context, b Booking, capacity int) (Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Booking{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM recurring_classes WHERE id = $1 FOR UPDATE`, b.ClassID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return Booking{}, schedule.ErrClassNotFound
	}
	if err != nil {
		return Booking{}, err
	}

	if capacity > 0 {
		var taken int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings WHERE class_id = $1 AND class_date = $2
		`, b.ClassID, b.ClassDate).Scan(&taken); err != nil {
			return Booking{}, err
		}
		if taken >= capacity {
			return Booking{}, ErrClassFull
		}
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO bookings (id, class_id, class_date, name, email, phone, note)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
		RETURNING created_at
	`, b.ID, b.ClassID, b.ClassDate, b.Name, b.Email, b.Phone, b.Note).Scan(&b.CreatedAt); err != nil {
		return Booking{}, err
	}
	return b, tx.Commit()
}

// List returns bookings ordered by class date, newest registrations first within a date.
func (r *Repository) List(ctx context.Context, date *time.Time) ([]Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.class_id, c.name, b.class_date, b.name, b.email, COALESCE(b.phone, ''), COALESCE(b.note, ''), b.created_at
		FROM bookings b
		JOIN recurring_classes c ON c.id = b.class_id
		WHERE $1::date IS NULL OR b.class_date = $1::date
		ORDER BY b.class_date, b.created_at DESC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.ClassID, &b.ClassName, &b.ClassDate, &b.Name, &b.Email, &b.Phone, &b.Note, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
