package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"volunteerhub/internal/enrollment/models"
	"volunteerhub/internal/platform/postgres"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const enrollmentColumns = `volunteer_id, opportunity_id, admin_approved, did_attend, created_at, updated_at`

const enrollmentOrder = ` ORDER BY created_at, volunteer_id, opportunity_id`

// Create is a plain insert. Duplicate requests hit the primary key and map to
// ErrConflict; a missing opportunity or user maps to ErrNotFound.
func (s *PostgresStore) Create(ctx context.Context, e *models.Enrollment) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO enrollments (`+enrollmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.VolunteerID), uuid.UUID(e.OpportunityID), e.AdminApproved, e.DidAttend, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return postgres.MapError("create enrollment", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, volunteerID id.UserID, oppID id.OpportunityID) (*models.Enrollment, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE volunteer_id = $1 AND opportunity_id = $2`,
		string(volunteerID), uuid.UUID(oppID))
	e, err := scanEnrollment(row)
	if err != nil {
		return nil, postgres.MapError("find enrollment", err)
	}
	return e, nil
}

// Update locks the row, applies fn and writes the result back. Callers run it
// inside RunInTx so the lock and the write share a transaction.
func (s *PostgresStore) Update(ctx context.Context, volunteerID id.UserID, oppID id.OpportunityID, fn func(*models.Enrollment) error) (*models.Enrollment, error) {
	exec := tx.Executor(ctx, s.db)
	row := exec.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments
		WHERE volunteer_id = $1 AND opportunity_id = $2
		FOR UPDATE`,
		string(volunteerID), uuid.UUID(oppID))
	e, err := scanEnrollment(row)
	if err != nil {
		return nil, postgres.MapError("lock enrollment", err)
	}
	if err := fn(e); err != nil {
		return nil, err
	}
	_, err = exec.ExecContext(ctx, `
		UPDATE enrollments SET admin_approved = $3, did_attend = $4, updated_at = $5
		WHERE volunteer_id = $1 AND opportunity_id = $2`,
		string(volunteerID), uuid.UUID(oppID), e.AdminApproved, e.DidAttend, e.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError("update enrollment", err)
	}
	return e, nil
}

func (s *PostgresStore) ListByOpportunity(ctx context.Context, oppID id.OpportunityID) ([]*models.Enrollment, error) {
	return s.list(ctx, "list enrollments by opportunity",
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE opportunity_id = $1`+enrollmentOrder, uuid.UUID(oppID))
}

func (s *PostgresStore) ListByVolunteer(ctx context.Context, volunteerID id.UserID) ([]*models.Enrollment, error) {
	return s.list(ctx, "list enrollments by volunteer",
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE volunteer_id = $1`+enrollmentOrder, string(volunteerID))
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Enrollment, error) {
	return s.list(ctx, "list enrollments", `SELECT `+enrollmentColumns+` FROM enrollments`+enrollmentOrder)
}

func (s *PostgresStore) PendingCounts(ctx context.Context) (map[id.OpportunityID]int, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT opportunity_id, count(*) FROM enrollments
		WHERE NOT admin_approved
		GROUP BY opportunity_id`)
	if err != nil {
		return nil, postgres.MapError("count pending", err)
	}
	defer rows.Close()

	out := make(map[id.OpportunityID]int)
	for rows.Next() {
		var (
			raw uuid.UUID
			n   int
		)
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, fmt.Errorf("scan pending count: %w", err)
		}
		out[id.OpportunityID(raw)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	return out, nil
}

// DeleteByOpportunity is explicit even though the foreign key cascades, so the
// caller learns how many enrollments were removed.
func (s *PostgresStore) DeleteByOpportunity(ctx context.Context, oppID id.OpportunityID) (int, error) {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM enrollments WHERE opportunity_id = $1`, uuid.UUID(oppID))
	if err != nil {
		return 0, postgres.MapError("delete enrollments", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete enrollments: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.Enrollment, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(op, err)
	}
	defer rows.Close()

	out := make([]*models.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var (
		e   models.Enrollment
		vid string
		oid uuid.UUID
	)
	if err := row.Scan(&vid, &oid, &e.AdminApproved, &e.DidAttend, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.VolunteerID = id.UserID(vid)
	e.OpportunityID = id.OpportunityID(oid)
	return &e, nil
}
