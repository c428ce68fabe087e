package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"volunteerhub/internal/opportunity/models"
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

const opportunityColumns = `id, name, description, location, start_at, end_at, duration_minutes,
	image_url, archived, created_at, updated_at`

const listingOrder = ` ORDER BY start_at, created_at, id`

func (s *PostgresStore) Create(ctx context.Context, o *models.Opportunity) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO opportunities (`+opportunityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(o.ID), o.Name, o.Description, o.Location, o.Start, o.End, o.DurationMinutes,
		o.ImageURL, o.Archived, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return postgres.MapError("create opportunity", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, o *models.Opportunity) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE opportunities SET
			name = $2, description = $3, location = $4, start_at = $5, end_at = $6,
			duration_minutes = $7, image_url = $8, archived = $9, updated_at = $10
		WHERE id = $1`,
		uuid.UUID(o.ID), o.Name, o.Description, o.Location, o.Start, o.End,
		o.DurationMinutes, o.ImageURL, o.Archived, o.UpdatedAt)
	if err != nil {
		return postgres.MapError("update opportunity", err)
	}
	return requireRow(res, "update opportunity")
}

// Delete removes the opportunity; enrollments go with it through ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, oppID id.OpportunityID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM opportunities WHERE id = $1`, uuid.UUID(oppID))
	if err != nil {
		return postgres.MapError("delete opportunity", err)
	}
	return requireRow(res, "delete opportunity")
}

func (s *PostgresStore) FindByID(ctx context.Context, oppID id.OpportunityID) (*models.Opportunity, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, uuid.UUID(oppID))
	o, err := scanOpportunity(row)
	if err != nil {
		return nil, postgres.MapError("find opportunity", err)
	}
	return o, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.OpportunityID) (map[id.OpportunityID]*models.Opportunity, error) {
	out := make(map[id.OpportunityID]*models.Opportunity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, len(ids))
	for i, oppID := range ids {
		raw[i] = oppID.String()
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, postgres.MapError("find opportunities", err)
	}
	list, err := collect(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		out[o.ID] = o
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, includeArchived bool) ([]*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities`
	if !includeArchived {
		query += ` WHERE NOT archived`
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query+listingOrder)
	if err != nil {
		return nil, postgres.MapError("list opportunities", err)
	}
	return collect(rows)
}

func (s *PostgresStore) SetArchived(ctx context.Context, oppID id.OpportunityID, archived bool, now time.Time) (*models.Opportunity, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE opportunities SET archived = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+opportunityColumns, uuid.UUID(oppID), archived, now)
	o, err := scanOpportunity(row)
	if err != nil {
		return nil, postgres.MapError("set archived", err)
	}
	return o, nil
}

func (s *PostgresStore) UpdateImage(ctx context.Context, oppID id.OpportunityID, imageURL string, now time.Time) (*models.Opportunity, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE opportunities SET image_url = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+opportunityColumns, uuid.UUID(oppID), imageURL, now)
	o, err := scanOpportunity(row)
	if err != nil {
		return nil, postgres.MapError("update image", err)
	}
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(row rowScanner) (*models.Opportunity, error) {
	var (
		o   models.Opportunity
		raw uuid.UUID
	)
	err := row.Scan(&raw, &o.Name, &o.Description, &o.Location, &o.Start, &o.End, &o.DurationMinutes,
		&o.ImageURL, &o.Archived, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.ID = id.OpportunityID(raw)
	o.Start = o.Start.UTC()
	o.End = o.End.UTC()
	return &o, nil
}

func collect(rows *sql.Rows) ([]*models.Opportunity, error) {
	defer rows.Close()
	out := make([]*models.Opportunity, 0)
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return postgres.MapError(op, sql.ErrNoRows)
	}
	return nil
}
