package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"volunteerhub/internal/platform/postgres"
	"volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/tx"
)

// PostgresStore persists users and profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `user_id, first_name, last_name, date_of_birth, gender, residential_status,
	phone, address, postal_code, skills, experience, occupation, school,
	education_background, commitment_level, driving, owns_vehicle, preferences,
	created_at, updated_at`

// EnsureProvisioned is a single statement: the upsert CTE creates the user when
// absent and the outer select reads role and profile existence together.
// The no-op DO UPDATE makes RETURNING yield the existing row.
func (s *PostgresStore) EnsureProvisioned(ctx context.Context, userID id.UserID, email string, now time.Time) (models.Provisioning, error) {
	const query = `
		WITH upserted AS (
			INSERT INTO users (id, email, role, created_at)
			VALUES ($1, $2, 'VOLUNTEER', $3)
			ON CONFLICT (id) DO UPDATE
				SET email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END
			RETURNING role, (xmax = 0) AS inserted
		)
		SELECT u.role, u.inserted, EXISTS (SELECT 1 FROM profiles p WHERE p.user_id = $1)
		FROM upserted u`

	var (
		role string
		out  models.Provisioning
	)
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, query, string(userID), email, now).
		Scan(&role, &out.Provisioned, &out.HasProfile)
	if err != nil {
		return models.Provisioning{}, postgres.MapError("ensure provisioned", err)
	}
	out.Role = models.Role(role)
	return out, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	var (
		u    models.User
		uid  string
		role string
	)
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, email, role, created_at FROM users WHERE id = $1`, string(userID)).
		Scan(&uid, &u.Email, &role, &u.CreatedAt)
	if err != nil {
		return nil, postgres.MapError("find user", err)
	}
	u.ID = id.UserID(uid)
	u.Role = models.Role(role)
	return &u, nil
}

func (s *PostgresStore) SetRole(ctx context.Context, userID id.UserID, role models.Role) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE id = $1`, string(userID), string(role))
	if err != nil {
		return postgres.MapError("set role", err)
	}
	return requireRow(res, "set role")
}

// CreateProfile relies on the primary key; an existing profile maps to ErrConflict.
func (s *PostgresStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	query := `INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		string(p.UserID), p.FirstName, p.LastName, p.DateOfBirth, string(p.Gender), string(p.ResidentialStatus),
		p.Phone, p.Address, p.PostalCode, p.Skills, p.Experience, p.Occupation, p.School,
		p.EducationBackground, p.CommitmentLevel, p.Driving, p.OwnsVehicle, pq.Array(preferenceStrings(p.Preferences)),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return postgres.MapError("create profile", err)
	}
	return nil
}

func (s *PostgresStore) FindProfile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, string(userID))
	p, err := scanProfile(row)
	if err != nil {
		return nil, postgres.MapError("find profile", err)
	}
	return p, nil
}

// UpdateProfile replaces every mutable column and the preference array in one
// statement.
func (s *PostgresStore) UpdateProfile(ctx context.Context, userID id.UserID, d models.Details, now time.Time) (*models.Profile, error) {
	current := &models.Profile{}
	current.ApplyDetails(d, now)

	query := `UPDATE profiles SET
			phone = $2, address = $3, postal_code = $4, skills = $5, experience = $6,
			occupation = $7, school = $8, education_background = $9, commitment_level = $10,
			driving = $11, owns_vehicle = $12, preferences = $13, updated_at = $14
		WHERE user_id = $1
		RETURNING ` + profileColumns
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, query,
		string(userID), current.Phone, current.Address, current.PostalCode, current.Skills, current.Experience,
		current.Occupation, current.School, current.EducationBackground, current.CommitmentLevel,
		current.Driving, current.OwnsVehicle, pq.Array(preferenceStrings(current.Preferences)), now)
	p, err := scanProfile(row)
	if err != nil {
		return nil, postgres.MapError("update profile", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY last_name, first_name, user_id`)
	if err != nil {
		return nil, postgres.MapError("list profiles", err)
	}
	defer rows.Close()

	out := make([]*models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, userIDs []id.UserID) (map[id.UserID]models.Contact, error) {
	out := make(map[id.UserID]models.Contact, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(userIDs))
	for i, uid := range userIDs {
		ids[i] = string(uid)
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT p.user_id, p.first_name, p.last_name, p.gender, p.phone, u.email
		FROM profiles p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, postgres.MapError("list contacts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c      models.Contact
			uid    string
			gender string
		)
		if err := rows.Scan(&uid, &c.FirstName, &c.LastName, &gender, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.UserID = id.UserID(uid)
		c.Gender = models.Gender(gender)
		out[c.UserID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p                   models.Profile
		uid, gender, status string
		prefs               []string
	)
	err := row.Scan(&uid, &p.FirstName, &p.LastName, &p.DateOfBirth, &gender, &status,
		&p.Phone, &p.Address, &p.PostalCode, &p.Skills, &p.Experience, &p.Occupation, &p.School,
		&p.EducationBackground, &p.CommitmentLevel, &p.Driving, &p.OwnsVehicle, pq.Array(&prefs),
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.UserID = id.UserID(uid)
	p.Gender = models.Gender(gender)
	p.ResidentialStatus = models.ResidentialStatus(status)
	p.DateOfBirth = p.DateOfBirth.UTC()
	p.Preferences = make([]models.Preference, len(prefs))
	for i, s := range prefs {
		p.Preferences[i] = models.Preference(s)
	}
	return &p, nil
}

func preferenceStrings(prefs []models.Preference) []string {
	out := make([]string, len(prefs))
	for i, p := range prefs {
		out[i] = string(p)
	}
	return out
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
