// Package store holds the persisted entities and every SQL statement the
// service runs against them. Profiles are created by the authn layer;
// procedures and acknowledgments are owned here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProcedureNotFound = errors.New("procedure not found")
var ErrProfileNotFound = errors.New("profile not found")

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusReplaced = "replaced"
)

// SourceSuggestions is advisory only; the source column accepts free text.
var SourceSuggestions = []string{"Teams", "Slack", "WhatsApp", "Email", "Other"}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusArchived || status == StatusReplaced
}

type Profile struct {
	ProfileID string    `json:"profile_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Procedure struct {
	ProcedureID   string    `json:"procedure_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Source        string    `json:"source"`
	SourceLink    string    `json:"source_link"`
	EffectiveDate Date      `json:"effective_date"`
	Status        string    `json:"status"`
	CreatedBy     *string   `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Acknowledgment struct {
	AckID          string    `json:"ack_id"`
	ProcedureID    string    `json:"procedure_id"`
	UserID         string    `json:"user_id"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

// Stats is the per-procedure aggregate a card renders. The three counts are
// fetched in one round trip rather than the three the original UI made.
type Stats struct {
	AcknowledgedCount int  `json:"acknowledged_count"`
	ProfileCount      int  `json:"profile_count"`
	HasAcknowledged   bool `json:"has_acknowledged"`
}

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) GetProfile(ctx context.Context, profileID string) (Profile, error) {
	var p Profile
	err := s.DB.QueryRow(ctx, `
SELECT profile_id,email,full_name,role,created_at,updated_at
FROM profiles
WHERE profile_id=$1
`, profileID).Scan(&p.ProfileID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

func (s *Store) CountProfiles(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n)
	return n, err
}

func (s *Store) CreateProcedure(ctx context.Context, p Procedure) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO procedures(procedure_id,title,description,source,source_link,effective_date,status,created_by)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
`, p.ProcedureID, p.Title, p.Description, p.Source, p.SourceLink, p.EffectiveDate, p.Status, p.CreatedBy)
	return err
}

// UpdateProcedure writes every editable field, status included. Status has
// no transition rules; any value may replace any other.
func (s *Store) UpdateProcedure(ctx context.Context, p Procedure) error {
	tag, err := s.DB.Exec(ctx, `
UPDATE procedures
SET title=$2,description=$3,source=$4,source_link=$5,effective_date=$6,status=$7,updated_at=NOW()
WHERE procedure_id=$1
`, p.ProcedureID, p.Title, p.Description, p.Source, p.SourceLink, p.EffectiveDate, p.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProcedureNotFound
	}
	return nil
}

func (s *Store) GetProcedure(ctx context.Context, procedureID string) (Procedure, error) {
	var p Procedure
	err := s.DB.QueryRow(ctx, `
SELECT procedure_id,title,description,source,source_link,effective_date,status,created_by,created_at,updated_at
FROM procedures
WHERE procedure_id=$1
`, procedureID).Scan(&p.ProcedureID, &p.Title, &p.Description, &p.Source, &p.SourceLink, &p.EffectiveDate, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Procedure{}, ErrProcedureNotFound
		}
		return Procedure{}, err
	}
	return p, nil
}

// ListProcedures returns the full set in creation order, newest first.
// No pagination: the dashboard always loads everything.
func (s *Store) ListProcedures(ctx context.Context) ([]Procedure, error) {
	rows, err := s.DB.Query(ctx, `
SELECT procedure_id,title,description,source,source_link,effective_date,status,created_by,created_at,updated_at
FROM procedures
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Procedure{}
	for rows.Next() {
		var p Procedure
		if err := rows.Scan(&p.ProcedureID, &p.Title, &p.Description, &p.Source, &p.SourceLink, &p.EffectiveDate, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertAcknowledgment records that a user has read a procedure. The unique
// constraint makes a concurrent duplicate a clean no-op: inserted=false,
// no error.
func (s *Store) InsertAcknowledgment(ctx context.Context, ack Acknowledgment) (inserted bool, err error) {
	var id string
	err = s.DB.QueryRow(ctx, `
INSERT INTO acknowledgments(ack_id,procedure_id,user_id)
VALUES($1,$2,$3)
ON CONFLICT (procedure_id,user_id) DO NOTHING
RETURNING ack_id
`, ack.AckID, ack.ProcedureID, ack.UserID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ProcedureStats gathers the acknowledgment count, the profile denominator
// and the viewer's own acknowledgment state in a single query.
func (s *Store) ProcedureStats(ctx context.Context, procedureID, userID string) (Stats, error) {
	var st Stats
	err := s.DB.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM acknowledgments WHERE procedure_id=$1),
  (SELECT COUNT(*) FROM profiles),
  EXISTS(SELECT 1 FROM acknowledgments WHERE procedure_id=$1 AND user_id=$2)
`, procedureID, userID).Scan(&st.AcknowledgedCount, &st.ProfileCount, &st.HasAcknowledged)
	return st, err
}

func (s *Store) HasAcknowledged(ctx context.Context, procedureID, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM acknowledgments WHERE procedure_id=$1 AND user_id=$2)
`, procedureID, userID).Scan(&exists)
	return exists, err
}
