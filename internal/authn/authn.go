// Package authn is the identity and session provider: password sign-up and
// sign-in, opaque bearer session tokens (stored hashed), and session
// resolution. Sign-up creates the auth user and its profile in one
// transaction, so a session subject always has a profile row.
package authn

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alcatecable/Procedure/internal/store"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
)

type Service struct {
	DB          *pgxpool.Pool
	SessionTTL  time.Duration
	BcryptCost  int
	MinPassword int
}

func New(db *pgxpool.Pool, sessionTTL time.Duration, bcryptCost, minPassword int) *Service {
	return &Service{DB: db, SessionTTL: sessionTTL, BcryptCost: bcryptCost, MinPassword: minPassword}
}

// Principal is the authenticated caller: the resolved session plus the
// profile linked to its subject.
type Principal struct {
	SessionID string
	ExpiresAt time.Time
	Profile   store.Profile
}

func (p Principal) IsAdmin() bool { return p.Profile.Role == store.RoleAdmin }

type Session struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new account. It does not issue a session; the caller
// is expected to sign in afterwards.
func (s *Service) SignUp(ctx context.Context, email, password, fullName, role string) (store.Profile, error) {
	email = normalizeEmail(email)
	if len(password) < s.MinPassword {
		return store.Profile{}, fmt.Errorf("password must be at least %d characters", s.MinPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return store.Profile{}, err
	}

	userID := "usr_" + uuid.NewString()
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return store.Profile{}, err
	}
	defer tx.Rollback(ctx)

	var insertedID string
	err = tx.QueryRow(ctx, `
INSERT INTO auth_users(user_id,email,password_hash)
VALUES($1,$2,$3)
ON CONFLICT (email) DO NOTHING
RETURNING user_id
`, userID, email, string(hash)).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Profile{}, ErrEmailTaken
		}
		return store.Profile{}, err
	}

	var p store.Profile
	err = tx.QueryRow(ctx, `
INSERT INTO profiles(profile_id,email,full_name,role)
VALUES($1,$2,$3,$4)
RETURNING profile_id,email,full_name,role,created_at,updated_at
`, insertedID, email, strings.TrimSpace(fullName), role).Scan(&p.ProfileID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return store.Profile{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return store.Profile{}, err
	}
	return p, nil
}

// SignIn verifies the password and issues a fresh session token. The raw
// token is returned once; only its hash is stored.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, store.Profile, error) {
	email = normalizeEmail(email)

	var userID, passwordHash string
	err := s.DB.QueryRow(ctx, `
SELECT user_id,password_hash
FROM auth_users
WHERE email=$1
`, email).Scan(&userID, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, store.Profile{}, ErrInvalidCredentials
		}
		return Session{}, store.Profile{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return Session{}, store.Profile{}, ErrInvalidCredentials
	}

	token := "ses_live_" + randomToken()
	sess := Session{
		SessionID: "ses_" + uuid.NewString(),
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.SessionTTL),
	}
	if _, err := s.DB.Exec(ctx, `
INSERT INTO sessions(session_id,user_id,token_hash,expires_at)
VALUES($1,$2,$3,$4)
`, sess.SessionID, userID, HashToken(token), sess.ExpiresAt); err != nil {
		return Session{}, store.Profile{}, err
	}

	var p store.Profile
	err = s.DB.QueryRow(ctx, `
SELECT profile_id,email,full_name,role,created_at,updated_at
FROM profiles
WHERE profile_id=$1
`, userID).Scan(&p.ProfileID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Session{}, store.Profile{}, err
	}
	return sess, p, nil
}

// SignOut revokes the session behind the given raw token. Revoking an
// unknown or already-revoked token is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	_, err := s.DB.Exec(ctx, `
UPDATE sessions
SET revoked_at=NOW()
WHERE token_hash=$1 AND revoked_at IS NULL
`, HashToken(token))
	return err
}

// Resolve maps a raw bearer token to its principal. Expired and revoked
// sessions resolve to ErrUnauthorized.
func (s *Service) Resolve(ctx context.Context, token string) (Principal, error) {
	var pr Principal
	err := s.DB.QueryRow(ctx, `
SELECT s.session_id,s.expires_at,p.profile_id,p.email,p.full_name,p.role,p.created_at,p.updated_at
FROM sessions s
JOIN profiles p ON p.profile_id=s.user_id
WHERE s.token_hash=$1 AND s.revoked_at IS NULL
`, HashToken(token)).Scan(&pr.SessionID, &pr.ExpiresAt, &pr.Profile.ProfileID, &pr.Profile.Email, &pr.Profile.FullName, &pr.Profile.Role, &pr.Profile.CreatedAt, &pr.Profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if !pr.ExpiresAt.After(time.Now().UTC()) {
		return Principal{}, ErrUnauthorized
	}
	return pr, nil
}

// ParseBearer extracts the token from an Authorization header.
func ParseBearer(authorization string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(strings.TrimSpace(authorization), prefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authorization, prefix))
	if tok == "" {
		return "", false
	}
	return tok, true
}
