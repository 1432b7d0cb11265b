package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/skillforge/skillforge-lms/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, u User) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO users
		(id, name, email, password_hash, google_id, role, photo_url, photo_key, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Name, u.Email, nullable(u.PasswordHash), nullable(u.GoogleID),
		u.Role, u.PhotoURL, u.PhotoKey, now, now)
	return err
}

func (s *SQLStore) ByID(ctx context.Context, id string) (User, error) {
	return s.one(ctx, `WHERE id=$1`, id)
}

func (s *SQLStore) ByEmail(ctx context.Context, email string) (User, error) {
	return s.one(ctx, `WHERE email=$1`, email)
}

func (s *SQLStore) one(ctx context.Context, where string, arg any) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,email,password_hash,google_id,role,photo_url,photo_key,created_at,updated_at
		FROM users `+where, arg)
	var u User
	var phash, gid sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &phash, &gid, &u.Role, &u.PhotoURL, &u.PhotoKey, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperr.NotFound("User not found")
		}
		return User{}, err
	}
	u.PasswordHash = phash.String
	u.GoogleID = gid.String
	return u, nil
}

func (s *SQLStore) UpdateProfile(ctx context.Context, id, name, photoURL, photoKey string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET name=$1, photo_url=$2, photo_key=$3, updated_at=$4 WHERE id=$5`,
		name, photoURL, photoKey, time.Now().Unix(), id)
	return err
}

func (s *SQLStore) SetPassword(ctx context.Context, id, hash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3`,
		hash, time.Now().Unix(), id)
	return err
}

// LinkGoogle attaches a federated id to an existing local account.
func (s *SQLStore) LinkGoogle(ctx context.Context, id, googleID, photoURL string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET google_id=$1, photo_url=$2, updated_at=$3 WHERE id=$4`,
		googleID, photoURL, time.Now().Unix(), id)
	return err
}

func (s *SQLStore) EnrolledCourseIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT course_id FROM enrollments WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
