package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-lms/internal/apperr"
)

// SQLStore persists tests and results. Questions and graded answers are
// stored as JSON documents inside their row.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// CreateOrAppend adds questions to the course's test, creating the test on
// first use. The lookup and write run in one transaction; the UNIQUE
// constraint on tests.course_id backstops concurrent first inserts.
func (s *SQLStore) CreateOrAppend(ctx context.Context, courseID, creatorID string, qs []Question) (Test, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Test{}, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	var t Test
	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT id, course_id, creator_id, questions_json, created_at, updated_at
		 FROM tests WHERE course_id=$1`, courseID).
		Scan(&t.ID, &t.CourseID, &t.CreatorID, &raw, &t.CreatedAt, &t.UpdatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		t = Test{
			ID:        uuid.NewString(),
			CourseID:  courseID,
			CreatorID: creatorID,
			Questions: qs,
			CreatedAt: now,
			UpdatedAt: now,
		}
		doc, err := json.Marshal(t.Questions)
		if err != nil {
			return Test{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tests (id, course_id, creator_id, questions_json, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			t.ID, t.CourseID, t.CreatorID, string(doc), now, now); err != nil {
			return Test{}, err
		}
	case err != nil:
		return Test{}, err
	default:
		if err := json.Unmarshal([]byte(raw), &t.Questions); err != nil {
			return Test{}, err
		}
		t.Questions = append(t.Questions, qs...)
		t.UpdatedAt = now
		doc, err := json.Marshal(t.Questions)
		if err != nil {
			return Test{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE tests SET questions_json=$1, updated_at=$2 WHERE id=$3`,
			string(doc), now, t.ID); err != nil {
			return Test{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) TestByID(ctx context.Context, id string) (Test, error) {
	return s.one(ctx,
		`SELECT id, course_id, creator_id, questions_json, created_at, updated_at
		 FROM tests WHERE id=$1`, id)
}

func (s *SQLStore) TestByCourse(ctx context.Context, courseID string) (Test, error) {
	return s.one(ctx,
		`SELECT id, course_id, creator_id, questions_json, created_at, updated_at
		 FROM tests WHERE course_id=$1`, courseID)
}

func (s *SQLStore) one(ctx context.Context, q string, arg any) (Test, error) {
	var t Test
	var raw string
	err := s.db.QueryRowContext(ctx, q, arg).
		Scan(&t.ID, &t.CourseID, &t.CreatorID, &raw, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, apperr.NotFound("Test not found")
	}
	if err != nil {
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(raw), &t.Questions); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) ReplaceQuestions(ctx context.Context, testID string, qs []Question) error {
	doc, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE tests SET questions_json=$1, updated_at=$2 WHERE id=$3`,
		string(doc), time.Now().Unix(), testID)
	return err
}

func (s *SQLStore) InsertResult(ctx context.Context, r Result) error {
	doc, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO test_results (id, user_id, course_id, test_id, score, passed, answers_json, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.UserID, r.CourseID, r.TestID, r.Score, r.Passed, string(doc), r.CompletedAt)
	return err
}

// LatestResult returns the most recent attempt for the user on the course.
// The bool reports whether any attempt exists.
func (s *SQLStore) LatestResult(ctx context.Context, userID, courseID string) (Result, bool, error) {
	var r Result
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, course_id, test_id, score, passed, answers_json, completed_at
		 FROM test_results WHERE user_id=$1 AND course_id=$2
		 ORDER BY completed_at DESC, id DESC LIMIT 1`, userID, courseID).
		Scan(&r.ID, &r.UserID, &r.CourseID, &r.TestID, &r.Score, &r.Passed, &raw, &r.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &r.Answers); err != nil {
		return Result{}, false, err
	}
	return r, true, nil
}
