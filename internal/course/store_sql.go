package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skillforge/skillforge-lms/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const courseCols = `id,title,subtitle,description,category,level,price,thumbnail_url,thumbnail_key,creator_id,is_published,created_at,updated_at`

func scanCourse(row interface{ Scan(...any) error }) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Title, &c.Subtitle, &c.Description, &c.Category, &c.Level,
		&c.Price, &c.ThumbnailURL, &c.ThumbnailKey, &c.CreatorID, &c.IsPublished,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses
		(`+courseCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.Title, c.Subtitle, c.Description, c.Category, c.Level, c.Price,
		c.ThumbnailURL, c.ThumbnailKey, c.CreatorID, c.IsPublished, now, now)
	return err
}

func (s *SQLStore) CourseByID(ctx context.Context, id string) (Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx,
		`SELECT `+courseCols+` FROM courses WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, apperr.NotFound("Course not found")
		}
		return Course{}, err
	}
	c.TotalLectures, err = s.LectureCount(ctx, id)
	return c, err
}

func (s *SQLStore) UpdateCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `UPDATE courses SET
		title=$1, subtitle=$2, description=$3, category=$4, level=$5, price=$6,
		thumbnail_url=$7, thumbnail_key=$8, updated_at=$9 WHERE id=$10`,
		c.Title, c.Subtitle, c.Description, c.Category, c.Level, c.Price,
		c.ThumbnailURL, c.ThumbnailKey, time.Now().Unix(), c.ID)
	return err
}

func (s *SQLStore) SetPublished(ctx context.Context, id string, published bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courses SET is_published=$1, updated_at=$2 WHERE id=$3`,
		published, time.Now().Unix(), id)
	return err
}

func (s *SQLStore) DeleteCourse(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	return err
}

func (s *SQLStore) CoursesByCreator(ctx context.Context, creatorID string) ([]Course, error) {
	return s.list(ctx, `SELECT `+courseCols+` FROM courses WHERE creator_id=$1 ORDER BY created_at DESC`, creatorID)
}

func (s *SQLStore) PublishedCourses(ctx context.Context) ([]Course, error) {
	return s.list(ctx, `SELECT `+courseCols+` FROM courses WHERE is_published=$1 ORDER BY created_at DESC`, true)
}

// Search matches published courses by case-insensitive substring over
// title/subtitle/category, optionally restricted to a category set and
// sorted by price.
func (s *SQLStore) Search(ctx context.Context, query string, categories []string, sortByPrice string) ([]Course, error) {
	var sb strings.Builder
	args := []any{true}
	sb.WriteString(`SELECT ` + courseCols + ` FROM courses WHERE is_published=$1`)

	args = append(args, "%"+strings.ToLower(query)+"%")
	n := len(args)
	fmt.Fprintf(&sb, ` AND (LOWER(title) LIKE $%d OR LOWER(subtitle) LIKE $%d OR LOWER(category) LIKE $%d)`, n, n, n)

	if len(categories) > 0 {
		ph := make([]string, len(categories))
		for i, cat := range categories {
			args = append(args, cat)
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		sb.WriteString(` AND category IN (` + strings.Join(ph, ",") + `)`)
	}

	switch sortByPrice {
	case "low":
		sb.WriteString(` ORDER BY price ASC`)
	case "high":
		sb.WriteString(` ORDER BY price DESC`)
	default:
		sb.WriteString(` ORDER BY created_at DESC`)
	}

	return s.list(ctx, sb.String(), args...)
}

func (s *SQLStore) list(ctx context.Context, q string, args ...any) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- lectures ---

const lectureCols = `id,course_id,title,description,content_type,video_url,video_key,pdf_url,pdf_key,text_content,is_preview_free,position,created_at,updated_at`

func scanLecture(row interface{ Scan(...any) error }) (Lecture, error) {
	var l Lecture
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.ContentType,
		&l.VideoURL, &l.VideoKey, &l.PDFURL, &l.PDFKey, &l.TextContent,
		&l.IsPreviewFree, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// CreateLecture appends the lecture to the end of the course's ordered list.
func (s *SQLStore) CreateLecture(ctx context.Context, l Lecture) (Lecture, error) {
	now := time.Now().Unix()
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position),0)+1 FROM lectures WHERE course_id=$1`, l.CourseID)
	if err := row.Scan(&l.Position); err != nil {
		return Lecture{}, err
	}
	l.CreatedAt, l.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO lectures
		(`+lectureCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		l.ID, l.CourseID, l.Title, l.Description, l.ContentType,
		l.VideoURL, l.VideoKey, l.PDFURL, l.PDFKey, l.TextContent,
		l.IsPreviewFree, l.Position, l.CreatedAt, l.UpdatedAt)
	return l, err
}

func (s *SQLStore) LectureByID(ctx context.Context, id string) (Lecture, error) {
	l, err := scanLecture(s.db.QueryRowContext(ctx,
		`SELECT `+lectureCols+` FROM lectures WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lecture{}, apperr.NotFound("Lecture not found!")
		}
		return Lecture{}, err
	}
	return l, nil
}

func (s *SQLStore) UpdateLecture(ctx context.Context, l Lecture) error {
	_, err := s.db.ExecContext(ctx, `UPDATE lectures SET
		title=$1, description=$2, content_type=$3,
		video_url=$4, video_key=$5, pdf_url=$6, pdf_key=$7, text_content=$8,
		is_preview_free=$9, updated_at=$10 WHERE id=$11`,
		l.Title, l.Description, l.ContentType,
		l.VideoURL, l.VideoKey, l.PDFURL, l.PDFKey, l.TextContent,
		l.IsPreviewFree, time.Now().Unix(), l.ID)
	return err
}

// DeleteLecture removes the lecture row, which also pulls it out of the
// owning course's ordered list.
func (s *SQLStore) DeleteLecture(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lectures WHERE id=$1`, id)
	return err
}

func (s *SQLStore) DeleteLecturesByCourse(ctx context.Context, courseID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lectures WHERE course_id=$1`, courseID)
	return err
}

func (s *SQLStore) Lectures(ctx context.Context, courseID string) ([]Lecture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lectureCols+` FROM lectures WHERE course_id=$1 ORDER BY position`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Lecture{}
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) LectureCount(ctx context.Context, courseID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lectures WHERE course_id=$1`, courseID).Scan(&n)
	return n, err
}

// --- enrollments ---

// Enroll is idempotent; enrolling twice is not an error.
func (s *SQLStore) Enroll(ctx context.Context, userID, courseID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollments (user_id, course_id, created_at)
		VALUES ($1,$2,$3) ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID, time.Now().Unix())
	return err
}

func (s *SQLStore) EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM enrollments WHERE course_id=$1 ORDER BY created_at`, courseID)
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
