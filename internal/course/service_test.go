package course_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/apperr"
	"github.com/skillforge/skillforge-lms/internal/course"
	"github.com/skillforge/skillforge-lms/internal/db"
	"github.com/skillforge/skillforge-lms/internal/media"
)

// fakeMedia records upload/delete calls instead of talking to the asset host.
type fakeMedia struct {
	next       int
	uploaded   []string
	deleted    []string
	failUpload bool
	failDelete bool
}

func (f *fakeMedia) Upload(ctx context.Context, localPath string, kind media.Kind) (media.Asset, error) {
	if f.failUpload {
		return media.Asset{}, media.ErrUploadFailed
	}
	f.next++
	key := fmt.Sprintf("%s-key-%d", kind, f.next)
	f.uploaded = append(f.uploaded, localPath)
	return media.Asset{URL: "https://cdn.example.com/" + key, DeleteKey: key}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, deleteKey string, kind media.Kind) error {
	f.deleted = append(f.deleted, deleteKey)
	if f.failDelete {
		return errors.New("asset host unreachable")
	}
	return nil
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func seedUser(t *testing.T, dbh *sql.DB, id string) {
	t.Helper()
	now := time.Now().Unix()
	if _, err := dbh.Exec(
		`INSERT INTO users (id,name,email,role,created_at,updated_at) VALUES ($1,$2,$3,'instructor',$4,$4)`,
		id, "Ada", id+"@example.com", now); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func newService(t *testing.T) (*course.Service, *fakeMedia, *sql.DB) {
	t.Helper()
	dbh := openDB(t)
	seedUser(t, dbh, "creator")
	fm := &fakeMedia{}
	svc := course.NewService(course.NewSQLStore(dbh), fm, zap.NewNop().Sugar())
	return svc, fm, dbh
}

func input(title, category string) course.CourseInput {
	return course.CourseInput{Title: title, Category: category}
}

func textLecture(t *testing.T, svc *course.Service, courseID string) course.Lecture {
	t.Helper()
	l, err := svc.CreateLecture(context.Background(), "creator", courseID, course.LectureInput{
		Title:       "Intro",
		Description: "Welcome",
		ContentType: course.ContentText,
		TextContent: "Hello",
	}, course.LectureFiles{})
	if err != nil {
		t.Fatalf("create lecture: %v", err)
	}
	return l
}

func TestCreateCourseValidation(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.CreateCourse(context.Background(), "creator", input("", "programming"), "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	_, err = svc.CreateCourse(context.Background(), "creator", input("Go 101", ""), "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateCourseUploadFailureAborts(t *testing.T) {
	svc, fm, dbh := newService(t)
	fm.failUpload = true

	_, err := svc.CreateCourse(context.Background(), "creator", input("Go 101", "programming"), "/tmp/thumb.png")
	if apperr.KindOf(err) != apperr.KindMedia {
		t.Fatalf("err = %v, want media error", err)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("course rows = %d, want 0 after failed thumbnail upload", n)
	}
}

func TestTogglePublishRequiresLectures(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.TogglePublish(ctx, "creator", c.ID, true); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("err = %v, want invalid state for lectureless publish", err)
	}

	textLecture(t, svc, c.ID)

	got, err := svc.TogglePublish(ctx, "creator", c.ID, true)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !got.IsPublished {
		t.Errorf("course not published")
	}

	got, err = svc.TogglePublish(ctx, "creator", c.ID, false)
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if got.IsPublished {
		t.Errorf("course still published")
	}
}

func TestEditCourseReplacesThumbnailOnce(t *testing.T) {
	svc, fm, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "/tmp/old.png")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.EditCourse(ctx, "creator", c.ID, course.CourseInput{}, "/tmp/new.png")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.ThumbnailURL == c.ThumbnailURL {
		t.Errorf("thumbnail url unchanged")
	}
	if len(fm.deleted) != 1 || fm.deleted[0] != "image-key-1" {
		t.Errorf("deleted = %v, want exactly the old thumbnail key", fm.deleted)
	}
}

func TestEditCourseForbiddenForNonCreator(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.EditCourse(ctx, "intruder", c.ID, input("Hacked", ""), ""); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestRemoveCourseCascadesDespiteMediaFailures(t *testing.T) {
	svc, fm, dbh := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "/tmp/thumb.png")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateLecture(ctx, "creator", c.ID, course.LectureInput{
		Title: "L1", Description: "d", ContentType: course.ContentVideo,
	}, course.LectureFiles{VideoPath: "/tmp/v.mp4"}); err != nil {
		t.Fatalf("video lecture: %v", err)
	}
	if _, err := svc.CreateLecture(ctx, "creator", c.ID, course.LectureInput{
		Title: "L2", Description: "d", ContentType: course.ContentPDF,
	}, course.LectureFiles{PDFPath: "/tmp/notes.pdf"}); err != nil {
		t.Fatalf("pdf lecture: %v", err)
	}

	fm.failDelete = true
	if err := svc.RemoveCourse(ctx, "creator", c.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(fm.deleted) != 3 {
		t.Errorf("media delete attempts = %d, want 3 (thumbnail, video, pdf)", len(fm.deleted))
	}
	for table, want := range map[string]int{"courses": 0, "lectures": 0} {
		var n int
		if err := dbh.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != want {
			t.Errorf("%s rows = %d, want %d", table, n, want)
		}
	}
}

func TestCreateLectureValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.CreateLecture(ctx, "creator", c.ID, course.LectureInput{Title: "L"}, course.LectureFiles{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation for missing fields", err)
	}

	_, err = svc.CreateLecture(ctx, "creator", c.ID, course.LectureInput{
		Title: "L", Description: "d", ContentType: course.ContentVideo,
	}, course.LectureFiles{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation for missing video", err)
	}
}

func TestLecturesKeepAppendOrder(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		textLecture(t, svc, c.ID)
	}

	list, err := svc.Lectures(ctx, c.ID)
	if err != nil {
		t.Fatalf("lectures: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("lectures = %d, want 3", len(list))
	}
	for i, l := range list {
		if l.Position != i+1 {
			t.Errorf("lecture %d position = %d, want %d", i, l.Position, i+1)
		}
	}
}

func TestEditLectureContentKindSwitchReleasesMedia(t *testing.T) {
	svc, fm, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	l, err := svc.CreateLecture(ctx, "creator", c.ID, course.LectureInput{
		Title: "L1", Description: "d", ContentType: course.ContentVideo,
	}, course.LectureFiles{VideoPath: "/tmp/v.mp4"})
	if err != nil {
		t.Fatalf("video lecture: %v", err)
	}

	got, err := svc.EditLecture(ctx, "creator", l.ID, course.LectureInput{
		ContentType: course.ContentText,
		TextContent: "now plain text",
	}, course.LectureFiles{})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.ContentType != course.ContentText || got.TextContent != "now plain text" {
		t.Errorf("lecture = %+v, want text content", got)
	}
	if got.VideoURL != "" {
		t.Errorf("video url not cleared on kind switch")
	}
	if len(fm.deleted) != 1 {
		t.Errorf("deleted = %v, want the old video key", fm.deleted)
	}
}

func TestEnrollIsIdempotent(t *testing.T) {
	svc, _, dbh := newService(t)
	ctx := context.Background()
	seedUser(t, dbh, "student")

	c, err := svc.CreateCourse(ctx, "creator", input("Go 101", "programming"), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.Enroll(ctx, "student", c.ID); err != nil {
			t.Fatalf("enroll %d: %v", i, err)
		}
	}

	got, err := svc.CourseByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.EnrolledStudents) != 1 {
		t.Errorf("enrolled = %v, want one entry", got.EnrolledStudents)
	}
}

func TestSearchFiltersAndSorts(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	for i, tc := range []struct {
		title, category string
		price           float64
	}{
		{"Go Basics", "programming", 20},
		{"Advanced Go", "programming", 50},
		{"Watercolor", "art", 10},
	} {
		p := tc.price
		c, err := svc.CreateCourse(ctx, "creator", course.CourseInput{
			Title: tc.title, Category: tc.category, Price: &p,
		}, "")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		textLecture(t, svc, c.ID)
		if _, err := svc.TogglePublish(ctx, "creator", c.ID, true); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	got, err := svc.Search(ctx, "go", nil, "low")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Go Basics" || got[1].Title != "Advanced Go" {
		t.Fatalf("search result = %+v, want the two Go courses by ascending price", got)
	}

	got, err = svc.Search(ctx, "", []string{"art"}, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Watercolor" {
		t.Fatalf("category filter = %+v, want only the art course", got)
	}
}
