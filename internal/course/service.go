package course

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/apperr"
	"github.com/skillforge/skillforge-lms/internal/media"
)

type Service struct {
	store *SQLStore
	media media.Store
	log   *zap.SugaredLogger
}

func NewService(store *SQLStore, mediaStore media.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, media: mediaStore, log: log}
}

// CreateCourse uploads the thumbnail (if any) first; when that upload fails
// the course is not created.
func (s *Service) CreateCourse(ctx context.Context, creatorID string, in CourseInput, thumbPath string) (Course, error) {
	if in.Title == "" || in.Category == "" {
		return Course{}, apperr.Validation("Course title and category are required.")
	}
	if in.Level != "" && !ValidLevel(in.Level) {
		return Course{}, apperr.Validation("Invalid course level")
	}

	c := Course{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Subtitle:    in.Subtitle,
		Description: in.Description,
		Category:    in.Category,
		Level:       in.Level,
		CreatorID:   creatorID,
	}
	if in.Price != nil {
		c.Price = *in.Price
	}

	if thumbPath != "" {
		asset, err := s.media.Upload(ctx, thumbPath, media.KindImage)
		if err != nil {
			return Course{}, apperr.Media("Failed to upload thumbnail", err)
		}
		c.ThumbnailURL, c.ThumbnailKey = asset.URL, asset.DeleteKey
	}

	if err := s.store.CreateCourse(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *Service) CreatorCourses(ctx context.Context, creatorID string) ([]Course, error) {
	return s.store.CoursesByCreator(ctx, creatorID)
}

func (s *Service) PublishedCourses(ctx context.Context) ([]Course, error) {
	return s.store.PublishedCourses(ctx)
}

func (s *Service) Search(ctx context.Context, query string, categories []string, sortByPrice string) ([]Course, error) {
	return s.store.Search(ctx, query, categories, sortByPrice)
}

// CourseByID returns the course with its lectures and enrolled student ids.
func (s *Service) CourseByID(ctx context.Context, courseID string) (Course, error) {
	c, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if c.Lectures, err = s.store.Lectures(ctx, courseID); err != nil {
		return Course{}, err
	}
	if c.EnrolledStudents, err = s.store.EnrolledStudentIDs(ctx, courseID); err != nil {
		return Course{}, err
	}
	c.TotalLectures = len(c.Lectures)
	return c, nil
}

// EditCourse replaces the thumbnail when a new one is staged: the previous
// asset is deleted best-effort before the replacement upload. Only the
// creator may edit.
func (s *Service) EditCourse(ctx context.Context, userID, courseID string, in CourseInput, thumbPath string) (Course, error) {
	c, err := s.authorize(ctx, userID, courseID)
	if err != nil {
		return Course{}, err
	}

	if thumbPath != "" {
		if c.ThumbnailKey != "" {
			if err := s.media.Delete(ctx, c.ThumbnailKey, media.KindImage); err != nil {
				s.log.Warnw("deleting old thumbnail", "course", courseID, "error", err)
			}
		}
		asset, err := s.media.Upload(ctx, thumbPath, media.KindImage)
		if err != nil {
			return Course{}, apperr.Media("Failed to upload thumbnail", err)
		}
		c.ThumbnailURL, c.ThumbnailKey = asset.URL, asset.DeleteKey
	}

	if in.Title != "" {
		c.Title = in.Title
	}
	if in.Subtitle != "" {
		c.Subtitle = in.Subtitle
	}
	if in.Description != "" {
		c.Description = in.Description
	}
	if in.Category != "" {
		c.Category = in.Category
	}
	if in.Level != "" {
		if !ValidLevel(in.Level) {
			return Course{}, apperr.Validation("Invalid course level")
		}
		c.Level = in.Level
	}
	if in.Price != nil {
		c.Price = *in.Price
	}

	if err := s.store.UpdateCourse(ctx, c); err != nil {
		return Course{}, err
	}
	return s.store.CourseByID(ctx, courseID)
}

// RemoveCourse cascades: thumbnail, then every lecture's media, then lecture
// rows, then the course row. Media deletions are best-effort.
func (s *Service) RemoveCourse(ctx context.Context, userID, courseID string) error {
	c, err := s.authorize(ctx, userID, courseID)
	if err != nil {
		return err
	}
	lectures, err := s.store.Lectures(ctx, courseID)
	if err != nil {
		return err
	}

	if c.ThumbnailKey != "" {
		if err := s.media.Delete(ctx, c.ThumbnailKey, media.KindImage); err != nil {
			s.log.Warnw("cascade: deleting thumbnail", "course", courseID, "error", err)
		}
	}
	for _, l := range lectures {
		s.releaseLectureMedia(ctx, l)
	}

	if err := s.store.DeleteLecturesByCourse(ctx, courseID); err != nil {
		return err
	}
	return s.store.DeleteCourse(ctx, courseID)
}

// TogglePublish flips the publish flag. A course with no lectures cannot be
// published.
func (s *Service) TogglePublish(ctx context.Context, userID, courseID string, publish bool) (Course, error) {
	c, err := s.authorize(ctx, userID, courseID)
	if err != nil {
		return Course{}, err
	}
	if publish && c.TotalLectures == 0 {
		return Course{}, apperr.InvalidState("Cannot publish a course without lectures")
	}
	if err := s.store.SetPublished(ctx, courseID, publish); err != nil {
		return Course{}, err
	}
	c.IsPublished = publish
	return c, nil
}

// CreateLecture uploads media for the declared kind before persisting; on
// upload failure no lecture record is left behind.
func (s *Service) CreateLecture(ctx context.Context, userID, courseID string, in LectureInput, files LectureFiles) (Lecture, error) {
	if in.Title == "" || in.Description == "" || in.ContentType == "" {
		return Lecture{}, apperr.Validation("Please provide lecture title, description, and content type")
	}
	if !ValidContentType(in.ContentType) {
		return Lecture{}, apperr.Validation("Invalid content type")
	}
	if missingContent(in, files) {
		return Lecture{}, apperr.Validation(
			fmt.Sprintf("Missing required content for %s type lecture", in.ContentType))
	}

	if _, err := s.authorize(ctx, userID, courseID); err != nil {
		return Lecture{}, err
	}

	l := Lecture{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Title:       in.Title,
		Description: in.Description,
		ContentType: in.ContentType,
	}
	if in.IsPreviewFree != nil {
		l.IsPreviewFree = *in.IsPreviewFree
	}

	switch in.ContentType {
	case ContentVideo:
		asset, err := s.media.Upload(ctx, files.VideoPath, media.KindVideo)
		if err != nil {
			return Lecture{}, apperr.Media("Failed to upload video", err)
		}
		l.VideoURL, l.VideoKey = asset.URL, asset.DeleteKey
	case ContentPDF:
		asset, err := s.media.Upload(ctx, files.PDFPath, media.KindRaw)
		if err != nil {
			return Lecture{}, apperr.Media("Failed to upload PDF", err)
		}
		l.PDFURL, l.PDFKey = asset.URL, asset.DeleteKey
	case ContentText:
		l.TextContent = in.TextContent
	}

	return s.store.CreateLecture(ctx, l)
}

// EditLecture applies field changes, and when the content kind changes it
// releases all previously stored media (video and pdf alike) and clears the
// other-kind fields before setting the new kind's content.
func (s *Service) EditLecture(ctx context.Context, userID, lectureID string, in LectureInput, files LectureFiles) (Lecture, error) {
	l, err := s.store.LectureByID(ctx, lectureID)
	if err != nil {
		return Lecture{}, err
	}
	if _, err := s.authorize(ctx, userID, l.CourseID); err != nil {
		return Lecture{}, err
	}

	if in.Title != "" {
		l.Title = in.Title
	}
	if in.Description != "" {
		l.Description = in.Description
	}
	if in.IsPreviewFree != nil {
		l.IsPreviewFree = *in.IsPreviewFree
	}

	if in.ContentType != "" && in.ContentType != l.ContentType {
		if !ValidContentType(in.ContentType) {
			return Lecture{}, apperr.Validation("Invalid content type")
		}
		if missingContent(in, files) {
			return Lecture{}, apperr.Validation(
				fmt.Sprintf("Missing required content for %s type lecture", in.ContentType))
		}
		if err := s.releaseLectureMediaStrict(ctx, &l); err != nil {
			return Lecture{}, apperr.Media("Failed to cleanup old content", err)
		}
		l.TextContent = ""
		l.ContentType = in.ContentType
	}

	switch {
	case l.ContentType == ContentVideo && files.VideoPath != "":
		if l.VideoKey != "" {
			if err := s.media.Delete(ctx, l.VideoKey, media.KindVideo); err != nil {
				return Lecture{}, apperr.Media("Failed to cleanup old content", err)
			}
		}
		asset, err := s.media.Upload(ctx, files.VideoPath, media.KindVideo)
		if err != nil {
			return Lecture{}, apperr.Media("Failed to upload video", err)
		}
		l.VideoURL, l.VideoKey = asset.URL, asset.DeleteKey
	case l.ContentType == ContentPDF && files.PDFPath != "":
		if l.PDFKey != "" {
			if err := s.media.Delete(ctx, l.PDFKey, media.KindRaw); err != nil {
				return Lecture{}, apperr.Media("Failed to cleanup old content", err)
			}
		}
		asset, err := s.media.Upload(ctx, files.PDFPath, media.KindRaw)
		if err != nil {
			return Lecture{}, apperr.Media("Failed to upload PDF", err)
		}
		l.PDFURL, l.PDFKey = asset.URL, asset.DeleteKey
	case l.ContentType == ContentText && in.TextContent != "":
		l.TextContent = in.TextContent
	}

	if err := s.store.UpdateLecture(ctx, l); err != nil {
		return Lecture{}, err
	}
	return l, nil
}

// RemoveLecture deletes media best-effort, then the record.
func (s *Service) RemoveLecture(ctx context.Context, userID, lectureID string) error {
	l, err := s.store.LectureByID(ctx, lectureID)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, userID, l.CourseID); err != nil {
		return err
	}
	s.releaseLectureMedia(ctx, l)
	return s.store.DeleteLecture(ctx, lectureID)
}

func (s *Service) Lectures(ctx context.Context, courseID string) ([]Lecture, error) {
	if _, err := s.store.CourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.Lectures(ctx, courseID)
}

func (s *Service) LectureByID(ctx context.Context, lectureID string) (Lecture, error) {
	return s.store.LectureByID(ctx, lectureID)
}

// Enroll records the user on the course roster; repeated enrollment is a
// no-op.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) error {
	if _, err := s.store.CourseByID(ctx, courseID); err != nil {
		return err
	}
	return s.store.Enroll(ctx, userID, courseID)
}

// authorize loads the course and verifies the requester created it.
func (s *Service) authorize(ctx context.Context, userID, courseID string) (Course, error) {
	c, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if c.CreatorID != userID {
		return Course{}, apperr.Forbidden("You are not authorized to modify this course")
	}
	return c, nil
}

// releaseLectureMedia deletes remote media, logging failures instead of
// propagating them (cascade path).
func (s *Service) releaseLectureMedia(ctx context.Context, l Lecture) {
	if l.VideoKey != "" {
		if err := s.media.Delete(ctx, l.VideoKey, media.KindVideo); err != nil {
			s.log.Warnw("cascade: deleting lecture video", "lecture", l.ID, "error", err)
		}
	}
	if l.PDFKey != "" {
		if err := s.media.Delete(ctx, l.PDFKey, media.KindRaw); err != nil {
			s.log.Warnw("cascade: deleting lecture pdf", "lecture", l.ID, "error", err)
		}
	}
}

// releaseLectureMediaStrict releases media during a content-kind switch,
// where a failed delete aborts the edit. Both kinds are released regardless
// of which one was populated.
func (s *Service) releaseLectureMediaStrict(ctx context.Context, l *Lecture) error {
	if l.VideoKey != "" {
		if err := s.media.Delete(ctx, l.VideoKey, media.KindVideo); err != nil {
			return err
		}
		l.VideoURL, l.VideoKey = "", ""
	}
	if l.PDFKey != "" {
		if err := s.media.Delete(ctx, l.PDFKey, media.KindRaw); err != nil {
			return err
		}
		l.PDFURL, l.PDFKey = "", ""
	}
	return nil
}

func missingContent(in LectureInput, files LectureFiles) bool {
	switch in.ContentType {
	case ContentVideo:
		return files.VideoPath == ""
	case ContentPDF:
		return files.PDFPath == ""
	case ContentText:
		return in.TextContent == ""
	}
	return true
}
