package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-lms/internal/apperr"
	"github.com/skillforge/skillforge-lms/internal/course"
)

type courseDirectory interface {
	CourseByID(ctx context.Context, id string) (course.Course, error)
}

type Service struct {
	store   *SQLStore
	courses courseDirectory
}

func NewService(store *SQLStore, courses courseDirectory) *Service {
	return &Service{store: store, courses: courses}
}

// CreateOrAppend attaches questions to the course's test. Only the course
// creator may add questions. A course has at most one test; repeated calls
// grow it.
func (s *Service) CreateOrAppend(ctx context.Context, userID, courseID string, in []QuestionInput) (Test, error) {
	c, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return Test{}, err
	}
	if c.CreatorID != userID {
		return Test{}, apperr.Forbidden("You are not authorized to create tests for this course")
	}
	if len(in) == 0 {
		return Test{}, apperr.Validation("At least one question is required")
	}

	qs := make([]Question, 0, len(in))
	for _, q := range in {
		if q.Question == "" || len(q.Choices) < 2 || q.CorrectAnswer == "" {
			return Test{}, apperr.Validation("Each question needs text, at least two choices, and a correct answer")
		}
		if !contains(q.Choices, q.CorrectAnswer) {
			return Test{}, apperr.Validation("Correct answer must be one of the choices")
		}
		qs = append(qs, Question{
			ID:            uuid.NewString(),
			Question:      q.Question,
			Choices:       q.Choices,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	return s.store.CreateOrAppend(ctx, courseID, userID, qs)
}

// TestsByCourse returns the course's tests as a list, empty when none exists.
func (s *Service) TestsByCourse(ctx context.Context, courseID string) ([]Test, error) {
	if _, err := s.courses.CourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	t, err := s.store.TestByCourse(ctx, courseID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return []Test{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []Test{t}, nil
}

func (s *Service) TestByID(ctx context.Context, testID string) (Test, error) {
	return s.store.TestByID(ctx, testID)
}

// DeleteQuestion removes one question from a test. Only the test creator may
// modify it.
func (s *Service) DeleteQuestion(ctx context.Context, userID, testID, questionID string) (Test, error) {
	t, err := s.store.TestByID(ctx, testID)
	if err != nil {
		return Test{}, err
	}
	if t.CreatorID != userID {
		return Test{}, apperr.Forbidden("You are not authorized to modify this test")
	}

	kept := t.Questions[:0:0]
	found := false
	for _, q := range t.Questions {
		if q.ID == questionID {
			found = true
			continue
		}
		kept = append(kept, q)
	}
	if !found {
		return Test{}, apperr.NotFound("Question not found")
	}

	if err := s.store.ReplaceQuestions(ctx, testID, kept); err != nil {
		return Test{}, err
	}
	t.Questions = kept
	return t, nil
}

// Submit grades an attempt against the test's questions and records a new
// result row. Answers for ids the test does not contain are kept, marked
// incorrect, and do not abort the submission. Selected answers must match
// the stored choice exactly, and each question counts toward the score at
// most once however many answers reference it.
func (s *Service) Submit(ctx context.Context, userID, testID string, answers []SubmittedAnswer) (Result, error) {
	t, err := s.store.TestByID(ctx, testID)
	if err != nil {
		return Result{}, err
	}
	if len(t.Questions) == 0 {
		return Result{}, apperr.InvalidState("Test has no questions")
	}

	byID := make(map[string]Question, len(t.Questions))
	for _, q := range t.Questions {
		byID[q.ID] = q
	}

	correct := 0
	scored := make(map[string]bool, len(answers))
	records := make([]AnswerRecord, 0, len(answers))
	for _, a := range answers {
		rec := AnswerRecord{QuestionID: a.QuestionID, SelectedAnswer: a.SelectedAnswer}
		if q, ok := byID[a.QuestionID]; ok && a.SelectedAnswer == q.CorrectAnswer {
			rec.IsCorrect = true
			if !scored[a.QuestionID] {
				scored[a.QuestionID] = true
				correct++
			}
		}
		records = append(records, rec)
	}

	score := float64(correct) / float64(len(t.Questions)) * 100
	r := Result{
		ID:          uuid.NewString(),
		UserID:      userID,
		CourseID:    t.CourseID,
		TestID:      t.ID,
		Score:       score,
		Passed:      score >= PassThreshold,
		Answers:     records,
		CompletedAt: time.Now().UnixMilli(),
	}
	if err := s.store.InsertResult(ctx, r); err != nil {
		return Result{}, err
	}
	return r, nil
}

// LatestResult returns the user's most recent attempt on the course. The
// bool reports whether the user has attempted the test at all.
func (s *Service) LatestResult(ctx context.Context, userID, courseID string) (Result, bool, error) {
	return s.store.LatestResult(ctx, userID, courseID)
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
