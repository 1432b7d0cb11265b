package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/auth"
	"github.com/skillforge/skillforge-lms/internal/quiz"
)

func CreateTestHandler(quizzes *quiz.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			CourseID  string               `json:"courseId"`
			Questions []quiz.QuestionInput `json:"questions"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, log, err)
			return
		}
		t, err := quizzes.CreateOrAppend(r.Context(), auth.SubjectFromContext(r.Context()),
			req.CourseID, req.Questions)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusCreated, "Test questions added successfully.", map[string]any{"test": t})
	}
}

func TestsByCourseHandler(quizzes *quiz.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		tests, err := quizzes.TestsByCourse(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"tests": tests})
	}
}

func GetTestHandler(quizzes *quiz.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t, err := quizzes.TestByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"test": t})
	}
}

func DeleteQuestionHandler(quizzes *quiz.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t, err := quizzes.DeleteQuestion(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "testId"), chi.URLParam(r, "questionId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Question deleted successfully.", map[string]any{"test": t})
	}
}

func SubmitTestHandler(quizzes *quiz.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			TestID  string                 `json:"testId"`
			Answers []quiz.SubmittedAnswer `json:"answers"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, log, err)
			return
		}
		res, err := quizzes.Submit(r.Context(), auth.SubjectFromContext(r.Context()),
			req.TestID, req.Answers)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Test submitted successfully.", map[string]any{"result": res})
	}
}

func LatestResultHandler(quizzes *quiz.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		res, attempted, err := quizzes.LatestResult(r.Context(),
			auth.SubjectFromContext(r.Context()), chi.URLParam(r, "courseId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		extra := map[string]any{"attempted": attempted}
		if attempted {
			extra["result"] = res
		}
		respond(w, nethttp.StatusOK, "", extra)
	}
}
