package http

import (
	"os"
	"strconv"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/auth"
	"github.com/skillforge/skillforge-lms/internal/course"
	"github.com/skillforge/skillforge-lms/internal/upload"
)

// lectureRequest stages whichever content file the multipart form carries
// and collects the form fields. Both paths come back "" when absent.
func lectureRequest(r *nethttp.Request, staging *upload.Staging) (course.LectureInput, course.LectureFiles, error) {
	var files course.LectureFiles
	var err error

	if files.VideoPath, err = staging.Save(r, "video"); err != nil {
		return course.LectureInput{}, course.LectureFiles{}, err
	}
	if files.PDFPath, err = staging.Save(r, "pdf"); err != nil {
		discardStaged(files)
		return course.LectureInput{}, course.LectureFiles{}, err
	}

	in := course.LectureInput{
		Title:       r.FormValue("lectureTitle"),
		Description: r.FormValue("description"),
		ContentType: r.FormValue("contentType"),
		TextContent: r.FormValue("textContent"),
	}
	if v := r.FormValue("isPreviewFree"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			in.IsPreviewFree = &b
		}
	}
	return in, files, nil
}

func discardStaged(files course.LectureFiles) {
	if files.VideoPath != "" {
		_ = os.Remove(files.VideoPath)
	}
	if files.PDFPath != "" {
		_ = os.Remove(files.PDFPath)
	}
}

func CreateLectureHandler(courses *course.Service, staging *upload.Staging, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		in, files, err := lectureRequest(r, staging)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		l, err := courses.CreateLecture(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "courseId"), in, files)
		if err != nil {
			discardStaged(files)
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusCreated, "Lecture created successfully.", map[string]any{"lecture": l})
	}
}

func ListLecturesHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		list, err := courses.Lectures(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"lectures": list})
	}
}

func GetLectureHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		l, err := courses.LectureByID(r.Context(), chi.URLParam(r, "lectureId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"lecture": l})
	}
}

func EditLectureHandler(courses *course.Service, staging *upload.Staging, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		in, files, err := lectureRequest(r, staging)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		l, err := courses.EditLecture(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "lectureId"), in, files)
		if err != nil {
			discardStaged(files)
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Lecture updated successfully.", map[string]any{"lecture": l})
	}
}

func DeleteLectureHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		err := courses.RemoveLecture(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "lectureId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Lecture removed successfully.", nil)
	}
}
