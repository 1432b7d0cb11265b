package http

import (
	"os"
	"strconv"
	"strings"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/apperr"
	"github.com/skillforge/skillforge-lms/internal/auth"
	"github.com/skillforge/skillforge-lms/internal/course"
	"github.com/skillforge/skillforge-lms/internal/upload"
)

// courseForm is accepted as JSON or as multipart form values; the multipart
// shape additionally carries the courseThumbnail file.
type courseForm struct {
	Title       string `json:"courseTitle"`
	Subtitle    string `json:"subTitle"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Level       string `json:"courseLevel"`
	Price       string `json:"coursePrice"`
}

func (f courseForm) input() (course.CourseInput, error) {
	in := course.CourseInput{
		Title:       f.Title,
		Subtitle:    f.Subtitle,
		Description: f.Description,
		Category:    f.Category,
		Level:       f.Level,
	}
	if f.Price != "" {
		p, err := strconv.ParseFloat(f.Price, 64)
		if err != nil || p < 0 {
			return course.CourseInput{}, apperr.Validation("Invalid course price")
		}
		in.Price = &p
	}
	return in, nil
}

// courseRequest decodes the body and stages the thumbnail when the request
// is multipart. thumbPath is "" when no file was sent.
func courseRequest(r *nethttp.Request, staging *upload.Staging) (course.CourseInput, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		thumbPath, err := staging.Save(r, "courseThumbnail")
		if err != nil {
			return course.CourseInput{}, "", err
		}
		f := courseForm{
			Title:       r.FormValue("courseTitle"),
			Subtitle:    r.FormValue("subTitle"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Level:       r.FormValue("courseLevel"),
			Price:       r.FormValue("coursePrice"),
		}
		in, err := f.input()
		if err != nil {
			if thumbPath != "" {
				_ = os.Remove(thumbPath)
			}
			return course.CourseInput{}, "", err
		}
		return in, thumbPath, nil
	}

	var f courseForm
	if err := decodeJSON(r, &f); err != nil {
		return course.CourseInput{}, "", err
	}
	in, err := f.input()
	return in, "", err
}

func CreateCourseHandler(courses *course.Service, staging *upload.Staging, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		in, thumbPath, err := courseRequest(r, staging)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		c, err := courses.CreateCourse(r.Context(), auth.SubjectFromContext(r.Context()), in, thumbPath)
		if err != nil {
			if thumbPath != "" {
				_ = os.Remove(thumbPath)
			}
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusCreated, "Course created successfully.", map[string]any{"course": c})
	}
}

func CreatorCoursesHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		list, err := courses.CreatorCourses(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"courses": list})
	}
}

func PublishedCoursesHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		list, err := courses.PublishedCourses(r.Context())
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"courses": list})
	}
}

func SearchCoursesHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		var categories []string
		for _, raw := range q["categories"] {
			for _, c := range strings.Split(raw, ",") {
				if c = strings.TrimSpace(c); c != "" {
					categories = append(categories, c)
				}
			}
		}
		list, err := courses.Search(r.Context(), q.Get("query"), categories, q.Get("sortByPrice"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"courses": list})
	}
}

func GetCourseHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		c, err := courses.CourseByID(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"course": c})
	}
}

func EditCourseHandler(courses *course.Service, staging *upload.Staging, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		in, thumbPath, err := courseRequest(r, staging)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		c, err := courses.EditCourse(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "courseId"), in, thumbPath)
		if err != nil {
			if thumbPath != "" {
				_ = os.Remove(thumbPath)
			}
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Course updated successfully.", map[string]any{"course": c})
	}
}

func TogglePublishHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		publish, err := strconv.ParseBool(r.URL.Query().Get("publish"))
		if err != nil {
			respondErr(w, log, apperr.Validation("publish query parameter must be true or false"))
			return
		}
		c, err := courses.TogglePublish(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "courseId"), publish)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		msg := "Course is unpublished"
		if publish {
			msg = "Course is published"
		}
		respond(w, nethttp.StatusOK, msg, map[string]any{"course": c})
	}
}

func DeleteCourseHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		err := courses.RemoveCourse(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "courseId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Course deleted successfully.", nil)
	}
}

func EnrollHandler(courses *course.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		err := courses.Enroll(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "courseId"))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Enrolled successfully.", nil)
	}
}
