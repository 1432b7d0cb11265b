package main

import (
	"context"
	"log"
	"time"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/skillforge/skillforge-lms/internal/api/http"
	"github.com/skillforge/skillforge-lms/internal/auth"
	"github.com/skillforge/skillforge-lms/internal/config"
	"github.com/skillforge/skillforge-lms/internal/course"
	"github.com/skillforge/skillforge-lms/internal/db"
	"github.com/skillforge/skillforge-lms/internal/logging"
	"github.com/skillforge/skillforge-lms/internal/mail"
	"github.com/skillforge/skillforge-lms/internal/media"
	"github.com/skillforge/skillforge-lms/internal/quiz"
	"github.com/skillforge/skillforge-lms/internal/upload"
	"github.com/skillforge/skillforge-lms/internal/user"
)

func main() {
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.Production())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Fatalw("db open failed", "error", err)
	}

	// --- Collaborators ---
	assets := media.NewHostClient(cfg.MediaBaseURL, cfg.MediaAPIKey, logger)

	staging, err := upload.NewStaging(cfg.UploadTempDir)
	if err != nil {
		logger.Fatalw("upload staging", "error", err)
	}

	var mailer mail.Mailer
	if cfg.SendgridAPIKey != "" {
		mailer = mail.NewSendgridMailer(cfg.SendgridAPIKey, "E-Learning Platform", cfg.FromEmail)
	}

	// --- Services ---
	tokens := auth.NewService(cfg.JWTSecret)

	userStore := user.NewSQLStore(dbh)
	users := user.NewService(userStore, assets, tokens, mailer, cfg.ClientURL, cfg.Production(), logger)

	courseStore := course.NewSQLStore(dbh)
	courses := course.NewService(courseStore, assets, logger)

	quizzes := quiz.NewService(quiz.NewSQLStore(dbh), courseStore)

	federated := func(ctx context.Context, p auth.FederatedProfile) (string, string, error) {
		u, err := users.FederatedLogin(ctx, p)
		if err != nil {
			return "", "", err
		}
		return u.ID, u.Role, nil
	}

	secure := cfg.Production()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public user routes
	r.Post("/api/user/register", api.RegisterHandler(users, logger))
	r.Post("/api/user/login", api.LoginHandler(users, tokens, secure, logger))
	r.Get("/api/user/logout", api.LogoutHandler(secure))
	r.Post("/api/user/password-reset/request", api.ForgotPasswordHandler(users, logger))
	r.Post("/api/user/password-reset/reset", api.ResetPasswordHandler(users, logger))

	// Google OAuth
	r.Get("/auth/google", auth.GoogleLoginHandler(cfg))
	r.Get("/auth/google/callback", auth.GoogleCallbackHandler(cfg, tokens, federated, logger))

	// Public course discovery
	r.Get("/api/course/search", api.SearchCoursesHandler(courses, logger))
	r.Get("/api/course/published-courses", api.PublishedCoursesHandler(courses, logger))

	// Protected API
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(tokens))

		pr.Get("/api/user/profile", api.ProfileHandler(users, logger))
		pr.Put("/api/user/profile/update", api.UpdateProfileHandler(users, staging, logger))

		pr.Post("/api/course", api.CreateCourseHandler(courses, staging, logger))
		pr.Get("/api/course", api.CreatorCoursesHandler(courses, logger))
		pr.Get("/api/course/{courseId}", api.GetCourseHandler(courses, logger))
		pr.Put("/api/course/{courseId}", api.EditCourseHandler(courses, staging, logger))
		pr.Patch("/api/course/{courseId}", api.TogglePublishHandler(courses, logger))
		pr.Delete("/api/course/{courseId}", api.DeleteCourseHandler(courses, logger))
		pr.Post("/api/course/{courseId}/enroll", api.EnrollHandler(courses, logger))

		pr.Post("/api/course/{courseId}/lecture", api.CreateLectureHandler(courses, staging, logger))
		pr.Get("/api/course/{courseId}/lecture", api.ListLecturesHandler(courses, logger))
		pr.Post("/api/course/{courseId}/lecture/{lectureId}", api.EditLectureHandler(courses, staging, logger))
		pr.Get("/api/course/lecture/{lectureId}", api.GetLectureHandler(courses, logger))
		pr.Delete("/api/course/lecture/{lectureId}", api.DeleteLectureHandler(courses, logger))

		pr.Post("/api/test/create", api.CreateTestHandler(quizzes, logger))
		pr.Get("/api/test/course/{courseId}", api.TestsByCourseHandler(quizzes, logger))
		pr.Get("/api/test/result/{courseId}", api.LatestResultHandler(quizzes, logger))
		pr.Get("/api/test/{id}", api.GetTestHandler(quizzes, logger))
		pr.Delete("/api/test/{testId}/question/{questionId}", api.DeleteQuestionHandler(quizzes, logger))
		pr.Post("/api/test/submit", api.SubmitTestHandler(quizzes, logger))
	})

	r.Get("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(503)
			return
		}
		w.WriteHeader(200)
	})

	logger.Infow("listening", "addr", cfg.HTTPAddr, "env", cfg.Env, "db", cfg.DBDriver)
	logger.Fatal(nethttp.ListenAndServe(cfg.HTTPAddr, r))
}
