package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillforge/skillforge-lms/internal/apperr"
	"github.com/skillforge/skillforge-lms/internal/auth"
	"github.com/skillforge/skillforge-lms/internal/mail"
	"github.com/skillforge/skillforge-lms/internal/media"
)

const bcryptCost = 10

type Service struct {
	store  *SQLStore
	media  media.Store
	tokens *auth.Service

	// mailer is optional; without it password reset degrades to the dev link.
	mailer mail.Mailer

	clientURL  string
	production bool
	log        *zap.SugaredLogger
}

func NewService(store *SQLStore, mediaStore media.Store, tokens *auth.Service, mailer mail.Mailer,
	clientURL string, production bool, log *zap.SugaredLogger) *Service {
	return &Service{
		store:      store,
		media:      mediaStore,
		tokens:     tokens,
		mailer:     mailer,
		clientURL:  strings.TrimSuffix(clientURL, "/"),
		production: production,
		log:        log,
	}
}

func (s *Service) Register(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return apperr.Validation("All fields are required.")
	}
	if _, err := s.store.ByEmail(ctx, email); err == nil {
		return apperr.Validation("User already exist with this email.")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleStudent,
	})
}

func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, apperr.Validation("All fields are required.")
	}
	u, err := s.store.ByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return User{}, apperr.Validation("Incorrect email or password")
		}
		return User{}, err
	}
	if u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, apperr.Validation("Incorrect email or password")
	}
	u.EnrolledCourses, err = s.store.EnrolledCourseIDs(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	u.EnrolledCourses, err = s.store.EnrolledCourseIDs(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// UpdateProfile changes the display name and optionally replaces the profile
// photo. The previous photo is deleted from the media store best-effort
// before the new one is uploaded.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, photoPath string) (User, error) {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	photoURL, photoKey := u.PhotoURL, u.PhotoKey
	if photoPath != "" {
		if u.PhotoKey != "" {
			if err := s.media.Delete(ctx, u.PhotoKey, media.KindImage); err != nil {
				s.log.Warnw("deleting old profile photo", "user", userID, "error", err)
			}
		}
		asset, err := s.media.Upload(ctx, photoPath, media.KindImage)
		if err != nil {
			return User{}, apperr.Media("Failed to upload profile photo", err)
		}
		photoURL, photoKey = asset.URL, asset.DeleteKey
	}

	if name == "" {
		name = u.Name
	}
	if err := s.store.UpdateProfile(ctx, userID, name, photoURL, photoKey); err != nil {
		return User{}, err
	}
	return s.Profile(ctx, userID)
}

// FederatedLogin finds or creates the local account for a verified Google
// identity. An email-matched account without a federated id gets linked; a
// fresh account defaults to the student role.
func (s *Service) FederatedLogin(ctx context.Context, p auth.FederatedProfile) (User, error) {
	u, err := s.store.ByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if u.GoogleID == "" {
			if err := s.store.LinkGoogle(ctx, u.ID, p.GoogleID, p.PhotoURL); err != nil {
				return User{}, err
			}
			u.GoogleID = p.GoogleID
			u.PhotoURL = p.PhotoURL
		}
		return u, nil
	case apperr.KindOf(err) == apperr.KindNotFound:
		u = User{
			ID:       uuid.NewString(),
			Name:     p.Name,
			Email:    p.Email,
			GoogleID: p.GoogleID,
			Role:     RoleStudent,
			PhotoURL: p.PhotoURL,
		}
		if err := s.store.Create(ctx, u); err != nil {
			return User{}, err
		}
		return u, nil
	default:
		return User{}, err
	}
}

// RequestPasswordReset issues a one-hour reset token. Outside production, or
// without a configured mailer, the link comes back to the caller directly
// instead of being emailed.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (devLink string, err error) {
	u, err := s.store.ByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return "", apperr.NotFound("If an account exists with this email, you will receive a password reset link.")
		}
		return "", err
	}

	tok, err := s.tokens.IssueToken(u.ID, u.Role, auth.PasswordResetTTL)
	if err != nil {
		return "", err
	}
	link := s.clientURL + "/reset-password/" + tok

	if !s.production || s.mailer == nil {
		return link, nil
	}

	msg := mail.Message{
		To:       u.Email,
		ToName:   u.Name,
		Subject:  "Password Reset - E-Learning Platform",
		TextBody: fmt.Sprintf("Hello %s,\n\nUse the link below to reset your password. It expires in 1 hour.\n\n%s\n", u.Name, link),
		HTMLBody: fmt.Sprintf(`<h1>Password Reset Request</h1><p>Hello %s,</p><p><a href=%q>Reset Password</a></p><p>This link will expire in 1 hour.</p>`, u.Name, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Errorw("sending password reset email", "error", err)
		return "", apperr.Internal("Failed to process password reset request", err)
	}
	return "", nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperr.Validation("Token and new password are required")
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return apperr.Validation("Invalid or expired reset link. Please request a new one.")
	}
	u, err := s.store.ByID(ctx, claims.Sub)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.store.SetPassword(ctx, u.ID, string(hash))
}
