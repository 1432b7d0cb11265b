package http

import (
	"os"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/auth"
	"github.com/skillforge/skillforge-lms/internal/upload"
	"github.com/skillforge/skillforge-lms/internal/user"
)

func RegisterHandler(users *user.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, log, err)
			return
		}
		if err := users.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusCreated, "Account created successfully.", nil)
	}
}

func LoginHandler(users *user.Service, tokens *auth.Service, secure bool, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, log, err)
			return
		}
		u, err := users.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		tok, err := tokens.IssueToken(u.ID, u.Role, auth.PasswordLoginTTL)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		auth.SetTokenCookie(w, tok, auth.PasswordLoginTTL, secure)
		respond(w, nethttp.StatusOK, "Welcome back "+u.Name, map[string]any{"user": u})
	}
}

func LogoutHandler(secure bool) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		auth.ClearTokenCookie(w, secure)
		respond(w, nethttp.StatusOK, "Logged out successfully.", nil)
	}
}

func ProfileHandler(users *user.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		u, err := users.Profile(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "", map[string]any{"user": u})
	}
}

func UpdateProfileHandler(users *user.Service, staging *upload.Staging, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		photoPath, err := staging.Save(r, "profilePhoto")
		if err != nil {
			respondErr(w, log, err)
			return
		}
		name := r.FormValue("name")
		u, err := users.UpdateProfile(r.Context(), auth.SubjectFromContext(r.Context()), name, photoPath)
		if err != nil {
			if photoPath != "" {
				_ = os.Remove(photoPath)
			}
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Profile updated successfully.", map[string]any{"user": u})
	}
}

func ForgotPasswordHandler(users *user.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, log, err)
			return
		}
		devLink, err := users.RequestPasswordReset(r.Context(), req.Email)
		if err != nil {
			respondErr(w, log, err)
			return
		}
		extra := map[string]any{}
		if devLink != "" {
			extra["resetLink"] = devLink
		}
		respond(w, nethttp.StatusOK, "Password reset link sent to your email", extra)
	}
}

func ResetPasswordHandler(users *user.Service, log *zap.SugaredLogger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Token       string `json:"token"`
			NewPassword string `json:"newPassword"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, log, err)
			return
		}
		if err := users.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
			respondErr(w, log, err)
			return
		}
		respond(w, nethttp.StatusOK, "Password has been reset successfully.", nil)
	}
}
