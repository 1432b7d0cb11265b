package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/config"
)

// FederatedProfile is the verified identity delivered by Google.
type FederatedProfile struct {
	Email    string
	GoogleID string
	Name     string
	PhotoURL string
}

// FederatedLoginFunc maps a federated identity to a local account,
// creating or linking one as needed.
type FederatedLoginFunc func(ctx context.Context, p FederatedProfile) (userID, role string, err error)

const stateCookie = "oauth_state"

func oauthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleLoginHandler starts the OAuth dance. The random state is persisted in
// a short-lived cookie and checked at the callback.
func GoogleLoginHandler(cfg config.Config) http.HandlerFunc {
	oc := oauthConfig(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   cfg.Production(),
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})
		http.Redirect(w, r, oc.AuthCodeURL(state), http.StatusFound)
	}
}

// GoogleCallbackHandler exchanges the code, fetches the verified profile,
// find-or-creates the local user and sets the session cookie. Browser flows
// end in a redirect, so failures go to the client's failure page rather than
// a JSON error.
func GoogleCallbackHandler(cfg config.Config, s *Service, login FederatedLoginFunc, log *zap.SugaredLogger) http.HandlerFunc {
	oc := oauthConfig(cfg)
	failureURL := strings.TrimSuffix(cfg.ClientURL, "/") + "/auth/failure"
	successURL := strings.TrimSuffix(cfg.ClientURL, "/") + "/auth/success"

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(stateCookie)
		if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
			log.Warnw("google callback: state mismatch")
			http.Redirect(w, r, failureURL, http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Redirect(w, r, failureURL, http.StatusFound)
			return
		}

		tok, err := oc.Exchange(r.Context(), code)
		if err != nil {
			log.Errorw("google callback: code exchange", "error", err)
			http.Redirect(w, r, failureURL, http.StatusFound)
			return
		}

		profile, err := fetchProfile(r.Context(), oc, tok)
		if err != nil {
			log.Errorw("google callback: userinfo", "error", err)
			http.Redirect(w, r, failureURL, http.StatusFound)
			return
		}

		userID, role, err := login(r.Context(), profile)
		if err != nil {
			log.Errorw("google callback: federated login", "error", err)
			http.Redirect(w, r, failureURL, http.StatusFound)
			return
		}

		jwtTok, err := s.IssueToken(userID, role, FederatedLoginTTL)
		if err != nil {
			log.Errorw("google callback: issue token", "error", err)
			http.Redirect(w, r, failureURL, http.StatusFound)
			return
		}
		SetTokenCookie(w, jwtTok, FederatedLoginTTL, cfg.Production())
		http.Redirect(w, r, successURL, http.StatusFound)
	}
}

func fetchProfile(ctx context.Context, oc *oauth2.Config, tok *oauth2.Token) (FederatedProfile, error) {
	resp, err := oc.Client(ctx, tok).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return FederatedProfile{}, err
	}
	defer resp.Body.Close()

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return FederatedProfile{}, err
	}
	return FederatedProfile{
		Email:    info.Email,
		GoogleID: info.ID,
		Name:     info.Name,
		PhotoURL: info.Picture,
	}, nil
}
