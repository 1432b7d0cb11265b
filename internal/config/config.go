package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Env string

const (
	EnvDev        Env = "dev"
	EnvProduction Env = "production"
)

type Config struct {
	Env       Env
	HTTPAddr  string
	PublicURL string
	ClientURL string // SPA base, used for OAuth redirects and reset links

	DBDriver string
	DBDSN    string

	JWTSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Remote asset host (video/raw/image resource classes).
	MediaBaseURL string
	MediaAPIKey  string

	// Staging dir for multipart uploads before they go to the media host.
	UploadTempDir string

	SendgridAPIKey string
	FromEmail      string

	CORSOrigins []string
}

func FromEnv() Config {
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	env := Env(envOr("ENV", string(EnvDev)))
	pub := os.Getenv("PUBLIC_URL")

	return Config{
		Env:       env,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: pub,
		ClientURL: envOr("CLIENT_URL", "http://localhost:5173"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		JWTSecret: envOr("JWT_SECRET", "supersecret-dev-key"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  envOr("GOOGLE_REDIRECT_URI", strings.TrimSuffix(pub, "/")+"/auth/google/callback"),

		MediaBaseURL: envOr("MEDIA_BASE_URL", "http://localhost:9000"),
		MediaAPIKey:  os.Getenv("MEDIA_API_KEY"),

		UploadTempDir: envOr("UPLOAD_TEMP_DIR", "uploads"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromEmail:      envOr("FROM_EMAIL", "noreply@localhost"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
	}
}

func (c Config) Production() bool { return c.Env == EnvProduction }

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
