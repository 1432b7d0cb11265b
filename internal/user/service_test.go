package user_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/apperr"
	"github.com/skillforge/skillforge-lms/internal/auth"
	"github.com/skillforge/skillforge-lms/internal/db"
	"github.com/skillforge/skillforge-lms/internal/media"
	"github.com/skillforge/skillforge-lms/internal/user"
)

type fakeMedia struct {
	uploads int
	deleted []string
}

func (f *fakeMedia) Upload(ctx context.Context, localPath string, kind media.Kind) (media.Asset, error) {
	f.uploads++
	return media.Asset{URL: "https://cdn.example.com/p.png", DeleteKey: "photo-key"}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, deleteKey string, kind media.Kind) error {
	f.deleted = append(f.deleted, deleteKey)
	return nil
}

func newService(t *testing.T) (*user.Service, *sql.DB) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })

	tokens := auth.NewService("test-secret")
	svc := user.NewService(user.NewSQLStore(dbh), &fakeMedia{}, tokens, nil,
		"http://localhost:5173", false, zap.NewNop().Sugar())
	return svc, dbh
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := svc.Register(ctx, "Ada Again", "ada@example.com", "hunter22")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if err.Error() != "User already exist with this email." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRegisterRequiresAllFields(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Register(context.Background(), "Ada", "", "hunter22")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Login(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Name != "Ada" || u.Role != user.RoleStudent {
		t.Errorf("user = %+v", u)
	}

	for _, c := range []struct{ email, password string }{
		{"ada@example.com", "wrong"},
		{"nobody@example.com", "hunter22"},
	} {
		_, err := svc.Login(ctx, c.email, c.password)
		if err == nil || err.Error() != "Incorrect email or password" {
			t.Errorf("login(%s): err = %v, want uniform invalid-credential message", c.email, err)
		}
	}
}

func TestFederatedLoginLinksExistingAccount(t *testing.T) {
	svc, dbh := newService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.FederatedLogin(ctx, auth.FederatedProfile{
		Email:    "ada@example.com",
		GoogleID: "google-123",
		Name:     "Ada L",
		PhotoURL: "https://lh3.example.com/a.png",
	})
	if err != nil {
		t.Fatalf("federated login: %v", err)
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("user rows = %d; federated login must not duplicate a known email", n)
	}

	// password login still works after linking
	if _, err := svc.Login(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Errorf("password login after link: %v", err)
	}
	if u.ID == "" {
		t.Errorf("linked user id empty")
	}
}

func TestFederatedLoginCreatesNewStudent(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.FederatedLogin(context.Background(), auth.FederatedProfile{
		Email:    "new@example.com",
		GoogleID: "google-456",
		Name:     "Newcomer",
	})
	if err != nil {
		t.Fatalf("federated login: %v", err)
	}
	if u.Role != user.RoleStudent {
		t.Errorf("role = %s, want student", u.Role)
	}

	again, err := svc.FederatedLogin(context.Background(), auth.FederatedProfile{
		Email:    "new@example.com",
		GoogleID: "google-456",
	})
	if err != nil {
		t.Fatalf("second federated login: %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("second login created a different user")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.RequestPasswordReset(ctx, "nobody@example.com"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found for unknown email", err)
	}

	link, err := svc.RequestPasswordReset(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	const prefix = "http://localhost:5173/reset-password/"
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("dev link = %q", link)
	}
	token := strings.TrimPrefix(link, prefix)

	if err := svc.ResetPassword(ctx, token, "new-password"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "new-password"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "hunter22"); err == nil {
		t.Errorf("old password still accepted")
	}

	if err := svc.ResetPassword(ctx, "garbage-token", "x"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("err = %v, want validation for bad token", err)
	}
}

func TestUpdateProfileKeepsNameWhenEmpty(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	u, err := svc.Login(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := svc.UpdateProfile(ctx, u.ID, "", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("name = %q, want unchanged", got.Name)
	}

	got, err = svc.UpdateProfile(ctx, u.ID, "Ada Lovelace", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Ada Lovelace" {
		t.Errorf("name = %q", got.Name)
	}
}
