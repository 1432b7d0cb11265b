package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testClient(t *testing.T, baseURL string) *HostClient {
	t.Helper()
	c := NewHostClient(baseURL, "test-key", zap.NewNop().Sugar())
	c.retryDelay = time.Millisecond
	return c
}

func stageFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video-abc.mp4")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write staging file: %v", err)
	}
	return path
}

func TestUploadSuccess(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Write([]byte(`{"url":"https://cdn.example.com/v.mp4","delete_key":"k1"}`))
	}))
	defer srv.Close()

	path := stageFile(t, "mp4-bytes")
	asset, err := testClient(t, srv.URL).Upload(context.Background(), path, KindVideo)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.URL != "https://cdn.example.com/v.mp4" || asset.DeleteKey != "k1" {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if gotPath != "/v1/video/upload" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("staging file not removed after success")
	}
}

func TestUploadRetriesTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"url":"https://cdn.example.com/v.mp4","delete_key":"k1"}`))
	}))
	defer srv.Close()

	path := stageFile(t, "mp4-bytes")
	if _, err := testClient(t, srv.URL).Upload(context.Background(), path, KindVideo); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestUploadGivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := stageFile(t, "mp4-bytes")
	_, err := testClient(t, srv.URL).Upload(context.Background(), path, KindVideo)
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("staging file not removed after terminal failure")
	}
}

func TestUploadDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	path := stageFile(t, "mp4-bytes")
	_, err := testClient(t, srv.URL).Upload(context.Background(), path, KindVideo)
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestUploadMissingFile(t *testing.T) {
	c := testClient(t, "http://127.0.0.1:0")
	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), KindVideo)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteGoneIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if err := testClient(t, srv.URL).Delete(context.Background(), "k1", KindImage); err != nil {
		t.Fatalf("delete of missing asset should be nil, got %v", err)
	}
}

func TestDeleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := testClient(t, srv.URL).Delete(context.Background(), "k1", KindImage); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestDeleteEscapesKey(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
	}))
	defer srv.Close()

	if err := testClient(t, srv.URL).Delete(context.Background(), "folder/key 1", KindRaw); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotPath != "/v1/raw/folder%2Fkey%201" {
		t.Errorf("path = %q", gotPath)
	}
}
