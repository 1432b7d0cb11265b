package upload_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/skillforge/skillforge-lms/internal/apperr"
	"github.com/skillforge/skillforge-lms/internal/upload"
)

func multipartRequest(t *testing.T, field, filename, contentType, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newStaging(t *testing.T) *upload.Staging {
	t.Helper()
	s, err := upload.NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("staging: %v", err)
	}
	return s
}

func TestSaveVideo(t *testing.T) {
	s := newStaging(t)
	req := multipartRequest(t, "video", "lesson.mp4", "video/mp4", "mp4-bytes")

	path, err := s.Save(req, "video")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(got) != "mp4-bytes" {
		t.Errorf("staged content = %q", got)
	}
}

func TestSaveMissingFileIsNotAnError(t *testing.T) {
	s := newStaging(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", "Ada"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	mw.Close()
	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	path, err := s.Save(req, "profilePhoto")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty for absent file", path)
	}
}

func TestSaveRejectsWrongMIME(t *testing.T) {
	s := newStaging(t)

	cases := []struct {
		field, filename, contentType string
		wantMsg                      string
	}{
		{"video", "lesson.gif", "image/gif", "Unsupported video format"},
		{"pdf", "notes.txt", "text/plain", "Only PDF files are allowed"},
		{"courseThumbnail", "thumb.pdf", "application/pdf", "Only image files are allowed"},
		{"profilePhoto", "me.mp4", "video/mp4", "Only image files are allowed"},
		{"attachment", "x.bin", "application/octet-stream", "Invalid field name"},
	}
	for _, c := range cases {
		req := multipartRequest(t, c.field, c.filename, c.contentType, "data")
		_, err := s.Save(req, c.field)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%s: err = %v, want validation", c.field, err)
			continue
		}
		if !strings.Contains(err.Error(), c.wantMsg) {
			t.Errorf("%s: message = %q, want it to contain %q", c.field, err.Error(), c.wantMsg)
		}
	}
}

func TestSaveRequiresMultipart(t *testing.T) {
	s := newStaging(t)
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set("Content-Type", "application/json")

	if _, err := s.Save(req, "profilePhoto"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}
