// Package upload stages multipart file uploads on local disk before they are
// handed to the media store. MIME validation is per field name, mirroring
// what the asset host will accept for each resource class.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillforge/skillforge-lms/internal/apperr"
)

// MaxFileBytes matches the asset host's per-file ceiling.
const MaxFileBytes = 100 << 20

// parse at most ~10 MB into memory; larger parts spill to disk
const parseMemory = 10 << 20

var videoTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true, // .mov
	"video/x-msvideo": true, // .avi
	"video/x-ms-wmv":  true, // .wmv
}

type Staging struct {
	dir string
}

func NewStaging(dir string) (*Staging, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Staging{dir: dir}, nil
}

// Save pulls one file out of the request's multipart form, validates it for
// the given field and writes it into the staging dir. A missing file is not
// an error; callers decide whether the field was required.
func (s *Staging) Save(r *http.Request, field string) (string, error) {
	if err := ensureParsed(r); err != nil {
		return "", err
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", apperr.Validation("invalid upload for field " + field)
	}
	defer f.Close()

	if hdr.Size > MaxFileBytes {
		return "", apperr.Validation("File is too large. Maximum size is 100MB")
	}
	if err := checkType(field, hdr); err != nil {
		return "", err
	}

	dst, err := os.CreateTemp(s.dir, field+"-*"+filepath.Ext(hdr.Filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(f, MaxFileBytes+1)); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func ensureParsed(r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return apperr.Validation("multipart form expected")
	}
	if err := r.ParseMultipartForm(parseMemory); err != nil {
		return apperr.Validation("malformed multipart form")
	}
	return nil
}

func checkType(field string, hdr *multipart.FileHeader) error {
	ct := hdr.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch field {
	case "video":
		if !videoTypes[ct] {
			return apperr.Validation(fmt.Sprintf(
				"Unsupported video format. Supported formats: MP4, WebM, MOV, AVI, WMV. Received: %s", ct))
		}
	case "pdf":
		if ct != "application/pdf" {
			return apperr.Validation("Invalid file type. Only PDF files are allowed.")
		}
	case "courseThumbnail", "profilePhoto":
		if !strings.HasPrefix(ct, "image/") {
			return apperr.Validation("Invalid file type. Only image files are allowed for thumbnails.")
		}
	default:
		return apperr.Validation("Invalid field name for file upload.")
	}
	return nil
}
