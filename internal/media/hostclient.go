package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	maxUploadBytes = 100 << 20
	maxAttempts    = 3
)

// HostClient talks to the asset host over HTTP.
//
//	POST   {base}/v1/{kind}/upload   multipart "file" -> {"url","delete_key"}
//	DELETE {base}/v1/{kind}/{key}
type HostClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.SugaredLogger

	// first retry delay; doubles per attempt
	retryDelay time.Duration
}

var _ Store = (*HostClient)(nil)

func NewHostClient(baseURL, apiKey string, log *zap.SugaredLogger) *HostClient {
	return &HostClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 2 * time.Minute},
		log:        log,
		retryDelay: time.Second,
	}
}

func (c *HostClient) Upload(ctx context.Context, localPath string, kind Kind) (Asset, error) {
	st, err := os.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Asset{}, fmt.Errorf("%w: %s", ErrNotFound, localPath)
		}
		return Asset{}, err
	}
	if st.Size() > maxUploadBytes {
		// The staging file is useless either way.
		c.removeTemp(localPath)
		return Asset{}, ErrTooLarge
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		asset, err := c.tryUpload(ctx, localPath, kind)
		if err == nil {
			c.removeTemp(localPath)
			return asset, nil
		}
		lastErr = err
		if !transient(err) {
			break
		}
		if attempt < maxAttempts {
			wait := c.retryDelay << (attempt - 1)
			c.log.Warnw("media upload retry", "path", localPath, "attempt", attempt, "wait", wait, "error", err)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = maxAttempts
			case <-time.After(wait):
			}
		}
	}

	c.removeTemp(localPath)
	return Asset{}, fmt.Errorf("%w: %v", ErrUploadFailed, lastErr)
}

func (c *HostClient) tryUpload(ctx context.Context, localPath string, kind Kind) (Asset, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return Asset{}, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(localPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/"+string(kind)+"/upload", pr)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Asset{}, &hostError{status: resp.StatusCode, body: string(body)}
	}

	var a Asset
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return Asset{}, err
	}
	if a.URL == "" {
		return Asset{}, fmt.Errorf("host returned no url")
	}
	return a, nil
}

func (c *HostClient) Delete(ctx context.Context, deleteKey string, kind Kind) error {
	if deleteKey == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/v1/"+string(kind)+"/"+url.PathEscape(deleteKey), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Gone already is fine; delete must be idempotent for callers.
	if resp.StatusCode == http.StatusNotFound || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &hostError{status: resp.StatusCode, body: string(body)}
}

func (c *HostClient) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.log.Warnw("removing staging file", "path", path, "error", err)
	}
}

type hostError struct {
	status int
	body   string
}

func (e *hostError) Error() string {
	return fmt.Sprintf("asset host returned %d: %s", e.status, e.body)
}

// transient reports whether an upload attempt is worth retrying: network
// failures and host-side errors, but not client mistakes.
func transient(err error) bool {
	var he *hostError
	if errors.As(err, &he) {
		return he.status >= 500 || he.status == http.StatusRequestTimeout || he.status == http.StatusTooManyRequests
	}
	// url.Error covers dial/reset/timeout failures from the HTTP client.
	var ue *url.Error
	return errors.As(err, &ue)
}
