package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/version"
)

const (
	downloadRetries = 3
	// installerFileMode keeps the installer readable and executable for bash.
	installerFileMode os.FileMode = 0o755
)

// errBadHTTPStatus is returned for any response other than 200 OK.
var errBadHTTPStatus = errors.New("unexpected http status")

// HTTPDownloader downloads files with retries on transient failures.
type HTTPDownloader struct {
	// retries is the maximum number of retries after the first attempt.
	retries int
}

// NewHTTPDownloader creates a downloader with the default retry budget.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{retries: downloadRetries}
}

// Download writes url to dest through a temporary file in the same directory,
// so an interrupted download never leaves a truncated installer behind.
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) error {
	client := retryablehttp.NewClient()
	client.RetryMax = d.retries
	client.Logger = retryLogger{logger.FromContext(ctx)}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	written, err := io.Copy(tmp, response.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmpName, installerFileMode)
	}

	if err == nil {
		err = os.Rename(tmpName, dest)
	}

	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("save %s: %w", dest, err)
	}

	logger.InfoKV(ctx, "Downloaded file", "path", dest, "size", humanize.Bytes(uint64(written))) //nolint:gosec // io.Copy never returns a negative count.

	return nil
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	l *zap.SugaredLogger
}

func (r retryLogger) Error(msg string, kvs ...any) { r.l.Errorw(msg, kvs...) }
func (r retryLogger) Info(msg string, kvs ...any)  { r.l.Debugw(msg, kvs...) }
func (r retryLogger) Debug(msg string, kvs ...any) { r.l.Debugw(msg, kvs...) }
func (r retryLogger) Warn(msg string, kvs ...any)  { r.l.Warnw(msg, kvs...) }
