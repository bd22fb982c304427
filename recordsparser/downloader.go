// Package recordsparser loads the upstream prescription export and turns it
// into entities.Prescription values.
package recordsparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/giygas/prescriptions-api/logging"
	"golang.org/x/text/encoding/charmap"
)

const maxExportSize = 256 << 20

// fetch returns the raw export at location, which is either a local path or
// an http(s) URL.
func fetch(ctx context.Context, client *http.Client, location string) ([]byte, error) {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return download(ctx, client, u.String())
	}

	cleanPath := filepath.Clean(location)
	// #nosec G304 -- path comes from operator configuration
	body, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cleanPath, err)
	}
	return body, nil
}

func download(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	start := time.Now()
	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %d", rawURL, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxExportSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logging.Debug("Export downloaded", "url", rawURL, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

// decode returns a UTF-8 reader over body. Exports that are not valid UTF-8
// come from the legacy system and are Windows-1252.
func decode(body []byte) io.Reader {
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	return charmap.Windows1252.NewDecoder().Reader(bytes.NewReader(body))
}
