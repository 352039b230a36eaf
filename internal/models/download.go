package models

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrDigestMismatch is returned when a downloaded file does not match the
// expected digest.
var ErrDigestMismatch = errors.New("models: digest mismatch")

// Output receives progress lines; tests silence it.
var Output io.Writer = os.Stdout

// Download fetches rawURL into destDir, named after the last URL path
// element, and returns the file path. When wantDigest (hex BLAKE2b-256)
// is set the download is verified before it replaces anything; an
// existing file with a matching digest is kept without downloading.
func Download(ctx context.Context, rawURL, destDir, wantDigest string) (string, error) {
	name, err := fileName(rawURL)
	if err != nil {
		return "", err
	}
	wantDigest = strings.ToLower(wantDigest)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("creating models dir: %w", err)
	}
	destPath := filepath.Join(destDir, name)

	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		if wantDigest == "" {
			fmt.Fprintf(Output, "  Model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
			return destPath, nil
		}
		if got, err := fileDigest(destPath); err == nil && got == wantDigest {
			fmt.Fprintf(Output, "  Model already exists and matches digest: %s\n", destPath)
			return destPath, nil
		}
		fmt.Fprintf(Output, "  Existing model does not match digest, downloading again\n")
	}

	fmt.Fprintf(Output, "  Downloading model...\n")
	fmt.Fprintf(Output, "  URL: %s\n", rawURL)
	fmt.Fprintf(Output, "  Destination: %s\n", destPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("models: build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	h := newHash()
	pr := &progressWriter{
		writer: io.MultiWriter(f, h),
		total:  resp.ContentLength,
		label:  name,
	}

	written, err := io.Copy(pr, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing model file: %w", err)
	}
	fmt.Fprintf(Output, "\n  Downloaded %.1f MB\n", float64(written)/(1024*1024))

	got := hex.EncodeToString(h.Sum(nil))
	if wantDigest != "" && got != wantDigest {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %s has %s, want %s", ErrDigestMismatch, name, got, wantDigest)
	}
	fmt.Fprintf(Output, "  BLAKE2b-256: %s\n", got)

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("moving model file: %w", err)
	}
	return destPath, nil
}

func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("models: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("models: unsupported url scheme %q", u.Scheme)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("models: url %q has no file name", rawURL)
	}
	return name, nil
}

func newHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for keys longer than 64 bytes.
		panic(err)
	}
	return h
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// progressWriter wraps an io.Writer and prints download progress.
type progressWriter struct {
	writer  io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Fprintf(Output, "\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Fprintf(Output, "\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}
