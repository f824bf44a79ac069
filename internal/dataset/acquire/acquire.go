// Package acquire makes sure the review archive is present on disk and
// unpacked. Presence of the target path is the only idempotence guard; no
// checksum is verified.
package acquire

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
)

// Result reports what Acquire had to do.
type Result struct {
	Downloaded      bool
	Extracted       bool
	DownloadedBytes int64
	Root            string
}

// Acquirer downloads and unpacks the dataset archive.
type Acquirer struct {
	client *http.Client
	logger *slog.Logger
}

// New creates an Acquirer. A nil client means http.DefaultClient.
func New(client *http.Client) *Acquirer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Acquirer{
		client: client,
		logger: slog.Default().With("component", "acquire"),
	}
}

// Acquire downloads cfg.URL to cfg.ArchivePath() unless that file exists,
// then extracts it into cfg.WorkDir unless cfg.Root() exists.
func (a *Acquirer) Acquire(ctx context.Context, cfg config.DatasetConfig) (Result, error) {
	res := Result{Root: cfg.Root()}
	archive := cfg.ArchivePath()

	if !exists(archive) {
		a.logger.Info("downloading dataset", "url", cfg.URL, "file", archive)
		n, err := a.download(ctx, cfg.URL, archive)
		if err != nil {
			return res, err
		}
		res.Downloaded = true
		res.DownloadedBytes = n
		a.logger.Info("download complete", "bytes", n)
	} else {
		a.logger.Debug("archive present, skipping download", "file", archive)
	}

	if !exists(res.Root) {
		a.logger.Info("extracting dataset", "file", archive, "dir", res.Root)
		if err := extract(archive, cfg.WorkDir, cfg.ExtractDir); err != nil {
			return res, err
		}
		res.Extracted = true
		a.logger.Info("extraction complete", "dir", res.Root)
	} else {
		a.logger.Debug("dataset directory present, skipping extraction", "dir", res.Root)
	}
	return res, nil
}

// download streams url into path through a temporary file so that an
// interrupted transfer never leaves a file under the final name.
func (a *Acquirer) download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrDownload, "building request for %s: %v", url, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, apperrors.Newf(apperrors.ErrDownload, "GET %s: unexpected status %s", url, resp.Status)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating download directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", tmp, err)
	}
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return n, fmt.Errorf("%w: writing %s: %w", apperrors.ErrDownload, tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return n, fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return n, nil
}

// extract unpacks the gzip-compressed tarball at archive into a staging
// directory under workDir and moves want (the top-level directory of the
// archive) into place once every entry is written.
func extract(archive, workDir, want string) error {
	if workDir == "" {
		workDir = "."
	}
	staging, err := os.MkdirTemp(workDir, ".extract-")
	if err != nil {
		return fmt.Errorf("%w: creating staging directory: %w", apperrors.ErrExtract, err)
	}
	defer os.RemoveAll(staging)

	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrExtract, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: opening gzip stream: %w", apperrors.ErrExtract, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: reading tar entry: %w", apperrors.ErrExtract, err)
		}
		target, err := safeJoin(staging, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: %w", apperrors.ErrExtract, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return fmt.Errorf("%w: %w", apperrors.ErrExtract, err)
			}
		default:
			// links and devices are not part of the dataset
		}
	}

	src := filepath.Join(staging, want)
	if !exists(src) {
		return apperrors.Newf(apperrors.ErrExtract, "archive %s has no %s directory", archive, want)
	}
	if err := os.Rename(src, filepath.Join(workDir, want)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrExtract, err)
	}
	return nil
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.Newf(apperrors.ErrExtract, "entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
