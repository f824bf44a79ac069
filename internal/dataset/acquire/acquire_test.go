package acquire

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
)

type entry struct {
	name string
	body string
	dir  bool
}

func buildArchive(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func imdbEntries() []entry {
	return []entry{
		{name: "aclImdb/", dir: true},
		{name: "aclImdb/train/pos/0_9.txt", body: "great movie"},
		{name: "aclImdb/train/neg/1_2.txt", body: "terrible film"},
		{name: "aclImdb/test/pos/2_8.txt", body: "loved it"},
		{name: "aclImdb/test/neg/3_1.txt", body: "hated it"},
	}
}

func serve(t *testing.T, payload []byte, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func datasetConfig(url, dir string) config.DatasetConfig {
	return config.DatasetConfig{
		URL:        url,
		Archive:    "aclImdb_v1.tar.gz",
		WorkDir:    dir,
		ExtractDir: "aclImdb",
	}
}

func TestAcquireDownloadsAndExtracts(t *testing.T) {
	var hits atomic.Int32
	payload := buildArchive(t, imdbEntries())
	srv := serve(t, payload, &hits)
	dir := t.TempDir()
	cfg := datasetConfig(srv.URL+"/aclImdb_v1.tar.gz", dir)

	res, err := New(srv.Client()).Acquire(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !res.Downloaded || !res.Extracted {
		t.Errorf("result = %+v", res)
	}
	if res.DownloadedBytes != int64(len(payload)) {
		t.Errorf("DownloadedBytes = %d, want %d", res.DownloadedBytes, len(payload))
	}
	body, err := os.ReadFile(filepath.Join(dir, "aclImdb", "test", "neg", "3_1.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hated it" {
		t.Errorf("extracted body = %q", body)
	}
	if _, err := os.Stat(filepath.Join(dir, "aclImdb_v1.tar.gz.tmp")); !os.IsNotExist(err) {
		t.Error("temporary download file left behind")
	}
}

func TestAcquireIsIdempotent(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, buildArchive(t, imdbEntries()), &hits)
	dir := t.TempDir()
	cfg := datasetConfig(srv.URL, dir)
	a := New(srv.Client())

	if _, err := a.Acquire(context.Background(), cfg); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	marker := filepath.Join(dir, "aclImdb", "train", "pos", "0_9.txt")
	before, err := os.Stat(marker)
	if err != nil {
		t.Fatal(err)
	}

	res, err := a.Acquire(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if res.Downloaded || res.Extracted {
		t.Errorf("second call did work: %+v", res)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
	after, err := os.Stat(marker)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("extracted file was rewritten")
	}
}

func TestAcquireTrustsExistingArchive(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, nil, &hits)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aclImdb_v1.tar.gz"), buildArchive(t, imdbEntries()), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := New(srv.Client()).Acquire(context.Background(), datasetConfig(srv.URL, dir))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.Downloaded || !res.Extracted || hits.Load() != 0 {
		t.Errorf("result = %+v, hits = %d", res, hits.Load())
	}
}

func TestAcquireHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	dir := t.TempDir()

	_, err := New(srv.Client()).Acquire(context.Background(), datasetConfig(srv.URL, dir))
	if !errors.Is(err, apperrors.ErrDownload) {
		t.Fatalf("err = %v, want ErrDownload", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "aclImdb_v1.tar.gz")); !os.IsNotExist(statErr) {
		t.Error("archive created despite failed download")
	}
}

func TestAcquireTruncatedDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("short"))
	}))
	defer srv.Close()
	dir := t.TempDir()

	_, err := New(srv.Client()).Acquire(context.Background(), datasetConfig(srv.URL, dir))
	if !errors.Is(err, apperrors.ErrDownload) {
		t.Fatalf("err = %v, want ErrDownload", err)
	}
	for _, name := range []string{"aclImdb_v1.tar.gz", "aclImdb_v1.tar.gz.tmp", "aclImdb"} {
		if _, statErr := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(statErr) {
			t.Errorf("%s left behind after truncated download", name)
		}
	}
}

func TestAcquireRejectsEscapingEntries(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, buildArchive(t, []entry{
		{name: "aclImdb/train/pos/1.txt", body: "ok"},
		{name: "../evil.txt", body: "nope"},
	}), &hits)
	dir := filepath.Join(t.TempDir(), "work")

	_, err := New(srv.Client()).Acquire(context.Background(), datasetConfig(srv.URL, dir))
	if !errors.Is(err, apperrors.ErrExtract) {
		t.Fatalf("err = %v, want ErrExtract", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "aclImdb")); !os.IsNotExist(statErr) {
		t.Error("partial extraction left under the final name")
	}
}

func TestAcquireArchiveWithoutExpectedDirectory(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, buildArchive(t, []entry{{name: "other/readme.txt", body: "hi"}}), &hits)

	_, err := New(srv.Client()).Acquire(context.Background(), datasetConfig(srv.URL, t.TempDir()))
	if !errors.Is(err, apperrors.ErrExtract) {
		t.Fatalf("err = %v, want ErrExtract", err)
	}
}
