package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

type fakePutter struct {
	keys    []string
	failKey string
}

func (f *fakePutter) PutObject(_ context.Context, _, _, key string) error {
	if key == f.failKey {
		return errors.New("denied")
	}
	f.keys = append(f.keys, key)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploadAllSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "sessions.csv")
	if err := os.WriteFile(present, []byte("session_id\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	missing := filepath.Join(dir, "alarms.csv")

	fp := &fakePutter{}
	u := New(fp, "ledger-bucket", "exports", []string{present, missing}, discardLogger())
	if err := u.UploadAll(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(fp.keys) != 1 || fp.keys[0] != "exports/sessions.csv" {
		t.Fatalf("unexpected keys %v", fp.keys)
	}
}

func TestUploadAllContinuesPastFailure(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.csv", "b.csv"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x\n"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		paths = append(paths, p)
	}

	fp := &fakePutter{failKey: "a.csv"}
	u := New(fp, "ledger-bucket", "", paths, discardLogger())
	if err := u.UploadAll(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(fp.keys) != 1 || fp.keys[0] != "b.csv" {
		t.Fatalf("expected b.csv to still upload, got %v", fp.keys)
	}
}
