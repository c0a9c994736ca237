package upload

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// Uploader mirrors the ledger files into an object bucket. Files that do
// not exist yet are skipped; a failed put is logged and the remaining files
// are still attempted.
type Uploader struct {
	putter ObjectPutter
	bucket string
	prefix string
	paths  []string
	logger *slog.Logger
}

func New(putter ObjectPutter, bucket, prefix string, paths []string, logger *slog.Logger) *Uploader {
	return &Uploader{putter: putter, bucket: bucket, prefix: prefix, paths: paths, logger: logger}
}

// UploadAll pushes every existing ledger file under the configured prefix.
func (u *Uploader) UploadAll(ctx context.Context) error {
	uploaded := 0
	for _, p := range u.paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			u.logger.Debug("ledger file not written yet, skipping", "path", p)
			continue
		}
		key := path.Join(u.prefix, filepath.Base(p))
		if err := u.putter.PutObject(ctx, p, u.bucket, key); err != nil {
			u.logger.Error("upload failed", "path", p, "key", key, "err", err)
			continue
		}
		u.logger.Info("ledger file uploaded", "path", p, "key", key)
		uploaded++
	}
	u.logger.Info("upload pass finished", "uploaded", uploaded, "total", len(u.paths))
	return nil
}
