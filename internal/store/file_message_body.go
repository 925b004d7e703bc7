package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/go-git/go-billy/v5"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
)

// bodyFileStorage is the go-billy backed implementation of [BodyStorage].
// Bodies live at <escaped folder>/<escaped server id>.eml. Each body is
// first streamed to a temporary file in the same directory and renamed into
// place once complete, so a reader never sees a partial body.
type bodyFileStorage struct {
	fs     billy.Filesystem
	logger *logger.Logger
}

// NewBodyFileStorage constructs a [BodyStorage] rooted at fs. Production code
// passes an osfs rooted at the configured body directory; tests use memfs.
func NewBodyFileStorage(fs billy.Filesystem, logger *logger.Logger) BodyStorage {
	return &bodyFileStorage{
		fs:     fs,
		logger: logger,
	}
}

// Write implements [BodyStorage]. The returned checksum is the hex-encoded
// BLAKE2b-256 digest of the bytes written.
func (s *bodyFileStorage) Write(ctx context.Context, folderID, serverID string, body io.Reader) (models.StoredBody, error) {
	log := logger.FromContext(ctx)

	dir := url.PathEscape(folderID)
	finalPath := s.fs.Join(dir, url.PathEscape(serverID)+".eml")

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return models.StoredBody{}, fmt.Errorf("%w: create folder dir: %w", ErrWritingBody, err)
	}

	tmp, err := s.fs.TempFile(dir, ".incoming-")
	if err != nil {
		return models.StoredBody{}, fmt.Errorf("%w: create temp file: %w", ErrWritingBody, err)
	}
	tmpPath := tmp.Name()

	h := utils.AcquireHasher()
	defer utils.ReleaseHasher(h)

	size, copyErr := io.Copy(io.MultiWriter(tmp, h), &contextReader{ctx: ctx, r: body})
	closeErr := tmp.Close()
	if err = errors.Join(copyErr, closeErr); err != nil {
		if rmErr := s.fs.Remove(tmpPath); rmErr != nil {
			log.Err(rmErr).
				Str("func", "bodyFileStorage.Write").
				Str("path", tmpPath).
				Msg("failed to remove temp body file")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.StoredBody{}, ctxErr
		}
		return models.StoredBody{}, fmt.Errorf("%w: %s/%s: %w", ErrWritingBody, folderID, serverID, err)
	}

	if err = s.fs.Rename(tmpPath, finalPath); err != nil {
		s.fs.Remove(tmpPath)
		return models.StoredBody{}, fmt.Errorf("%w: rename into place: %w", ErrWritingBody, err)
	}

	return models.StoredBody{
		Path:     finalPath,
		Size:     size,
		Checksum: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Remove implements [BodyStorage].
func (s *bodyFileStorage) Remove(ctx context.Context, paths ...string) error {
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrRemovingBody, path, err))
		}
	}
	return errors.Join(errs...)
}

// contextReader fails reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
