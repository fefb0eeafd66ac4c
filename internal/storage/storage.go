// Package storage keeps uploaded thumbnails on local disk.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/baharkarakas/blog-backend/internal/apperr"
)

const (
	DefaultMaxBytes int64 = 10 << 20
	// RefPrefix is the path prefix of every reference returned by Save,
	// and the route the files are served under.
	RefPrefix = "uploads"

	sniffLen = 3072
)

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type Store interface {
	Save(ctx context.Context, u Upload) (string, error)
	Remove(ctx context.Context, ref string) error
}

type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Save sniffs the content type, rejects anything but jpeg/png/webp and
// writes the file under a random name. The returned ref is "uploads/<name>".
func (s *LocalStore) Save(ctx context.Context, u Upload) (string, error) {
	if u.Content == nil {
		return "", apperr.Validation("Thumbnail file is empty.", nil)
	}
	if u.Size > s.maxBytes {
		return "", s.tooLarge()
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", apperr.Server(fmt.Errorf("storage: read upload: %w", err))
	}
	head = head[:n]
	if n == 0 {
		return "", apperr.Validation("Thumbnail file is empty.", nil)
	}

	mt := mimetype.Detect(head)
	ext, ok := allowed[mt.String()]
	if !ok {
		return "", apperr.Validation("Only JPEG, PNG or WEBP images are allowed.", map[string]string{"detected": mt.String()})
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	full := filepath.Join(s.dir, name)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperr.Server(fmt.Errorf("storage: create file: %w", err))
	}

	body := io.MultiReader(bytes.NewReader(head), u.Content)
	written, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", apperr.Server(fmt.Errorf("storage: write file: %w", err))
	}
	if written > s.maxBytes {
		_ = os.Remove(full)
		return "", s.tooLarge()
	}
	return path.Join(RefPrefix, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s *LocalStore) Remove(ctx context.Context, ref string) error {
	name := strings.TrimPrefix(ref, RefPrefix+"/")
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("storage: bad ref %q", ref)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) tooLarge() error {
	return apperr.Validation(fmt.Sprintf("Thumbnail must be at most %d bytes.", s.maxBytes), nil)
}
