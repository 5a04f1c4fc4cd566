package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/geocam/internal/model"
)

// FileSensor "shoots" by copying a source image into the capture directory.
// FrontSource, when set, is used while the device faces front.
type FileSensor struct {
	Source      string
	FrontSource string
	Dir         string
}

var _ Sensor = (*FileSensor)(nil)

// Open implements Sensor.
func (s *FileSensor) Open(context.Context) error {
	if s.Source == "" {
		return errors.New("file sensor: no source image")
	}
	for _, p := range []string{s.Source, s.FrontSource} {
		if p == "" {
			continue
		}
		st, err := os.Stat(p)
		if err != nil {
			return err
		}
		if st.IsDir() {
			return fmt.Errorf("file sensor: %s is a directory", p)
		}
	}
	return os.MkdirAll(s.Dir, 0o700)
}

// Shoot implements Sensor.
func (s *FileSensor) Shoot(ctx context.Context, facing model.Facing) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	src := s.Source
	if facing == model.FacingFront && s.FrontSource != "" {
		src = s.FrontSource
	}
	in, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	id, err := uuid.NewV4()
	if err != nil {
		return "", 0, err
	}
	ext := strings.ToLower(filepath.Ext(src))
	if ext == "" {
		ext = ".jpg"
	}
	dst := filepath.Join(s.Dir, id.String()+ext)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", 0, err
	}

	abs, err := filepath.Abs(dst)
	if err != nil {
		abs = dst
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), n, nil
}

// Remove implements Sensor. Only files inside Dir may be removed.
func (s *FileSensor) Remove(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return err
	}
	if u.Scheme != "file" {
		return fmt.Errorf("file sensor: unsupported uri %q", uri)
	}
	p := filepath.FromSlash(u.Path)
	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return err
	}
	if rel, err := filepath.Rel(dir, p); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("file sensor: %s is outside the capture directory", p)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close implements Sensor.
func (s *FileSensor) Close() error { return nil }
